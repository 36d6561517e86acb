package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tonotes/model"
	"tonotes/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultUsersCollection = "users"

// identityProjection keeps credentials and other account data out of
// this service.
var identityProjection = bson.M{"_id": 0, "user_id": 1, "username": 1, "email": 1}

// UsersRepo reads display identities from the users collection, which the
// authentication service owns.
type UsersRepo struct {
	MongoCollection *mongo.Collection
}

func NewUsersRepo(db *mongo.Database, collection string) *UsersRepo {
	if collection == "" {
		collection = DefaultUsersCollection
	}
	return &UsersRepo{MongoCollection: db.Collection(collection)}
}

func (r *UsersRepo) FindUserByEmail(ctx context.Context, email string) (*model.UserIdentity, error) {
	timer := utils.TrackDBOperation("find", r.MongoCollection.Name())
	defer timer.ObserveDuration()

	email = strings.ToLower(strings.TrimSpace(email))
	opts := options.FindOne().SetProjection(identityProjection)

	var user model.UserIdentity
	err := r.MongoCollection.FindOne(ctx, bson.M{"email": email}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		utils.TrackDBError(r.MongoCollection.Name(), "find")
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// FindUsersByIDs returns the identities among ids that exist.
func (r *UsersRepo) FindUsersByIDs(ctx context.Context, ids []string) ([]model.UserIdentity, error) {
	if len(ids) == 0 {
		return []model.UserIdentity{}, nil
	}
	timer := utils.TrackDBOperation("find_many", r.MongoCollection.Name())
	defer timer.ObserveDuration()

	opts := options.Find().SetProjection(identityProjection)
	cursor, err := r.MongoCollection.Find(ctx, bson.M{"user_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		utils.TrackDBError(r.MongoCollection.Name(), "find")
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []model.UserIdentity{}
	if err := cursor.All(ctx, &users); err != nil {
		utils.TrackDBError(r.MongoCollection.Name(), "decode")
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
