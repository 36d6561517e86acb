package repository

import (
	"context"
	"fmt"
	"time"

	"tonotes/contextutil"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupIndexes creates the Mongo indexes the notes queries rely on.
// Creating an index that already exists is a no-op.
func SetupIndexes(ctx context.Context, db *mongo.Database, notesCollection, usersCollection string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if notesCollection == "" {
		notesCollection = DefaultNotesCollection
	}
	if usersCollection == "" {
		usersCollection = DefaultUsersCollection
	}

	noteIndexes := []mongo.IndexModel{
		// Owner listing, newest first
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("owner_notes_date"),
		},
		// Shared notes
		{
			Keys: bson.D{
				{Key: "collaborators", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("collaborator_notes_date"),
		},
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "folder_id", Value: 1},
			},
			Options: options.Index().SetName("owner_folder"),
		},
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id_index").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_index"),
		},
	}

	if _, err := db.Collection(notesCollection).Indexes().CreateMany(ctx, noteIndexes); err != nil {
		return fmt.Errorf("failed to create notes indexes: %w", err)
	}
	if _, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}

	contextutil.LoggerFromContext(ctx).Info("mongo indexes ready",
		"notes_collection", notesCollection, "users_collection", usersCollection)
	return nil
}
