package repository

import (
	"context"
	"errors"
	"fmt"

	"tonotes/model"
	"tonotes/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultNotesCollection = "notes"

type NotesRepo struct {
	MongoCollection *mongo.Collection
}

func NewNotesRepo(db *mongo.Database, collection string) *NotesRepo {
	if collection == "" {
		collection = DefaultNotesCollection
	}
	return &NotesRepo{MongoCollection: db.Collection(collection)}
}

func (r *NotesRepo) name() string {
	return r.MongoCollection.Name()
}

// CreateNote inserts a note. The caller assigns the id and timestamps.
func (r *NotesRepo) CreateNote(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("insert", r.name())
	defer timer.ObserveDuration()

	if note.ID == "" || note.OwnerID == "" {
		return errors.New("note id and owner are required")
	}

	if _, err := r.MongoCollection.InsertOne(ctx, note); err != nil {
		utils.TrackDBError(r.name(), "insert")
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

func (r *NotesRepo) GetNote(ctx context.Context, id string) (*model.Note, error) {
	timer := utils.TrackDBOperation("find", r.name())
	defer timer.ObserveDuration()

	var note model.Note
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNoteNotFound
	}
	if err != nil {
		utils.TrackDBError(r.name(), "find")
		return nil, fmt.Errorf("failed to find note %s: %w", id, err)
	}
	return &note, nil
}

// UpdateNote replaces the stored note with the same id.
func (r *NotesRepo) UpdateNote(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("update", r.name())
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.ReplaceOne(ctx, bson.M{"_id": note.ID}, note)
	if err != nil {
		utils.TrackDBError(r.name(), "update")
		return fmt.Errorf("failed to update note %s: %w", note.ID, err)
	}
	if result.MatchedCount == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

func (r *NotesRepo) DeleteNote(ctx context.Context, id string) error {
	timer := utils.TrackDBOperation("delete", r.name())
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		utils.TrackDBError(r.name(), "delete")
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

func accessFilter(userID string) bson.M {
	return bson.M{"$or": []bson.M{
		{"owner_id": userID},
		{"collaborators": userID},
	}}
}

// ListAccessibleNotes returns one page of the notes userID owns or
// collaborates on, newest first, with the total number of such notes.
func (r *NotesRepo) ListAccessibleNotes(ctx context.Context, userID string, skip, limit int) ([]*model.Note, int, error) {
	timer := utils.TrackDBOperation("list", r.name())
	defer timer.ObserveDuration()

	filter := accessFilter(userID)

	total, err := r.MongoCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.TrackDBError(r.name(), "count")
		return nil, 0, fmt.Errorf("failed to count notes: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	notes, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return notes, int(total), nil
}

// FindNotesByIDs returns the notes among ids that exist, in no particular
// order.
func (r *NotesRepo) FindNotesByIDs(ctx context.Context, ids []string) ([]*model.Note, error) {
	if len(ids) == 0 {
		return []*model.Note{}, nil
	}
	timer := utils.TrackDBOperation("find_many", r.name())
	defer timer.ObserveDuration()

	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListNotesAfter scans notes in ascending id order, starting after afterID.
func (r *NotesRepo) ListNotesAfter(ctx context.Context, afterID string, limit int) ([]*model.Note, error) {
	timer := utils.TrackDBOperation("scan", r.name())
	defer timer.ObserveDuration()

	filter := bson.M{}
	if afterID != "" {
		filter["_id"] = bson.M{"$gt": afterID}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	return r.find(ctx, filter, opts)
}

func (r *NotesRepo) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]*model.Note, error) {
	cursor, err := r.MongoCollection.Find(ctx, filter, opts...)
	if err != nil {
		utils.TrackDBError(r.name(), "find")
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := []*model.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		utils.TrackDBError(r.name(), "decode")
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	return notes, nil
}
