package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateNote inserts a new note.
func (s *Store) CreateNote(ctx context.Context, note models.Note) (models.Note, error) {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	ts := now()
	note.CreatedAt, note.UpdatedAt = ts, ts
	if _, err := s.notes.InsertOne(ctx, note); err != nil {
		return models.Note{}, fmt.Errorf("storage.mongo.CreateNote: %w", err)
	}
	return note, nil
}

// NoteByID retrieves a single note by its ID.
func (s *Store) NoteByID(ctx context.Context, id string) (models.Note, error) {
	var note models.Note
	if err := s.notes.FindOne(ctx, bson.M{"_id": id}).Decode(&note); err != nil {
		return models.Note{}, notFound(err)
	}
	return note, nil
}

// ListNotes retrieves a user's notes, pinned first and most recently updated next.
func (s *Store) ListNotes(ctx context.Context, userID string) ([]models.Note, error) {
	const op = "storage.mongo.ListNotes"

	opts := options.Find().SetSort(bson.D{{Key: "isPinned", Value: -1}, {Key: "updatedAt", Value: -1}})
	cur, err := s.notes.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	notes := []models.Note{}
	if err := cur.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return notes, nil
}

// UpdateNote overwrites the mutable fields of a note.
func (s *Store) UpdateNote(ctx context.Context, note models.Note) (models.Note, error) {
	if note.Tags == nil {
		note.Tags = []string{}
	}
	res, err := s.notes.UpdateOne(ctx, bson.M{"_id": note.ID}, bson.M{"$set": bson.M{
		"title":     note.Title,
		"content":   note.Content,
		"tags":      note.Tags,
		"isPinned":  note.IsPinned,
		"color":     note.Color,
		"updatedAt": now(),
	}})
	if err != nil {
		return models.Note{}, fmt.Errorf("storage.mongo.UpdateNote: %w", err)
	}
	if err := matchedOrNotFound(res); err != nil {
		return models.Note{}, err
	}
	return s.NoteByID(ctx, note.ID)
}

// DeleteNote removes a note by ID.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.notes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("storage.mongo.DeleteNote: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
