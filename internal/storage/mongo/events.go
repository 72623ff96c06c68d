package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateEvent logs a new event.
func (s *Store) CreateEvent(ctx context.Context, event models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now()
	}
	_, err := s.events.InsertOne(ctx, event)
	return err
}

// ListEvents retrieves the most recent events of a user.
func (s *Store) ListEvents(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.events.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("storage.mongo.ListEvents: %w", err)
	}
	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("storage.mongo.ListEvents: %w", err)
	}
	return events, nil
}

// PruneEvents deletes events created before the cutoff.
func (s *Store) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.events.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": before.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("storage.mongo.PruneEvents: %w", err)
	}
	return res.DeletedCount, nil
}
