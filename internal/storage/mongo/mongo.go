// Package mongo implements the storage contracts on top of MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ storage.Store = (*Store)(nil)

const (
	usersCollection        = "users"
	transactionsCollection = "transactions"
	notesCollection        = "notes"
	eventsCollection       = "events"
)

// Store provides MongoDB-backed persistence.
type Store struct {
	client       *mongo.Client
	users        *mongo.Collection
	transactions *mongo.Collection
	notes        *mongo.Collection
	events       *mongo.Collection
}

// New connects to uri, selects database and ensures the indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	const op = "storage.mongo.New"

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db := client.Database(database)
	s := &Store{
		client:       client,
		users:        db.Collection(usersCollection),
		transactions: db.Collection(transactionsCollection),
		notes:        db.Collection(notesCollection),
		events:       db.Collection(eventsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: ensure indexes: %w", op, err)
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	if err != nil {
		return err
	}
	if _, err = s.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
	}); err != nil {
		return err
	}
	if _, err = s.notes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	}); err != nil {
		return err
	}
	_, err = s.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return err
}

func matchedOrNotFound(res *mongo.UpdateResult) error {
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// now truncates to the millisecond precision BSON dates can hold.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
