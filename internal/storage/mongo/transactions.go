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

// CreateTransaction inserts a new transaction for its owner.
func (s *Store) CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = now()
	if _, err := s.transactions.InsertOne(ctx, tx); err != nil {
		return models.Transaction{}, fmt.Errorf("storage.mongo.CreateTransaction: %w", err)
	}
	return tx, nil
}

// TransactionByID retrieves a single transaction by its ID.
func (s *Store) TransactionByID(ctx context.Context, id string) (models.Transaction, error) {
	var tx models.Transaction
	if err := s.transactions.FindOne(ctx, bson.M{"_id": id}).Decode(&tx); err != nil {
		return models.Transaction{}, notFound(err)
	}
	return tx, nil
}

// ListTransactions retrieves a user's transactions ordered by date descending.
func (s *Store) ListTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	const op = "storage.mongo.ListTransactions"

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.transactions.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	transactions := []models.Transaction{}
	if err := cur.All(ctx, &transactions); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return transactions, nil
}

// DeleteTransaction removes a transaction by ID.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.transactions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("storage.mongo.DeleteTransaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
