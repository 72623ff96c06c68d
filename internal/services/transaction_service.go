package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	ws "github.com/isdelr/finance-tracker-be/internal/websocket"
)

// TransactionServiceProvider defines the interface for transaction services.
type TransactionServiceProvider interface {
	Create(ctx context.Context, userID string, tx models.Transaction) (models.Transaction, error)
	List(ctx context.Context, userID string) ([]models.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

// TransactionService provides business logic for transactions.
type TransactionService struct {
	store    storage.TransactionStore
	notifier Notifier
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(store storage.TransactionStore, notifier Notifier) *TransactionService {
	return &TransactionService{store: store, notifier: notifierOrNop(notifier)}
}

// Create records a transaction owned by userID.
func (s *TransactionService) Create(ctx context.Context, userID string, tx models.Transaction) (models.Transaction, error) {
	tx.Category = strings.TrimSpace(tx.Category)
	tx.Description = strings.TrimSpace(tx.Description)
	switch {
	case !tx.Type.Valid():
		return models.Transaction{}, invalid("Type must be expense or income")
	case tx.Amount <= 0 || math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0):
		return models.Transaction{}, invalid("Amount must be greater than zero")
	case tx.Date.IsZero():
		return models.Transaction{}, invalid("Date is required")
	case tx.Category == "":
		return models.Transaction{}, invalid("Category is required")
	}

	tx.ID = ""
	tx.UserID = userID
	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("services.TransactionService.Create: %w", err)
	}

	s.notifier.Notify(userID, ws.ActionTransactionCreated, created)
	return created, nil
}

// List returns all of the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("services.TransactionService.List: %w", err)
	}
	return txs, nil
}

// Delete removes a transaction if userID owns it.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	const op = "services.TransactionService.Delete"

	tx, err := s.store.TransactionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tx.UserID != userID {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Notify(userID, ws.ActionTransactionDeleted, map[string]string{"id": id})
	return nil
}
