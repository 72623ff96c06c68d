package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
)

const transactionColumns = "id, user_id, type, amount, date, category, description, created_at"

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Date, &t.Category, &t.Description, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	return t, nil
}

// CreateTransaction inserts a new transaction for its owner.
func (s *Store) CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	const op = "storage.sqlite.CreateTransaction"

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.Date = utc(tx.Date)
	tx.CreatedAt = utc(time.Now())

	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, date, category, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, tx.ID, tx.UserID, string(tx.Type), tx.Amount, tx.Date, tx.Category, tx.Description, tx.CreatedAt)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}
	return tx, nil
}

// TransactionByID retrieves a single transaction by its ID.
func (s *Store) TransactionByID(ctx context.Context, id string) (models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	return scanTransaction(row)
}

// ListTransactions retrieves a user's transactions ordered by date descending.
func (s *Store) ListTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+transactionColumns+` FROM transactions
		WHERE user_id = ? ORDER BY date DESC, created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.sqlite.ListTransactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// DeleteTransaction removes a transaction by ID.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("storage.sqlite.DeleteTransaction: %w", err)
	}
	return affectedOrNotFound(res)
}
