// Package storage declares the persistence contracts shared by the SQLite and
// MongoDB backends.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations on user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (models.User, error)
	UpdateBudgets(ctx context.Context, id string, budgets []models.Budget) ([]models.Budget, error)

	// SetResetToken stores a pending reset token and its absolute expiry.
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// ClearResetToken removes any pending reset token.
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken replaces the password hash and clears the reset fields,
	// but only while the stored token still equals token. It returns
	// ErrNotFound when no such pending token exists.
	ConsumeResetToken(ctx context.Context, id, token, passwordHash string, changedAt time.Time) error
	// PurgeExpiredResetTokens clears reset tokens that expired before now.
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)

	// LinkGoogleAccount records the federated subject if the user has none yet.
	LinkGoogleAccount(ctx context.Context, id, subject string) error
}

// TransactionStore captures persistence operations on transactions.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	TransactionByID(ctx context.Context, id string) (models.Transaction, error)
	// ListTransactions returns the user's transactions, newest first. A
	// non-positive limit returns all of them.
	ListTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// NoteStore captures persistence operations on notes.
type NoteStore interface {
	CreateNote(ctx context.Context, note models.Note) (models.Note, error)
	NoteByID(ctx context.Context, id string) (models.Note, error)
	// ListNotes returns pinned notes first, then by last update.
	ListNotes(ctx context.Context, userID string) ([]models.Note, error)
	UpdateNote(ctx context.Context, note models.Note) (models.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// EventStore captures persistence operations on the audit trail.
type EventStore interface {
	CreateEvent(ctx context.Context, event models.Event) error
	ListEvents(ctx context.Context, userID string, limit int) ([]models.Event, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// Store is the full persistence surface a backend provides.
type Store interface {
	UserStore
	TransactionStore
	NoteStore
	EventStore
	Close(ctx context.Context) error
}

// NormalizeEmail canonicalises an email for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
