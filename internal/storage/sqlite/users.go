package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
)

const userColumns = `id, name, email, password_hash, budgets_json, verified, reset_token,
	reset_token_expires_at, google_id, password_changed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		u              models.User
		budgetsJSON    string
		resetToken     sql.NullString
		resetExpiresAt sql.NullTime
		googleID       sql.NullString
		pwChangedAt    sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &budgetsJSON, &u.Verified, &resetToken,
		&resetExpiresAt, &googleID, &pwChangedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	if err := json.Unmarshal([]byte(budgetsJSON), &u.Budgets); err != nil {
		return models.User{}, fmt.Errorf("decode budgets for user %s: %w", u.ID, err)
	}
	u.ResetToken = stringPtr(resetToken)
	u.ResetTokenExpiresAt = timePtr(resetExpiresAt)
	u.GoogleID = stringPtr(googleID)
	u.PasswordChangedAt = timePtr(pwChangedAt)
	return u, nil
}

// CreateUser inserts a new user. A duplicate email yields storage.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.sqlite.CreateUser"

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Budgets == nil {
		user.Budgets = []models.Budget{}
	}
	user.Email = storage.NormalizeEmail(user.Email)
	now := utc(time.Now())
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	budgetsJSON, err := json.Marshal(user.Budgets)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, budgets_json, verified, google_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, user.ID, user.Name, user.Email, user.PasswordHash, string(budgetsJSON),
		user.Verified, nullString(user.GoogleID), utc(user.CreatedAt), user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.UserByID(ctx, user.ID)
}

// UserByID retrieves a single user by their ID, including the password hash.
func (s *Store) UserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// UserByEmail retrieves a single user by their email, case-insensitively.
func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", storage.NormalizeEmail(email))
	return scanUser(row)
}

// UpdateProfile updates a user's name and email.
func (s *Store) UpdateProfile(ctx context.Context, id, name, email string) (models.User, error) {
	const op = "storage.sqlite.UpdateProfile"

	res, err := s.db.ExecContext(ctx, "UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?",
		name, storage.NormalizeEmail(email), utc(time.Now()), id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return models.User{}, err
	}
	return s.UserByID(ctx, id)
}

// UpdateBudgets replaces the user's whole budget list.
func (s *Store) UpdateBudgets(ctx context.Context, id string, budgets []models.Budget) ([]models.Budget, error) {
	const op = "storage.sqlite.UpdateBudgets"

	if budgets == nil {
		budgets = []models.Budget{}
	}
	budgetsJSON, err := json.Marshal(budgets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE users SET budgets_json = ?, updated_at = ? WHERE id = ?",
		string(budgetsJSON), utc(time.Now()), id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return nil, err
	}
	return budgets, nil
}

// SetResetToken stores a pending reset token, replacing any previous one.
func (s *Store) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET reset_token = ?, reset_token_expires_at = ?, updated_at = ? WHERE id = ?",
		token, utc(expiresAt), utc(time.Now()), id)
	if err != nil {
		return fmt.Errorf("storage.sqlite.SetResetToken: %w", err)
	}
	return affectedOrNotFound(res)
}

// ClearResetToken removes the pending reset token, if any.
func (s *Store) ClearResetToken(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = ? WHERE id = ?",
		utc(time.Now()), id)
	if err != nil {
		return fmt.Errorf("storage.sqlite.ClearResetToken: %w", err)
	}
	return affectedOrNotFound(res)
}

// ConsumeResetToken sets a new password hash if token is still the pending one.
func (s *Store) ConsumeResetToken(ctx context.Context, id, token, passwordHash string, changedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, reset_token = NULL, reset_token_expires_at = NULL,
			password_changed_at = ?, updated_at = ?
		WHERE id = ? AND reset_token = ?`,
		passwordHash, utc(changedAt), utc(changedAt), id, token)
	if err != nil {
		return fmt.Errorf("storage.sqlite.ConsumeResetToken: %w", err)
	}
	return affectedOrNotFound(res)
}

// PurgeExpiredResetTokens clears every reset token that expired before now.
func (s *Store) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET reset_token = NULL, reset_token_expires_at = NULL
		WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at < ?`, utc(now))
	if err != nil {
		return 0, fmt.Errorf("storage.sqlite.PurgeExpiredResetTokens: %w", err)
	}
	return res.RowsAffected()
}

// LinkGoogleAccount records subject on the user unless an account is already linked.
func (s *Store) LinkGoogleAccount(ctx context.Context, id, subject string) error {
	const op = "storage.sqlite.LinkGoogleAccount"

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET google_id = ?, updated_at = ? WHERE id = ? AND google_id IS NULL",
		subject, utc(time.Now()), id)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	// Nothing updated: either already linked or the user is gone.
	if _, err := s.UserByID(ctx, id); err != nil {
		return err
	}
	return nil
}
