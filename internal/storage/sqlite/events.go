package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/finance-tracker-be/internal/models"
)

// CreateEvent logs a new event to the database.
func (s *Store) CreateEvent(ctx context.Context, event models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	stmt, err := s.db.PrepareContext(ctx, "INSERT INTO events (id, user_id, type, level, message, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, event.ID, event.UserID, event.Type, event.Level, event.Message, utc(event.CreatedAt))
	return err
}

// ListEvents retrieves the most recent events of a user.
func (s *Store) ListEvents(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, level, message, created_at FROM events
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.UserID, &event.Type, &event.Level, &event.Message, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// PruneEvents deletes events created before the cutoff.
func (s *Store) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", utc(before))
	if err != nil {
		return 0, fmt.Errorf("storage.sqlite.PruneEvents: %w", err)
	}
	return res.RowsAffected()
}
