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

const noteColumns = "id, user_id, title, content, tags_json, is_pinned, color, created_at, updated_at"

func scanNote(row rowScanner) (models.Note, error) {
	var (
		n        models.Note
		tagsJSON string
	)
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &tagsJSON, &n.IsPinned, &n.Color, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Note{}, storage.ErrNotFound
		}
		return models.Note{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
		return models.Note{}, fmt.Errorf("decode tags for note %s: %w", n.ID, err)
	}
	return n, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

// CreateNote inserts a new note.
func (s *Store) CreateNote(ctx context.Context, note models.Note) (models.Note, error) {
	const op = "storage.sqlite.CreateNote"

	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	now := utc(time.Now())
	note.CreatedAt, note.UpdatedAt = now, now

	tagsJSON, err := encodeTags(note.Tags)
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, content, tags_json, is_pinned, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.Title, note.Content, tagsJSON, note.IsPinned, note.Color, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}
	return note, nil
}

// NoteByID retrieves a single note by its ID.
func (s *Store) NoteByID(ctx context.Context, id string) (models.Note, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	return scanNote(row)
}

// ListNotes retrieves a user's notes, pinned first and most recently updated next.
func (s *Store) ListNotes(ctx context.Context, userID string) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+noteColumns+` FROM notes
		WHERE user_id = ? ORDER BY is_pinned DESC, updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("storage.sqlite.ListNotes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// UpdateNote overwrites the mutable fields of a note.
func (s *Store) UpdateNote(ctx context.Context, note models.Note) (models.Note, error) {
	const op = "storage.sqlite.UpdateNote"

	tagsJSON, err := encodeTags(note.Tags)
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, tags_json = ?, is_pinned = ?, color = ?, updated_at = ?
		WHERE id = ?`,
		note.Title, note.Content, tagsJSON, note.IsPinned, note.Color, utc(time.Now()), note.ID)
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return models.Note{}, err
	}
	return s.NoteByID(ctx, note.ID)
}

// DeleteNote removes a note by ID.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("storage.sqlite.DeleteNote: %w", err)
	}
	return affectedOrNotFound(res)
}
