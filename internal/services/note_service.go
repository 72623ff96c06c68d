package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	ws "github.com/isdelr/finance-tracker-be/internal/websocket"
)

// NoteServiceProvider defines the interface for note services.
type NoteServiceProvider interface {
	Create(ctx context.Context, userID string, note models.Note) (models.Note, error)
	List(ctx context.Context, userID string) ([]models.Note, error)
	Update(ctx context.Context, userID, id string, patch models.NotePatch) (models.Note, error)
	Delete(ctx context.Context, userID, id string) error
}

// NoteService provides business logic for notes.
type NoteService struct {
	store    storage.NoteStore
	notifier Notifier
}

// NewNoteService creates a new NoteService.
func NewNoteService(store storage.NoteStore, notifier Notifier) *NoteService {
	return &NoteService{store: store, notifier: notifierOrNop(notifier)}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func validateNote(n models.Note) error {
	if n.Title == "" {
		return invalid("Title is required")
	}
	if err := validate.Var(n.Color, "required,hexcolor"); err != nil {
		return invalid("Color must be a hex value like #1e293b")
	}
	return nil
}

// Create stores a new note for userID.
func (s *NoteService) Create(ctx context.Context, userID string, note models.Note) (models.Note, error) {
	note.ID = ""
	note.UserID = userID
	note.Title = strings.TrimSpace(note.Title)
	note.Tags = cleanTags(note.Tags)
	if note.Color == "" {
		note.Color = models.DefaultNoteColor
	}
	if err := validateNote(note); err != nil {
		return models.Note{}, err
	}

	created, err := s.store.CreateNote(ctx, note)
	if err != nil {
		return models.Note{}, fmt.Errorf("services.NoteService.Create: %w", err)
	}
	s.notifier.Notify(userID, ws.ActionNoteCreated, created)
	return created, nil
}

// List returns the user's notes, pinned first.
func (s *NoteService) List(ctx context.Context, userID string) ([]models.Note, error) {
	notes, err := s.store.ListNotes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("services.NoteService.List: %w", err)
	}
	return notes, nil
}

func (s *NoteService) owned(ctx context.Context, userID, id string) (models.Note, error) {
	note, err := s.store.NoteByID(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if note.UserID != userID {
		return models.Note{}, ErrForbidden
	}
	return note, nil
}

// Update applies patch to a note owned by userID.
func (s *NoteService) Update(ctx context.Context, userID, id string, patch models.NotePatch) (models.Note, error) {
	const op = "services.NoteService.Update"

	note, err := s.owned(ctx, userID, id)
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Title != nil {
		note.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Tags != nil {
		note.Tags = cleanTags(patch.Tags)
	}
	if patch.IsPinned != nil {
		note.IsPinned = *patch.IsPinned
	}
	if patch.Color != nil {
		note.Color = *patch.Color
	}
	if err := validateNote(note); err != nil {
		return models.Note{}, err
	}

	updated, err := s.store.UpdateNote(ctx, note)
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}
	s.notifier.Notify(userID, ws.ActionNoteUpdated, updated)
	return updated, nil
}

// Delete removes a note owned by userID.
func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	const op = "services.NoteService.Delete"

	if _, err := s.owned(ctx, userID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.notifier.Notify(userID, ws.ActionNoteDeleted, map[string]string{"id": id})
	return nil
}
