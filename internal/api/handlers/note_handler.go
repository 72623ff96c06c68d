package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/services"
)

// NoteHandler handles HTTP requests for notes.
type NoteHandler struct {
	service services.NoteServiceProvider
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(service services.NoteServiceProvider) *NoteHandler {
	return &NoteHandler{service: service}
}

// NotePayload defines the structure for new notes.
type NotePayload struct {
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	IsPinned bool     `json:"isPinned"`
	Color    string   `json:"color" validate:"omitempty,hexcolor"`
}

// NotePatchPayload defines a partial note update. Omitted fields are kept.
type NotePatchPayload struct {
	Title    *string  `json:"title" validate:"omitempty,min=1"`
	Content  *string  `json:"content"`
	Tags     []string `json:"tags"`
	IsPinned *bool    `json:"isPinned"`
	Color    *string  `json:"color" validate:"omitempty,hexcolor"`
}

// Create stores a note for the authenticated user.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload NotePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	note, err := h.service.Create(r.Context(), auth.UserIDFromContext(r.Context()), models.Note{
		Title:    payload.Title,
		Content:  payload.Content,
		Tags:     payload.Tags,
		IsPinned: payload.IsPinned,
		Color:    payload.Color,
	})
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	respondJSON(w, r, http.StatusCreated, note)
}

// List returns the authenticated user's notes, pinned first.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	respondJSON(w, r, http.StatusOK, nonNil(notes))
}

// Update applies a partial update to a note.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload NotePatchPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	note, err := h.service.Update(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), models.NotePatch{
		Title:    payload.Title,
		Content:  payload.Content,
		Tags:     payload.Tags,
		IsPinned: payload.IsPinned,
		Color:    payload.Color,
	})
	if err != nil {
		writeError(w, r, err, "Note not found")
		return
	}
	respondJSON(w, r, http.StatusOK, note)
}

// Delete removes a note.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Note not found")
		return
	}
	respondMessage(w, r, http.StatusOK, "Note removed")
}
