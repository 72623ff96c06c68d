package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/services"
)

const maxEventLimit = 200

// EventHandler handles HTTP requests related to account activity.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get the user's recent activity.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = services.DefaultEventLimit
	}
	limit = min(limit, maxEventLimit)

	events, err := h.service.Recent(r.Context(), auth.UserIDFromContext(r.Context()), limit)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	respondJSON(w, r, http.StatusOK, nonNil(events))
}
