package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/services"
)

// TransactionHandler handles HTTP requests for transactions.
type TransactionHandler struct {
	service services.TransactionServiceProvider
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(service services.TransactionServiceProvider) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// TransactionPayload defines the structure for new transactions. Date accepts
// a calendar day (2006-01-02) or an RFC 3339 timestamp.
type TransactionPayload struct {
	Type        models.TransactionType `json:"type"`
	Amount      float64                `json:"amount"`
	Date        string                 `json:"date" validate:"required"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
}

func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Create records a transaction for the authenticated user.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload TransactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}
	date, ok := parseDate(payload.Date)
	if !ok {
		respondMessage(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD or an RFC 3339 timestamp")
		return
	}

	tx, err := h.service.Create(r.Context(), auth.UserIDFromContext(r.Context()), models.Transaction{
		Type:        payload.Type,
		Amount:      payload.Amount,
		Date:        date,
		Category:    payload.Category,
		Description: payload.Description,
	})
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	respondJSON(w, r, http.StatusCreated, tx)
}

// List returns the authenticated user's transactions, newest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	respondJSON(w, r, http.StatusOK, nonNil(txs))
}

// Delete removes one of the authenticated user's transactions.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), auth.UserIDFromContext(r.Context()), id); err != nil {
		writeError(w, r, err, "Transaction not found")
		return
	}
	respondMessage(w, r, http.StatusOK, "Transaction removed")
}
