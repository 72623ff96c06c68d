package handlers

import (
	"net/http"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/services"
)

// BudgetHandler handles HTTP requests for per-category budgets.
type BudgetHandler struct {
	service services.UserServiceProvider
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(service services.UserServiceProvider) *BudgetHandler {
	return &BudgetHandler{service: service}
}

// BudgetsPayload replaces the whole budget list.
type BudgetsPayload struct {
	Budgets []models.Budget `json:"budgets" validate:"required,dive"`
}

// List returns the authenticated user's budgets.
func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.service.Budgets(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "User not found")
		return
	}
	respondJSON(w, r, http.StatusOK, nonNil(budgets))
}

// Replace stores a new budget list.
func (h *BudgetHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var payload BudgetsPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	budgets, err := h.service.UpdateBudgets(r.Context(), auth.UserIDFromContext(r.Context()), payload.Budgets)
	if err != nil {
		writeError(w, r, err, "User not found")
		return
	}
	respondJSON(w, r, http.StatusOK, nonNil(budgets))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
