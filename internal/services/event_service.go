package services

import (
	"context"
	"fmt"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	"github.com/rs/zerolog/log"
)

// Event types written to the audit trail.
const (
	EventSignup         = "auth.signup"
	EventLogin          = "auth.login"
	EventLoginFailed    = "auth.login.fail"
	EventProfileUpdated = "auth.profile.update"
	EventResetRequested = "auth.password.reset_request"
	EventResetDelivery  = "auth.password.reset_delivery_fail"
	EventPasswordReset  = "auth.password.reset"
	EventGoogleLinked   = "auth.google.link"
	EventGoogleSignup   = "auth.google.signup"
	EventBudgetsUpdated = "budgets.update"
)

// Event levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// DefaultEventLimit bounds event listings when the caller does not.
const DefaultEventLimit = 50

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	Record(ctx context.Context, userID, eventType, level, message string)
	Recent(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// EventService provides business logic for the audit trail.
type EventService struct {
	store storage.EventStore
}

// NewEventService creates a new EventService.
func NewEventService(store storage.EventStore) *EventService {
	return &EventService{store: store}
}

// Record stores an event. Failures are logged, never returned: the audit
// trail must not break the operation being audited.
func (s *EventService) Record(ctx context.Context, userID, eventType, level, message string) {
	err := s.store.CreateEvent(context.WithoutCancel(ctx), models.Event{
		UserID:  userID,
		Type:    eventType,
		Level:   level,
		Message: message,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("type", eventType).Msg("Failed to record event")
	}
}

// Recent returns the user's latest events, newest first.
func (s *EventService) Recent(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > 200 {
		limit = DefaultEventLimit
	}
	events, err := s.store.ListEvents(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("services.EventService.Recent: %w", err)
	}
	return events, nil
}
