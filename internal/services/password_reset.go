package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/mail"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	"github.com/rs/zerolog/log"
)

// PasswordResetProvider defines the password reset flow.
type PasswordResetProvider interface {
	RequestReset(ctx context.Context, email string) error
	CompleteReset(ctx context.Context, token, newPassword string) error
}

// PasswordResetService issues single-use reset tokens and consumes them.
type PasswordResetService struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	ttl    time.Duration
	sender mail.Sender
	appURL string
	events EventServiceProvider
	now    func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService. Links point at
// appURL/reset-password/<token>.
func NewPasswordResetService(store storage.UserStore, tokens *auth.TokenManager, ttl time.Duration, sender mail.Sender, appURL string, events EventServiceProvider) *PasswordResetService {
	return &PasswordResetService{
		store:  store,
		tokens: tokens,
		ttl:    ttl,
		sender: sender,
		appURL: appURL,
		events: events,
		now:    time.Now,
	}
}

// RequestReset stores a reset token for the account behind email and mails
// the link. An unknown email yields storage.ErrNotFound. Without a mail
// transport every request yields ErrResetUnavailable. When delivery fails
// the token is withdrawn again. A queued message that the mailer later gives
// up on is withdrawn by WithdrawUndeliveredReset.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	const op = "services.PasswordResetService.RequestReset"

	if strings.TrimSpace(email) == "" {
		return invalid("Email is required")
	}
	// Answer before the lookup so known and unknown emails look the same.
	if _, disabled := s.sender.(mail.Disabled); disabled {
		return fmt.Errorf("%s: %w", op, ErrResetUnavailable)
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.Issue(user.ID, auth.PurposeReset, s.ttl)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.SetResetToken(ctx, user.ID, token, s.now().Add(s.ttl)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if sendErr := s.sender.Send(ctx, mail.ResetPasswordMessage(user, token, s.appURL)); sendErr != nil {
		// Rollback must happen even if the request was cancelled.
		if err := s.store.ClearResetToken(context.WithoutCancel(ctx), user.ID); err != nil {
			return fmt.Errorf("%s: rollback after %v: %w", op, sendErr, err)
		}
		s.events.Record(ctx, user.ID, EventResetDelivery, LevelError, "Password reset email could not be sent")
		return fmt.Errorf("%s: %w: %v", op, ErrDeliveryFailed, sendErr)
	}

	s.events.Record(ctx, user.ID, EventResetRequested, LevelInfo, "Password reset requested")
	return nil
}

// CompleteReset sets a new password if token is the user's current, unexpired
// reset token. A token works at most once.
func (s *PasswordResetService) CompleteReset(ctx context.Context, token, newPassword string) error {
	const op = "services.PasswordResetService.CompleteReset"

	if token == "" || newPassword == "" {
		return invalid("Token and new password are required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	claims, err := s.tokens.Verify(token, auth.PurposeReset)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
	}

	user, err := s.store.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if !user.HasPendingReset(now) || *user.ResetToken != token {
		return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Conditional on the stored token, so concurrent completions succeed once.
	if err := s.store.ConsumeResetToken(ctx, user.ID, token, hash, now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.events.Record(ctx, user.ID, EventPasswordReset, LevelInfo, "Password reset completed")
	return nil
}

// WithdrawUndeliveredReset returns the callback the mailer runs when it drops
// a message for good. For a password reset it clears the token the message
// carried, unless a newer request has replaced it.
func WithdrawUndeliveredReset(store storage.UserStore, events EventServiceProvider) func(context.Context, models.Message) {
	return func(ctx context.Context, msg models.Message) {
		if msg.Kind != models.MessageKindPasswordReset || msg.UserID == "" {
			return
		}

		user, err := store.UserByID(ctx, msg.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", msg.UserID).Msg("Failed to load user for undelivered reset")
			return
		}
		if user.ResetToken == nil || *user.ResetToken != msg.ResetToken {
			return
		}
		if err := store.ClearResetToken(ctx, user.ID); err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to withdraw undelivered reset token")
			return
		}
		events.Record(ctx, user.ID, EventResetDelivery, LevelError, "Password reset email could not be sent")
	}
}
