package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/identity"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
)

// GoogleLoginProvider signs users in with a Google access token.
type GoogleLoginProvider interface {
	Login(ctx context.Context, accessToken string) (AuthResult, error)
}

// GoogleLoginService links or creates local accounts for Google identities.
type GoogleLoginService struct {
	store      storage.UserStore
	provider   identity.Provider
	tokens     *auth.TokenManager
	sessionTTL time.Duration
	events     EventServiceProvider
}

// NewGoogleLoginService creates a new GoogleLoginService.
func NewGoogleLoginService(store storage.UserStore, provider identity.Provider, tokens *auth.TokenManager, sessionTTL time.Duration, events EventServiceProvider) *GoogleLoginService {
	return &GoogleLoginService{
		store:      store,
		provider:   provider,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		events:     events,
	}
}

// Login exchanges accessToken with the provider before touching the store, so
// a failed exchange leaves no trace. The session issued is a local one.
func (s *GoogleLoginService) Login(ctx context.Context, accessToken string) (AuthResult, error) {
	const op = "services.GoogleLoginService.Login"

	if accessToken == "" {
		return AuthResult{}, invalid("Token is required")
	}

	ext, err := s.provider.Exchange(ctx, accessToken)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w: %v", op, ErrIdentityExchange, err)
	}

	user, err := s.store.UserByEmail(ctx, ext.Email)
	switch {
	case err == nil:
		user, err = s.link(ctx, user, ext)
	case errors.Is(err, storage.ErrNotFound):
		user, err = s.create(ctx, ext)
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.Issue(user.ID, auth.PurposeSession, s.sessionTTL)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return AuthResult{Token: token, User: user}, nil
}

func (s *GoogleLoginService) link(ctx context.Context, user models.User, ext models.ExternalIdentity) (models.User, error) {
	if user.GoogleID != nil {
		return user, nil
	}
	if err := s.store.LinkGoogleAccount(ctx, user.ID, ext.Subject); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// The Google account already belongs to a different local user.
			return models.User{}, ErrConflict
		}
		return models.User{}, err
	}
	s.events.Record(ctx, user.ID, EventGoogleLinked, LevelInfo, "Google account linked")
	return s.store.UserByID(ctx, user.ID)
}

func (s *GoogleLoginService) create(ctx context.Context, ext models.ExternalIdentity) (models.User, error) {
	hash, err := auth.PlaceholderHash()
	if err != nil {
		return models.User{}, err
	}
	subject := ext.Subject
	user, err := s.store.CreateUser(ctx, models.User{
		Name:         ext.Name,
		Email:        ext.Email,
		PasswordHash: hash,
		Budgets:      []models.Budget{},
		Verified:     true,
		GoogleID:     &subject,
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		// Lost a race with another signup for the same email.
		existing, lookupErr := s.store.UserByEmail(ctx, ext.Email)
		if lookupErr != nil {
			return models.User{}, ErrConflict
		}
		return s.link(ctx, existing, ext)
	}
	if err != nil {
		return models.User{}, err
	}
	s.events.Record(ctx, user.ID, EventGoogleSignup, LevelInfo, "Account created with Google")
	return user, nil
}
