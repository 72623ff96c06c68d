package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	ws "github.com/isdelr/finance-tracker-be/internal/websocket"
)

// MinPasswordLength is the shortest password accepted at signup and reset.
const MinPasswordLength = 6

// AuthResult is a freshly issued session for a user.
type AuthResult struct {
	Token string
	User  models.User
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Signup(ctx context.Context, name, email, password string) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	CurrentUser(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (models.User, error)
	Budgets(ctx context.Context, id string) ([]models.Budget, error)
	UpdateBudgets(ctx context.Context, id string, budgets []models.Budget) ([]models.Budget, error)
	SessionValid(ctx context.Context, claims *auth.Claims) (bool, error)
}

// UserService provides business logic for accounts and sessions.
type UserService struct {
	store      storage.UserStore
	tokens     *auth.TokenManager
	sessionTTL time.Duration
	events     EventServiceProvider
	notifier   Notifier
}

var _ auth.SessionChecker = (*UserService)(nil)

// NewUserService creates a new UserService.
func NewUserService(store storage.UserStore, tokens *auth.TokenManager, sessionTTL time.Duration, events EventServiceProvider, notifier Notifier) *UserService {
	return &UserService{
		store:      store,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		events:     events,
		notifier:   notifierOrNop(notifier),
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming spends the same bcrypt work as a real comparison so unknown
// emails cannot be told apart by response time.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("timing-equalizer")
	})
	auth.CheckPassword(password, dummyHash)
}

func validateCredentials(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return invalid("All fields are required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return invalid("A valid email is required")
	}
	return validatePassword(password)
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalid(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return invalid(fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}

// hashPassword reports an over-long password as invalid input.
func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", invalid(fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return hash, err
}

// Signup creates an unverified account and issues a session token.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (AuthResult, error) {
	const op = "services.UserService.Signup"

	name = strings.TrimSpace(name)
	email = storage.NormalizeEmail(email)
	if err := validateCredentials(name, email, password); err != nil {
		return AuthResult{}, err
	}

	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, ErrConflict)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.store.CreateUser(ctx, models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Budgets:      []models.Budget{},
	})
	if err != nil {
		// The unique index catches a concurrent signup that passed the pre-check.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return AuthResult{}, fmt.Errorf("%s: %w", op, ErrConflict)
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.events.Record(ctx, user.ID, EventSignup, LevelInfo, "Account created")
	return s.session(user)
}

// Login verifies credentials. Unknown emails and wrong passwords fail alike.
func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	const op = "services.UserService.Login"

	if strings.TrimSpace(email) == "" || password == "" {
		return AuthResult{}, invalid("Email & password required")
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			equalizeTiming(password)
			return AuthResult{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		s.events.Record(ctx, user.ID, EventLoginFailed, LevelWarn, "Login failed: wrong password")
		return AuthResult{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	s.events.Record(ctx, user.ID, EventLogin, LevelInfo, "Logged in")
	return s.session(user)
}

func (s *UserService) session(user models.User) (AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, auth.PurposeSession, s.sessionTTL)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user}, nil
}

// CurrentUser retrieves the authenticated user.
func (s *UserService) CurrentUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("services.UserService.CurrentUser: %w", err)
	}
	return user, nil
}

// UpdateProfile changes name and email, keeping emails unique.
func (s *UserService) UpdateProfile(ctx context.Context, id, name, email string) (models.User, error) {
	const op = "services.UserService.UpdateProfile"

	name = strings.TrimSpace(name)
	email = storage.NormalizeEmail(email)
	if name == "" || email == "" {
		return models.User{}, invalid("Name and email are required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return models.User{}, invalid("A valid email is required")
	}

	current, err := s.store.UserByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if email != current.Email {
		other, err := s.store.UserByEmail(ctx, email)
		switch {
		case err == nil && other.ID != id:
			return models.User{}, fmt.Errorf("%s: %w", op, ErrConflict)
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return models.User{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	user, err := s.store.UpdateProfile(ctx, id, name, email)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrConflict)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.events.Record(ctx, id, EventProfileUpdated, LevelInfo, "Profile updated")
	return user, nil
}

// Budgets returns the user's budget list.
func (s *UserService) Budgets(ctx context.Context, id string) ([]models.Budget, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("services.UserService.Budgets: %w", err)
	}
	if user.Budgets == nil {
		return []models.Budget{}, nil
	}
	return user.Budgets, nil
}

// UpdateBudgets replaces the whole budget list.
func (s *UserService) UpdateBudgets(ctx context.Context, id string, budgets []models.Budget) ([]models.Budget, error) {
	const op = "services.UserService.UpdateBudgets"

	cleaned := make([]models.Budget, 0, len(budgets))
	seen := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		category := strings.TrimSpace(b.Category)
		if category == "" {
			return nil, invalid("Every budget needs a category")
		}
		if b.Amount < 0 || math.IsNaN(b.Amount) || math.IsInf(b.Amount, 0) {
			return nil, invalid(fmt.Sprintf("Budget for %s must be a non-negative amount", category))
		}
		key := strings.ToLower(category)
		if seen[key] {
			return nil, invalid(fmt.Sprintf("Duplicate budget category: %s", category))
		}
		seen[key] = true
		cleaned = append(cleaned, models.Budget{Category: category, Amount: b.Amount})
	}

	saved, err := s.store.UpdateBudgets(ctx, id, cleaned)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.events.Record(ctx, id, EventBudgetsUpdated, LevelInfo, fmt.Sprintf("Budgets updated (%d categories)", len(saved)))
	s.notifier.Notify(id, ws.ActionBudgetsUpdated, saved)
	return saved, nil
}

// SessionValid rejects sessions issued before the last password change.
// Unknown users pass so the handler can answer 404 itself.
func (s *UserService) SessionValid(ctx context.Context, claims *auth.Claims) (bool, error) {
	user, err := s.store.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("services.UserService.SessionValid: %w", err)
	}
	if user.PasswordChangedAt == nil {
		return true, nil
	}
	if claims.IssuedAt == nil {
		return false, nil
	}
	// Tokens carry millisecond issue times; one minted within the millisecond
	// of the change counts as older.
	changed := user.PasswordChangedAt.Truncate(time.Millisecond)
	return claims.IssuedAt.Time.After(changed), nil
}
