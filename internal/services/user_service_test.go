package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	"github.com/isdelr/finance-tracker-be/internal/storage/sqlite"
	ws "github.com/isdelr/finance-tracker-be/internal/websocket"
	"github.com/stretchr/testify/suite"
)

type UserServiceSuite struct {
	suite.Suite
	ctx      context.Context
	store    *sqlite.Store
	tokens   *auth.TokenManager
	notifier *recordingNotifier
	svc      *UserService
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newTestStore(s.T())
	s.tokens = newTestTokens()
	s.notifier = &recordingNotifier{}
	s.svc = NewUserService(s.store, s.tokens, testSessionTTL, NewEventService(s.store), s.notifier)
}

func (s *UserServiceSuite) TestSignup() {
	res, err := s.svc.Signup(s.ctx, " Ada ", "Ada@Example.com", "secret1")
	s.Require().NoError(err)

	s.Equal("Ada", res.User.Name)
	s.Equal("ada@example.com", res.User.Email)
	s.False(res.User.Verified)
	s.Empty(res.User.Budgets)
	s.NotEqual("secret1", res.User.PasswordHash)

	claims, err := s.tokens.Verify(res.Token, auth.PurposeSession)
	s.Require().NoError(err)
	s.Equal(res.User.ID, claims.UserID())
}

func (s *UserServiceSuite) TestSignupValidation() {
	cases := []struct{ name, email, password string }{
		{"", "a@example.com", "secret1"},
		{"Ada", "", "secret1"},
		{"Ada", "a@example.com", ""},
		{"Ada", "not-an-email", "secret1"},
		{"Ada", "a@example.com", "short"},
		{"Ada", "a@example.com", strings.Repeat("p", 80)},
	}
	for _, c := range cases {
		_, err := s.svc.Signup(s.ctx, c.name, c.email, c.password)
		s.ErrorIs(err, ErrValidation, "%+v", c)
	}
}

func (s *UserServiceSuite) TestSignupConflictIsCaseInsensitive() {
	_, err := s.svc.Signup(s.ctx, "Ada", "ada@example.com", "secret1")
	s.Require().NoError(err)

	_, err = s.svc.Signup(s.ctx, "Imposter", "ADA@EXAMPLE.COM", "secret2")
	s.ErrorIs(err, ErrConflict)
}

func (s *UserServiceSuite) TestConcurrentSignupSingleSuccess() {
	const n = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Signup(s.ctx, "Racer", "race@example.com", "secret1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if s.ErrorIs(err, ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(n-1, conflicts)
}

func (s *UserServiceSuite) TestLoginFailuresAreIndistinguishable() {
	_, err := s.svc.Signup(s.ctx, "Ada", "ada@example.com", "secret1")
	s.Require().NoError(err)

	_, wrongPassword := s.svc.Login(s.ctx, "ada@example.com", "wrong-pass")
	_, unknownEmail := s.svc.Login(s.ctx, "nobody@example.com", "secret1")

	s.ErrorIs(wrongPassword, ErrInvalidCredentials)
	s.ErrorIs(unknownEmail, ErrInvalidCredentials)
	s.Equal(wrongPassword.Error(), unknownEmail.Error())
}

func (s *UserServiceSuite) TestLoginSuccessRecordsEvents() {
	signup, err := s.svc.Signup(s.ctx, "Ada", "ada@example.com", "secret1")
	s.Require().NoError(err)

	_, err = s.svc.Login(s.ctx, "ada@example.com", "nope-nope")
	s.Require().Error(err)
	res, err := s.svc.Login(s.ctx, "ADA@example.com", "secret1")
	s.Require().NoError(err)
	s.Equal(signup.User.ID, res.User.ID)

	events, err := s.store.ListEvents(s.ctx, signup.User.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(EventLogin, events[0].Type)
	s.Equal(EventLoginFailed, events[1].Type)
	s.Equal(LevelWarn, events[1].Level)
}

func (s *UserServiceSuite) TestCurrentUserNotFound() {
	_, err := s.svc.CurrentUser(s.ctx, "missing")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *UserServiceSuite) TestUpdateProfile() {
	a, err := s.svc.Signup(s.ctx, "Ada", "ada@example.com", "secret1")
	s.Require().NoError(err)
	_, err = s.svc.Signup(s.ctx, "Bob", "bob@example.com", "secret1")
	s.Require().NoError(err)

	_, err = s.svc.UpdateProfile(s.ctx, a.User.ID, "Ada", "BOB@example.com")
	s.ErrorIs(err, ErrConflict)

	_, err = s.svc.UpdateProfile(s.ctx, a.User.ID, "", "ada@example.com")
	s.ErrorIs(err, ErrValidation)

	// Keeping one's own email is not a conflict.
	u, err := s.svc.UpdateProfile(s.ctx, a.User.ID, "Ada L.", "Ada@example.com")
	s.Require().NoError(err)
	s.Equal("Ada L.", u.Name)

	u, err = s.svc.UpdateProfile(s.ctx, a.User.ID, "Ada L.", "lovelace@example.com")
	s.Require().NoError(err)
	s.Equal("lovelace@example.com", u.Email)
}

func (s *UserServiceSuite) TestBudgets() {
	a, err := s.svc.Signup(s.ctx, "Ada", "ada@example.com", "secret1")
	s.Require().NoError(err)

	got, err := s.svc.Budgets(s.ctx, a.User.ID)
	s.Require().NoError(err)
	s.Empty(got)

	saved, err := s.svc.UpdateBudgets(s.ctx, a.User.ID, []models.Budget{{Category: " Food ", Amount: 200}, {Category: "Rent", Amount: 0}})
	s.Require().NoError(err)
	s.Equal([]models.Budget{{Category: "Food", Amount: 200}, {Category: "Rent", Amount: 0}}, saved)

	got, err = s.svc.Budgets(s.ctx, a.User.ID)
	s.Require().NoError(err)
	s.Equal(saved, got)
	s.Contains(s.notifier.actions, ws.ActionBudgetsUpdated)

	_, err = s.svc.UpdateBudgets(s.ctx, a.User.ID, []models.Budget{{Category: "Food", Amount: -1}})
	s.ErrorIs(err, ErrValidation)
	_, err = s.svc.UpdateBudgets(s.ctx, a.User.ID, []models.Budget{{Category: "", Amount: 1}})
	s.ErrorIs(err, ErrValidation)
	_, err = s.svc.UpdateBudgets(s.ctx, a.User.ID, []models.Budget{{Category: "Food", Amount: 1}, {Category: "food", Amount: 2}})
	s.ErrorIs(err, ErrValidation)

	cleared, err := s.svc.UpdateBudgets(s.ctx, a.User.ID, nil)
	s.Require().NoError(err)
	s.Empty(cleared)
}

func (s *UserServiceSuite) TestSessionValidAfterPasswordChange() {
	a, err := s.svc.Signup(s.ctx, "Ada", "ada@example.com", "secret1")
	s.Require().NoError(err)

	changedAt := time.Now().Truncate(time.Second)
	issuedBefore := &auth.Claims{}
	issuedBefore.Subject = a.User.ID
	issuedBefore.IssuedAt = jwtDate(changedAt.Add(-time.Minute))
	issuedSameSecond := &auth.Claims{}
	issuedSameSecond.Subject = a.User.ID
	issuedSameSecond.IssuedAt = jwtDate(changedAt.Add(100 * time.Millisecond))
	issuedAfter := &auth.Claims{}
	issuedAfter.Subject = a.User.ID
	issuedAfter.IssuedAt = jwtDate(changedAt.Add(400 * time.Millisecond))

	ok, err := s.svc.SessionValid(s.ctx, issuedBefore)
	s.Require().NoError(err)
	s.True(ok, "no password change yet")

	s.Require().NoError(s.store.SetResetToken(s.ctx, a.User.ID, "tok", changedAt.Add(time.Hour)))
	s.Require().NoError(s.store.ConsumeResetToken(s.ctx, a.User.ID, "tok", "new-hash", changedAt.Add(300*time.Millisecond)))

	ok, err = s.svc.SessionValid(s.ctx, issuedBefore)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.svc.SessionValid(s.ctx, issuedSameSecond)
	s.Require().NoError(err)
	s.False(ok, "issued earlier in the same second as the change")

	ok, err = s.svc.SessionValid(s.ctx, issuedAfter)
	s.Require().NoError(err)
	s.True(ok)

	unknown := &auth.Claims{}
	unknown.Subject = "missing"
	ok, err = s.svc.SessionValid(s.ctx, unknown)
	s.Require().NoError(err)
	s.True(ok)
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}
