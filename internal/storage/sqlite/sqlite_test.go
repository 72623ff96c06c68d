package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	store, err := New(":memory:")
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	s.store.Close(s.ctx)
}

func (s *StoreSuite) newUser(email string) models.User {
	u, err := s.store.CreateUser(s.ctx, models.User{Name: "Ada", Email: email, PasswordHash: "hash"})
	s.Require().NoError(err)
	return u
}

func (s *StoreSuite) TestCreateUserNormalizesEmail() {
	u := s.newUser("  Ada@Example.COM ")

	s.Equal("ada@example.com", u.Email)
	s.NotEmpty(u.ID)
	s.Equal([]models.Budget{}, u.Budgets)
	s.False(u.Verified)

	got, err := s.store.UserByEmail(s.ctx, "ADA@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
	s.Equal("hash", got.PasswordHash)
}

func (s *StoreSuite) TestCreateUserDuplicateEmail() {
	s.newUser("ada@example.com")

	_, err := s.store.CreateUser(s.ctx, models.User{Name: "Other", Email: "ADA@example.com", PasswordHash: "x"})
	s.ErrorIs(err, storage.ErrAlreadyExists)
}

func (s *StoreSuite) TestConcurrentCreateUserSingleWinner() {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.CreateUser(s.ctx, models.User{Name: "Racer", Email: "race@example.com", PasswordHash: "h"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(s.T(), err, storage.ErrAlreadyExists) {
				dups++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, ok)
	s.Equal(7, dups)
}

func (s *StoreSuite) TestUserNotFound() {
	_, err := s.store.UserByID(s.ctx, "missing")
	s.ErrorIs(err, storage.ErrNotFound)

	_, err = s.store.UserByEmail(s.ctx, "missing@example.com")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StoreSuite) TestUpdateProfileConflict() {
	a := s.newUser("a@example.com")
	s.newUser("b@example.com")

	_, err := s.store.UpdateProfile(s.ctx, a.ID, "A", "B@example.com")
	s.ErrorIs(err, storage.ErrAlreadyExists)

	updated, err := s.store.UpdateProfile(s.ctx, a.ID, "Alice", "alice@example.com")
	s.Require().NoError(err)
	s.Equal("Alice", updated.Name)
	s.Equal("alice@example.com", updated.Email)
}

func (s *StoreSuite) TestUpdateBudgets() {
	u := s.newUser("a@example.com")
	budgets := []models.Budget{{Category: "Food", Amount: 300}, {Category: "Rent", Amount: 1200}}

	got, err := s.store.UpdateBudgets(s.ctx, u.ID, budgets)
	s.Require().NoError(err)
	s.Equal(budgets, got)

	reloaded, err := s.store.UserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(budgets, reloaded.Budgets)

	_, err = s.store.UpdateBudgets(s.ctx, "missing", budgets)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StoreSuite) TestResetTokenLifecycle() {
	u := s.newUser("a@example.com")
	expires := time.Now().Add(time.Hour)

	s.Require().NoError(s.store.SetResetToken(s.ctx, u.ID, "tok-1", expires))
	got, err := s.store.UserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.ResetToken)
	s.Equal("tok-1", *got.ResetToken)
	s.True(got.HasPendingReset(time.Now()))

	s.ErrorIs(s.store.ConsumeResetToken(s.ctx, u.ID, "wrong", "new-hash", time.Now()), storage.ErrNotFound)

	changedAt := time.Now()
	s.Require().NoError(s.store.ConsumeResetToken(s.ctx, u.ID, "tok-1", "new-hash", changedAt))
	s.ErrorIs(s.store.ConsumeResetToken(s.ctx, u.ID, "tok-1", "newer-hash", time.Now()), storage.ErrNotFound)

	got, err = s.store.UserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("new-hash", got.PasswordHash)
	s.Nil(got.ResetToken)
	s.Nil(got.ResetTokenExpiresAt)
	s.Require().NotNil(got.PasswordChangedAt)
	s.WithinDuration(changedAt, *got.PasswordChangedAt, time.Millisecond)
}

func (s *StoreSuite) TestClearAndPurgeResetTokens() {
	a := s.newUser("a@example.com")
	b := s.newUser("b@example.com")
	now := time.Now()

	s.Require().NoError(s.store.SetResetToken(s.ctx, a.ID, "expired", now.Add(-time.Minute)))
	s.Require().NoError(s.store.SetResetToken(s.ctx, b.ID, "live", now.Add(time.Hour)))

	n, err := s.store.PurgeExpiredResetTokens(s.ctx, now)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	got, err := s.store.UserByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.NotNil(got.ResetToken)

	s.Require().NoError(s.store.ClearResetToken(s.ctx, b.ID))
	got, err = s.store.UserByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Nil(got.ResetToken)
	s.Nil(got.ResetTokenExpiresAt)
}

func (s *StoreSuite) TestLinkGoogleAccountIdempotent() {
	u := s.newUser("a@example.com")

	s.Require().NoError(s.store.LinkGoogleAccount(s.ctx, u.ID, "google-1"))
	s.Require().NoError(s.store.LinkGoogleAccount(s.ctx, u.ID, "google-2"))

	got, err := s.store.UserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.GoogleID)
	s.Equal("google-1", *got.GoogleID)

	s.ErrorIs(s.store.LinkGoogleAccount(s.ctx, "missing", "google-3"), storage.ErrNotFound)
}

func (s *StoreSuite) TestTransactions() {
	u := s.newUser("a@example.com")
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	older, err := s.store.CreateTransaction(s.ctx, models.Transaction{UserID: u.ID, Type: models.TransactionExpense, Amount: 12.5, Date: day, Category: "Food"})
	s.Require().NoError(err)
	newer, err := s.store.CreateTransaction(s.ctx, models.Transaction{UserID: u.ID, Type: models.TransactionIncome, Amount: 1000, Date: day.AddDate(0, 0, 1), Category: "Salary", Description: "March"})
	s.Require().NoError(err)

	list, err := s.store.ListTransactions(s.ctx, u.ID, 0)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID, list[0].ID)
	s.Equal(older.ID, list[1].ID)
	s.Equal(models.TransactionIncome, list[0].Type)
	s.Equal("March", list[0].Description)

	limited, err := s.store.ListTransactions(s.ctx, u.ID, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)

	got, err := s.store.TransactionByID(s.ctx, older.ID)
	s.Require().NoError(err)
	s.Equal(u.ID, got.UserID)
	s.True(day.Equal(got.Date))

	s.Require().NoError(s.store.DeleteTransaction(s.ctx, older.ID))
	s.ErrorIs(s.store.DeleteTransaction(s.ctx, older.ID), storage.ErrNotFound)
	_, err = s.store.TransactionByID(s.ctx, older.ID)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StoreSuite) TestNotes() {
	u := s.newUser("a@example.com")

	first, err := s.store.CreateNote(s.ctx, models.Note{UserID: u.ID, Title: "First", Color: models.DefaultNoteColor})
	s.Require().NoError(err)
	s.Equal([]string{}, first.Tags)
	second, err := s.store.CreateNote(s.ctx, models.Note{UserID: u.ID, Title: "Second", Tags: []string{"tax"}, Color: "#fff"})
	s.Require().NoError(err)

	first.IsPinned = true
	first.Tags = []string{"pinned", "todo"}
	updated, err := s.store.UpdateNote(s.ctx, first)
	s.Require().NoError(err)
	s.True(updated.IsPinned)
	s.Equal([]string{"pinned", "todo"}, updated.Tags)

	list, err := s.store.ListNotes(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal(second.ID, list[1].ID)

	s.Require().NoError(s.store.DeleteNote(s.ctx, second.ID))
	_, err = s.store.NoteByID(s.ctx, second.ID)
	s.ErrorIs(err, storage.ErrNotFound)

	_, err = s.store.UpdateNote(s.ctx, models.Note{ID: "missing"})
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StoreSuite) TestEvents() {
	now := time.Now()
	s.Require().NoError(s.store.CreateEvent(s.ctx, models.Event{UserID: "u1", Type: "auth.login", Level: "info", Message: "old", CreatedAt: now.Add(-48 * time.Hour)}))
	s.Require().NoError(s.store.CreateEvent(s.ctx, models.Event{UserID: "u1", Type: "auth.login", Level: "info", Message: "new", CreatedAt: now}))
	s.Require().NoError(s.store.CreateEvent(s.ctx, models.Event{UserID: "u2", Type: "auth.login", Level: "info", Message: "other"}))

	events, err := s.store.ListEvents(s.ctx, "u1", 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("new", events[0].Message)

	n, err := s.store.PruneEvents(s.ctx, now.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.EqualValues(1, n)

	events, err = s.store.ListEvents(s.ctx, "u1", 0)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func TestNewRejectsBadPath(t *testing.T) {
	_, err := New("/nonexistent-dir/sub/finance.db")
	require.Error(t, err)
}
