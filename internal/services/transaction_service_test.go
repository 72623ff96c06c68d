package services

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	ws "github.com/isdelr/finance-tracker-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, svc *UserService) (string, string) {
	t.Helper()
	a, err := svc.Signup(context.Background(), "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	b, err := svc.Signup(context.Background(), "Bob", "bob@example.com", "secret1")
	require.NoError(t, err)
	return a.User.ID, b.User.ID
}

func TestTransactionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := &recordingNotifier{}
	users := NewUserService(store, newTestTokens(), testSessionTTL, NewEventService(store), nil)
	ada, bob := seedUsers(t, users)
	svc := NewTransactionService(store, notifier)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tx, err := svc.Create(ctx, ada, models.Transaction{Type: models.TransactionExpense, Amount: 42, Date: day, Category: " Food ", UserID: bob})
	require.NoError(t, err)
	assert.Equal(t, ada, tx.UserID, "owner comes from the session, not the payload")
	assert.Equal(t, "Food", tx.Category)

	list, err := svc.List(ctx, ada)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	other, err := svc.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, other)

	assert.ErrorIs(t, svc.Delete(ctx, bob, tx.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, ada, "missing"), storage.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, ada, tx.ID))

	assert.Equal(t, []string{ws.ActionTransactionCreated, ws.ActionTransactionDeleted}, notifier.actions)
}

func TestTransactionValidation(t *testing.T) {
	svc := NewTransactionService(newTestStore(t), nil)
	day := time.Now()

	cases := []models.Transaction{
		{Type: "transfer", Amount: 1, Date: day, Category: "x"},
		{Type: models.TransactionIncome, Amount: 0, Date: day, Category: "x"},
		{Type: models.TransactionIncome, Amount: -5, Date: day, Category: "x"},
		{Type: models.TransactionIncome, Amount: 5, Category: "x"},
		{Type: models.TransactionIncome, Amount: 5, Date: day, Category: "  "},
	}
	for _, c := range cases {
		_, err := svc.Create(context.Background(), "u1", c)
		assert.ErrorIs(t, err, ErrValidation, "%+v", c)
	}
}
