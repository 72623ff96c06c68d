package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsDueJobs(t *testing.T) {
	clock := time.Date(2025, 3, 1, 12, 0, 30, 0, time.UTC)
	s := NewScheduler(time.Minute)
	s.now = func() time.Time { return clock }

	calls := 0
	require.NoError(t, s.Add("every-15", "*/15 * * * *", func(context.Context, time.Time) (int64, error) {
		calls++
		return 0, nil
	}))
	require.NoError(t, s.Add("failing", "*/15 * * * *", func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("boom")
	}))

	assert.Equal(t, 0, s.RunDue(context.Background()), "nothing due before 12:15")

	clock = clock.Add(15 * time.Minute)
	assert.Equal(t, 2, s.RunDue(context.Background()))
	assert.Equal(t, 1, calls)

	assert.Equal(t, 0, s.RunDue(context.Background()), "next run moved to 12:30")
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(time.Minute)
	assert.Error(t, s.Add("bad", "not a cron", nil))
}

func TestSchedulerStop(t *testing.T) {
	s := NewScheduler(time.Hour)
	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestCleanupTasks(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close(ctx)

	now := time.Now()
	u, err := store.CreateUser(ctx, models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	require.NoError(t, store.SetResetToken(ctx, u.ID, "tok", now.Add(-time.Minute)))
	require.NoError(t, store.CreateEvent(ctx, models.Event{UserID: u.ID, Type: "auth.login", Level: "info", Message: "old", CreatedAt: now.Add(-100 * 24 * time.Hour)}))
	require.NoError(t, store.CreateEvent(ctx, models.Event{UserID: u.ID, Type: "auth.login", Level: "info", Message: "new", CreatedAt: now}))

	n, err := PurgeResetTokens(store)(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = PruneEvents(store, 90*24*time.Hour)(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
