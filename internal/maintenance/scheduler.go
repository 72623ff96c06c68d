// Package maintenance runs periodic cleanup of expired account state.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/storage"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Task is a unit of cleanup work. It returns how many records it touched.
type Task func(ctx context.Context, now time.Time) (int64, error)

type job struct {
	name     string
	schedule cron.Schedule
	task     Task
	next     time.Time
}

// Scheduler checks for and executes due maintenance jobs.
type Scheduler struct {
	mu       sync.Mutex
	jobs     []*job
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler that checks for due jobs every interval.
func NewScheduler(interval time.Duration) *Scheduler {
	return &Scheduler{
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Add registers task under a standard five-field cron expression.
func (s *Scheduler) Add(name, spec string, task Task) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("maintenance: invalid schedule %q for %s: %w", spec, name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &job{name: name, schedule: schedule, task: task, next: schedule.Next(s.now())})
	return nil
}

// Run starts the scheduler's ticking loop and blocks until Stop is called.
func (s *Scheduler) Run() {
	log.Info().Int("jobs", len(s.jobs)).Msg("Starting maintenance scheduler")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping maintenance scheduler")
			return
		case <-ticker.C:
			s.RunDue(context.Background())
		}
	}
}

// Stop halts the scheduler. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// RunDue executes every job whose next run time has passed and reports how
// many ran.
func (s *Scheduler) RunDue(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ran := 0
	for _, j := range s.jobs {
		if now.Before(j.next) {
			continue
		}
		j.next = j.schedule.Next(now)
		ran++

		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		n, err := j.task(jobCtx, now)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("job", j.name).Msg("Maintenance job failed")
			continue
		}
		log.Info().Str("job", j.name).Int64("affected", n).Time("next_run", j.next).Msg("Maintenance job finished")
	}
	return ran
}

// PurgeResetTokens clears reset tokens whose expiry has passed.
func PurgeResetTokens(store storage.UserStore) Task {
	return func(ctx context.Context, now time.Time) (int64, error) {
		return store.PurgeExpiredResetTokens(ctx, now)
	}
}

// PruneEvents deletes audit events older than retention.
func PruneEvents(store storage.EventStore, retention time.Duration) Task {
	return func(ctx context.Context, now time.Time) (int64, error) {
		return store.PruneEvents(ctx, now.Add(-retention))
	}
}
