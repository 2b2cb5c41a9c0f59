package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"music-round/internal/logging"

	"github.com/google/uuid"
)

const (
	DefaultRetryDelay    = time.Second
	DefaultMaxRetryDelay = time.Minute
	DefaultMaxAttempts   = 8
)

// TimerQueue fires jobs from in-process timers and records them in a Journal
// until they have run. A job whose handler fails stays journaled and is
// retried with exponential backoff.
type TimerQueue struct {
	journal Journal

	retryDelay    time.Duration
	maxRetryDelay time.Duration
	maxAttempts   int

	mu      sync.Mutex
	ctx     context.Context
	handler Handler
	timers  map[string]*time.Timer
	stopped bool
}

func NewTimerQueue(journal Journal) *TimerQueue {
	if journal == nil {
		journal = NopJournal{}
	}
	return &TimerQueue{
		journal:       journal,
		retryDelay:    DefaultRetryDelay,
		maxRetryDelay: DefaultMaxRetryDelay,
		maxAttempts:   DefaultMaxAttempts,
		timers:        make(map[string]*time.Timer),
	}
}

// WithRetry sets the first retry delay, its cap, and how many runs a job
// gets before it is dropped.
func (q *TimerQueue) WithRetry(delay, maxDelay time.Duration, attempts int) *TimerQueue {
	q.retryDelay = delay
	q.maxRetryDelay = max(maxDelay, delay)
	q.maxAttempts = max(attempts, 1)
	return q
}

// Start registers the handler and re-arms every job left in the journal.
// Overdue jobs fire right away.
func (q *TimerQueue) Start(ctx context.Context, handler Handler) error {
	if handler == nil {
		return ErrNoHandler
	}
	q.mu.Lock()
	q.ctx = ctx
	q.handler = handler
	q.stopped = false
	q.mu.Unlock()

	pending, err := q.journal.Pending()
	if err != nil {
		return fmt.Errorf("load pending jobs: %w", err)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RunAt.Before(pending[j].RunAt)
	})
	if len(pending) > 0 {
		logging.FromContext(ctx).Infow("replaying pending jobs", "count", len(pending))
	}
	for _, job := range pending {
		q.arm(job)
	}
	return nil
}

// ScheduleAt arranges for job to run at the given time.
func (q *TimerQueue) ScheduleAt(ctx context.Context, at time.Time, job Job) error {
	q.mu.Lock()
	ready := q.handler != nil && !q.stopped
	q.mu.Unlock()
	if !ready {
		return ErrNoHandler
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.RunAt = at.UTC()
	if err := q.journal.Save(job); err != nil {
		return fmt.Errorf("journal job: %w", err)
	}
	logging.FromContext(ctx).Debugw("job scheduled", "job_id", job.ID, "kind", job.Kind, "round_id", job.RoundID, "run_at", job.RunAt)
	q.arm(job)
	return nil
}

// Stop cancels the in-process timers. Journaled jobs stay pending and are
// replayed by the next Start.
func (q *TimerQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
}

// Len reports how many jobs are armed.
func (q *TimerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

func (q *TimerQueue) arm(job Job) {
	delay := time.Until(job.RunAt)
	if delay < 0 {
		delay = 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	if existing, ok := q.timers[job.ID]; ok {
		existing.Stop()
	}
	q.timers[job.ID] = time.AfterFunc(delay, func() {
		q.fire(job)
	})
}

func (q *TimerQueue) fire(job Job) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	delete(q.timers, job.ID)
	ctx := q.ctx
	handler := q.handler
	q.mu.Unlock()

	logger := logging.FromContext(ctx)
	if err := handler(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			// Shutting down; leave it journaled for the next start.
			return
		}
		if q.retry(ctx, job, err) {
			return
		}
	}
	if err := q.journal.Delete(job.ID); err != nil {
		logger.Warnw("job journal delete failed", "job_id", job.ID, "error", err)
	}
}

// retry re-arms a failed job and reports whether it will run again.
func (q *TimerQueue) retry(ctx context.Context, job Job, cause error) bool {
	logger := logging.FromContext(ctx).With("job_id", job.ID, "kind", job.Kind, "round_id", job.RoundID)
	if job.Attempt+1 >= q.maxAttempts {
		logger.Errorw("job failed, giving up", "attempts", job.Attempt+1, "error", cause)
		return false
	}
	delay := q.backoff(job.Attempt)
	job.Attempt++
	job.RunAt = time.Now().Add(delay).UTC()
	if err := q.journal.Save(job); err != nil {
		logger.Warnw("job journal update failed", "error", err)
	}
	logger.Warnw("job failed, retrying", "attempt", job.Attempt, "retry_in", delay, "error", cause)
	q.arm(job)
	return true
}

func (q *TimerQueue) backoff(attempt int) time.Duration {
	delay := q.retryDelay
	for i := 0; i < attempt && delay < q.maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, q.maxRetryDelay)
}
