package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ManualQueue is a fake clock and job queue. Nothing runs until Advance moves
// the clock past a job's due time, which makes scheduler behavior
// deterministic in tests and simulations.
type ManualQueue struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []Job
	handler Handler
}

func NewManualQueue(start time.Time) *ManualQueue {
	return &ManualQueue{now: start.UTC()}
}

func (q *ManualQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = handler
}

// Now is the fake clock's current time.
func (q *ManualQueue) Now() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.now
}

func (q *ManualQueue) ScheduleAt(_ context.Context, at time.Time, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", q.seq)
	}
	job.RunAt = at.UTC()
	q.pending = append(q.pending, job)
	return nil
}

// Pending returns the jobs not yet run, earliest first.
func (q *ManualQueue) Pending() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, len(q.pending))
	copy(out, q.pending)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RunAt.Before(out[j].RunAt)
	})
	return out
}

// Advance moves the clock forward by d, running every job that falls due on
// the way in time order. Jobs scheduled by handlers run too if they are due
// before the new time. The first handler error is returned after the clock
// has reached its target.
func (q *ManualQueue) Advance(ctx context.Context, d time.Duration) error {
	q.mu.Lock()
	target := q.now.Add(d)
	q.mu.Unlock()

	var firstErr error
	for {
		job, handler, ok := q.popDue(target)
		if !ok {
			break
		}
		if handler == nil {
			return ErrNoHandler
		}
		if err := handler(ctx, job); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	q.mu.Lock()
	if q.now.Before(target) {
		q.now = target
	}
	q.mu.Unlock()
	return firstErr
}

// RunDue runs the jobs already due without moving the clock.
func (q *ManualQueue) RunDue(ctx context.Context) error {
	return q.Advance(ctx, 0)
}

// Redeliver runs job again, as an at-least-once queue may do.
func (q *ManualQueue) Redeliver(ctx context.Context, job Job) error {
	q.mu.Lock()
	handler := q.handler
	q.mu.Unlock()
	if handler == nil {
		return ErrNoHandler
	}
	return handler(ctx, job)
}

func (q *ManualQueue) popDue(target time.Time) (Job, Handler, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := -1
	for i, job := range q.pending {
		if job.RunAt.After(target) {
			continue
		}
		if idx < 0 || job.RunAt.Before(q.pending[idx].RunAt) {
			idx = i
		}
	}
	if idx < 0 {
		return Job{}, nil, false
	}
	job := q.pending[idx]
	q.pending = append(q.pending[:idx], q.pending[idx+1:]...)
	if job.RunAt.After(q.now) {
		q.now = job.RunAt
	}
	return job, q.handler, true
}
