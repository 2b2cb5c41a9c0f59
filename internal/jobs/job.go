// Package jobs is the delayed-job facility behind the round scheduler. Jobs
// fire once at a given time with at-least-once delivery; handlers are
// expected to be idempotent.
package jobs

import (
	"context"
	"errors"
	"time"
)

type Kind string

const (
	KindActivateRound Kind = "round.activate"
	KindEndRound      Kind = "round.end"
	KindCreateRound   Kind = "round.create"
)

type Job struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	GameID      string    `json:"game_id,omitempty"`
	RoundID     string    `json:"round_id,omitempty"`
	RoundNumber int       `json:"round_number,omitempty"`
	RunAt       time.Time `json:"run_at"`
	// Attempt counts failed runs so far.
	Attempt     int       `json:"attempt,omitempty"`
}

// Handler runs a due job.
type Handler func(ctx context.Context, job Job) error

// Journal keeps jobs that have been scheduled but not yet run so they can be
// replayed after a restart.
type Journal interface {
	Save(job Job) error
	Delete(id string) error
	Pending() ([]Job, error)
}

var ErrNoHandler = errors.New("job handler not registered")

// NopJournal forgets everything.
type NopJournal struct{}

func (NopJournal) Save(Job) error          { return nil }
func (NopJournal) Delete(string) error     { return nil }
func (NopJournal) Pending() ([]Job, error) { return nil, nil }
