// Package trivia runs music-trivia games: the round lifecycle, answer
// scoring with hints, and battle-royale elimination.
package trivia

import (
	"context"
	"time"

	"github.com/google/uuid"

	"music-round/internal/hints"
	"music-round/internal/logging"
)

type Options struct {
	Store   Store
	Jobs    JobScheduler
	Tracks  TrackSource
	Catalog Catalog
	Events  EventRecorder

	// InitialBattleRoyaleRounds is how many rounds a battle royale creates
	// up front; later rounds are created on demand.
	InitialBattleRoyaleRounds int

	Now      func() time.Time
	Rand     hints.Intn
	OnChange func(gameID string)
}

type Engine struct {
	store    Store
	jobs     JobScheduler
	tracks   TrackSource
	catalog  Catalog
	events   EventRecorder
	now      func() time.Time
	rand     hints.Intn
	onChange func(gameID string)

	initialBattleRoyaleRounds int
}

const defaultInitialBattleRoyaleRounds = 10

func NewEngine(opts Options) *Engine {
	e := &Engine{
		store:    opts.Store,
		jobs:     opts.Jobs,
		tracks:   opts.Tracks,
		catalog:  opts.Catalog,
		events:   opts.Events,
		now:      opts.Now,
		rand:     opts.Rand,
		onChange: opts.OnChange,

		initialBattleRoyaleRounds: opts.InitialBattleRoyaleRounds,
	}
	if e.store == nil {
		e.store = NewMemoryStore()
	}
	if e.tracks == nil {
		e.tracks = NewMemoryLibrary(nil)
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.rand == nil {
		e.rand = hints.FastIntn
	}
	if e.initialBattleRoyaleRounds <= 0 {
		e.initialBattleRoyaleRounds = defaultInitialBattleRoyaleRounds
	}
	return e
}

func (e *Engine) Store() Store {
	return e.store
}

// SetOnChange replaces the change hook. It must be called before the engine
// serves requests.
func (e *Engine) SetOnChange(fn func(gameID string)) {
	e.onChange = fn
}

func (e *Engine) notify(gameID string) {
	if e.onChange != nil && gameID != "" {
		e.onChange(gameID)
	}
}

func (e *Engine) record(ctx context.Context, event Event) {
	if e.events == nil {
		return
	}
	if event.At.IsZero() {
		event.At = e.now()
	}
	if err := e.events.Record(ctx, event); err != nil {
		logging.FromContext(ctx).Warnw("failed to record event", "type", event.Type, "game_id", event.GameID, "error", err)
	}
}

func newID() string {
	return uuid.NewString()
}
