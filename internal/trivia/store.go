package trivia

import (
	"context"
	"time"

	"music-round/internal/catalog"
	"music-round/internal/jobs"
)

// Store persists games and their children. Every UpdateX call is an atomic
// read-modify-write of one record: fn sees the current value and its
// changes are saved only when it returns nil.
type Store interface {
	InsertGame(ctx context.Context, game *Game) error
	GetGame(ctx context.Context, id string) (*Game, error)
	FindGameByJoinCode(ctx context.Context, code string) (*Game, error)
	UpdateGame(ctx context.Context, id string, fn func(*Game) error) (*Game, error)

	InsertPlayer(ctx context.Context, player *Player) error
	GetPlayer(ctx context.Context, id string) (*Player, error)
	ListPlayers(ctx context.Context, gameID string) ([]*Player, error)
	UpdatePlayer(ctx context.Context, id string, fn func(*Player) error) (*Player, error)

	InsertRound(ctx context.Context, round *Round) error
	GetRound(ctx context.Context, id string) (*Round, error)
	FindRound(ctx context.Context, gameID string, number int) (*Round, error)
	ListRounds(ctx context.Context, gameID string) ([]*Round, error)
	UpdateRound(ctx context.Context, id string, fn func(*Round) error) (*Round, error)

	GetAnswer(ctx context.Context, roundID, playerID string) (*Answer, error)
	ListAnswers(ctx context.Context, roundID string) ([]*Answer, error)
	// UpsertAnswer runs fn on the player's answer for the round, or on a
	// zero Answer with exists=false when there is none yet.
	UpsertAnswer(ctx context.Context, roundID, playerID string, fn func(answer *Answer, exists bool) error) (*Answer, error)
}

// JobScheduler runs delayed round transitions. Delivery is at least once.
type JobScheduler interface {
	ScheduleAt(ctx context.Context, at time.Time, job jobs.Job) error
}

// Catalog resolves library tracks to preview and artwork data.
type Catalog interface {
	Lookup(ctx context.Context, artist, title string) (catalog.Track, error)
}

// EventRecorder keeps the audit trail.
type EventRecorder interface {
	Record(ctx context.Context, event Event) error
}

type PickRequest struct {
	Playlist string
	Count    int
	// Seed makes the draw deterministic when non-zero.
	Seed    int64
	Exclude map[string]struct{}
}

// TrackSource draws songs for new rounds.
type TrackSource interface {
	Pick(ctx context.Context, req PickRequest) ([]Track, error)
}
