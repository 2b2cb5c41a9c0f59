package trivia

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"music-round/internal/catalog"
	"music-round/internal/jobs"
)

var testStart = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

var testTracks = []Track{
	{ID: "t1", Artist: "The Beatles", Title: "Let It Be"},
	{ID: "t2", Artist: "Queen", Title: "Bohemian Rhapsody"},
	{ID: "t3", Artist: "AC/DC", Title: "Back in Black"},
	{ID: "t4", Artist: "Beyoncé", Title: "Halo"},
	{ID: "t5", Artist: "Daft Punk", Title: "One More Time"},
	{ID: "t6", Artist: "Nirvana", Title: "Lithium"},
}

type testEnv struct {
	engine  *Engine
	queue   *jobs.ManualQueue
	store   *MemoryStore
	library *MemoryLibrary
	events  *eventLog
}

type testOption func(*Options)

func withCatalog(c Catalog) testOption {
	return func(o *Options) { o.Catalog = c }
}

func withStore(wrap func(Store) Store) testOption {
	return func(o *Options) { o.Store = wrap(o.Store) }
}

func withJobs(wrap func(JobScheduler) JobScheduler) testOption {
	return func(o *Options) { o.Jobs = wrap(o.Jobs) }
}

func withInitialBattleRoyaleRounds(n int) testOption {
	return func(o *Options) { o.InitialBattleRoyaleRounds = n }
}

func newTestEnv(t *testing.T, tracks []Track, opts ...testOption) *testEnv {
	t.Helper()
	queue := jobs.NewManualQueue(testStart)
	store := NewMemoryStore()
	library := NewMemoryLibrary(tracks)
	events := &eventLog{}
	var counter atomic.Int64
	options := Options{
		Store:  store,
		Jobs:   queue,
		Tracks: library,
		Events: events,
		Now:    queue.Now,
		Rand: func(n int) int {
			return int(counter.Add(1)) % n
		},
	}
	for _, opt := range opts {
		opt(&options)
	}
	engine := NewEngine(options)
	queue.SetHandler(engine.HandleJob)
	return &testEnv{engine: engine, queue: queue, store: store, library: library, events: events}
}

// startedGame creates a game with a host and the named guests and starts
// it. Round 0 is left in preparing.
func (env *testEnv) startedGame(t *testing.T, mode Mode, settings SettingsInput, guests ...string) (*Game, []*Player) {
	t.Helper()
	ctx := context.Background()
	game, host, err := env.engine.CreateGame(ctx, CreateGameRequest{HostName: "Host", Mode: mode, Settings: settings})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	players := []*Player{host}
	for _, name := range guests {
		_, player, err := env.engine.JoinGame(ctx, game.JoinCode, name)
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		players = append(players, player)
	}
	game, err = env.engine.StartGame(ctx, game.ID, host.ID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	return game, players
}

func (env *testEnv) advance(t *testing.T, d time.Duration) {
	t.Helper()
	if err := env.queue.Advance(context.Background(), d); err != nil {
		t.Fatalf("advance %s: %v", d, err)
	}
}

func (env *testEnv) round(t *testing.T, gameID string, number int) *Round {
	t.Helper()
	round, err := env.store.FindRound(context.Background(), gameID, number)
	if err != nil {
		t.Fatalf("find round %d: %v", number, err)
	}
	return round
}

func (env *testEnv) game(t *testing.T, id string) *Game {
	t.Helper()
	game, err := env.store.GetGame(context.Background(), id)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	return game
}

func (env *testEnv) player(t *testing.T, id string) *Player {
	t.Helper()
	player, err := env.store.GetPlayer(context.Background(), id)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	return player
}

func intPtr(v int) *int {
	return &v
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Record(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *eventLog) count(eventType string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, event := range l.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

type fakeCatalog struct {
	err error
}

func (c fakeCatalog) Lookup(_ context.Context, artist, title string) (catalog.Track, error) {
	if c.err != nil {
		return catalog.Track{}, c.err
	}
	return catalog.Track{
		ID:          "cat-" + title,
		Artist:      artist,
		Title:       title,
		PreviewURL:  "https://audio.example/" + title + ".m4a",
		ArtworkURL:  "https://art.example/" + title + ".jpg",
		ReleaseYear: 1970,
	}, nil
}

var errTransient = errors.New("transient")

type failPlan struct {
	skip int
	fail int
}

// flakyStore fails chosen store calls with errTransient.
type flakyStore struct {
	Store

	mu    sync.Mutex
	plans map[string]*failPlan
}

func newFlakyStore() *flakyStore {
	return &flakyStore{plans: make(map[string]*failPlan)}
}

// failAfter lets skip calls to method through and fails the next fail calls.
func (s *flakyStore) failAfter(method string, skip, fail int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[method] = &failPlan{skip: skip, fail: fail}
}

func (s *flakyStore) check(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan := s.plans[method]
	switch {
	case plan == nil:
		return nil
	case plan.skip > 0:
		plan.skip--
		return nil
	case plan.fail > 0:
		plan.fail--
		return errTransient
	}
	return nil
}

func (s *flakyStore) wrap(inner Store) Store {
	s.Store = inner
	return s
}

func (s *flakyStore) UpdateGame(ctx context.Context, id string, fn func(*Game) error) (*Game, error) {
	if err := s.check("UpdateGame"); err != nil {
		return nil, err
	}
	return s.Store.UpdateGame(ctx, id, fn)
}

func (s *flakyStore) ListPlayers(ctx context.Context, gameID string) ([]*Player, error) {
	if err := s.check("ListPlayers"); err != nil {
		return nil, err
	}
	return s.Store.ListPlayers(ctx, gameID)
}

func (s *flakyStore) InsertRound(ctx context.Context, round *Round) error {
	if err := s.check("InsertRound"); err != nil {
		return err
	}
	return s.Store.InsertRound(ctx, round)
}

func (s *flakyStore) FindRound(ctx context.Context, gameID string, number int) (*Round, error) {
	if err := s.check("FindRound"); err != nil {
		return nil, err
	}
	return s.Store.FindRound(ctx, gameID, number)
}

func (s *flakyStore) ListAnswers(ctx context.Context, roundID string) ([]*Answer, error) {
	if err := s.check("ListAnswers"); err != nil {
		return nil, err
	}
	return s.Store.ListAnswers(ctx, roundID)
}

// flakyJobs fails the next failures calls to ScheduleAt.
type flakyJobs struct {
	JobScheduler

	mu       sync.Mutex
	failures int
}

func (j *flakyJobs) wrap(inner JobScheduler) JobScheduler {
	j.JobScheduler = inner
	return j
}

func (j *flakyJobs) failNext(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failures = n
}

func (j *flakyJobs) ScheduleAt(ctx context.Context, at time.Time, job jobs.Job) error {
	j.mu.Lock()
	fail := j.failures > 0
	if fail {
		j.failures--
	}
	j.mu.Unlock()
	if fail {
		return errTransient
	}
	return j.JobScheduler.ScheduleAt(ctx, at, job)
}
