package trivia

import (
	"context"
	"errors"
	"testing"
	"time"

	"music-round/internal/jobs"
)

func TestRoundLifecycleFollowsSchedule(t *testing.T) {
	env := newTestEnv(t, testTracks)
	game, _ := env.startedGame(t, ModeStandard, SettingsInput{RoundCount: intPtr(2)})

	first := env.round(t, game.ID, 0)
	if first.Phase != PhasePreparing {
		t.Fatalf("expected round 0 preparing, got %q", first.Phase)
	}
	if !first.PreparingAt.Equal(testStart) {
		t.Fatalf("expected preparing at %s, got %s", testStart, first.PreparingAt)
	}

	env.advance(t, PrepareDuration-time.Millisecond)
	if phase := env.round(t, game.ID, 0).Phase; phase != PhasePreparing {
		t.Fatalf("expected still preparing just before the window closes, got %q", phase)
	}
	env.advance(t, time.Millisecond)
	first = env.round(t, game.ID, 0)
	if first.Phase != PhaseActive {
		t.Fatalf("expected round 0 active, got %q", first.Phase)
	}
	if want := testStart.Add(PrepareDuration); !first.ActiveAt.Equal(want) {
		t.Fatalf("expected active at %s, got %s", want, first.ActiveAt)
	}

	env.advance(t, 30*time.Second)
	first = env.round(t, game.ID, 0)
	if first.Phase != PhaseEnded {
		t.Fatalf("expected round 0 ended, got %q", first.Phase)
	}
	second := env.round(t, game.ID, 1)
	if second.Phase != PhasePreparing {
		t.Fatalf("expected round 1 preparing, got %q", second.Phase)
	}
	if got := env.game(t, game.ID).CurrentRound; got != 1 {
		t.Fatalf("expected current round 1, got %d", got)
	}

	env.advance(t, PrepareDuration+30*time.Second)
	if phase := env.round(t, game.ID, 1).Phase; phase != PhaseEnded {
		t.Fatalf("expected round 1 ended, got %q", phase)
	}
	finished := env.game(t, game.ID)
	if finished.Status != StatusFinished {
		t.Fatalf("expected game finished, got %q", finished.Status)
	}
	if pending := env.queue.Pending(); len(pending) != 0 {
		t.Fatalf("expected no pending jobs, got %d", len(pending))
	}
	if got := env.events.count(EventGameFinished); got != 1 {
		t.Fatalf("expected one game_finished event, got %d", got)
	}
}

func TestRoundDurationFollowsSettings(t *testing.T) {
	env := newTestEnv(t, testTracks)
	game, _ := env.startedGame(t, ModeStandard, SettingsInput{RoundCount: intPtr(1), SecondsPerRound: intPtr(10)})

	env.advance(t, PrepareDuration+10*time.Second-time.Millisecond)
	if phase := env.round(t, game.ID, 0).Phase; phase != PhaseActive {
		t.Fatalf("expected round active until its 10s are up, got %q", phase)
	}
	env.advance(t, time.Millisecond)
	if phase := env.round(t, game.ID, 0).Phase; phase != PhaseEnded {
		t.Fatalf("expected round ended, got %q", phase)
	}
}

func TestDuplicateTransitionsAreNoOps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testTracks)
	game, _ := env.startedGame(t, ModeStandard, SettingsInput{RoundCount: intPtr(3)})
	first := env.round(t, game.ID, 0)

	if err := env.engine.StartRound(ctx, first.ID); err != nil {
		t.Fatalf("restart round: %v", err)
	}
	if pending := env.queue.Pending(); len(pending) != 1 {
		t.Fatalf("expected a single activation job, got %d jobs", len(pending))
	}

	env.advance(t, PrepareDuration+5*time.Second)
	activeAt := env.round(t, game.ID, 0).ActiveAt
	activate := jobs.Job{Kind: jobs.KindActivateRound, GameID: game.ID, RoundID: first.ID}
	if err := env.queue.Redeliver(ctx, activate); err != nil {
		t.Fatalf("redeliver activation: %v", err)
	}
	round := env.round(t, game.ID, 0)
	if round.Phase != PhaseActive || !round.ActiveAt.Equal(activeAt) {
		t.Fatalf("expected activation unchanged, got phase %q at %s", round.Phase, round.ActiveAt)
	}
	if pending := env.queue.Pending(); len(pending) != 1 {
		t.Fatalf("expected only the original end job, got %d jobs", len(pending))
	}

	env.advance(t, 25*time.Second)
	end := jobs.Job{Kind: jobs.KindEndRound, GameID: game.ID, RoundID: first.ID}
	if err := env.queue.Redeliver(ctx, end); err != nil {
		t.Fatalf("redeliver end: %v", err)
	}
	if got := env.game(t, game.ID).CurrentRound; got != 1 {
		t.Fatalf("expected current round 1 after duplicate end, got %d", got)
	}
	if phase := env.round(t, game.ID, 2).Phase; phase != PhaseNone {
		t.Fatalf("expected round 2 untouched, got %q", phase)
	}
	if pending := env.queue.Pending(); len(pending) != 1 {
		t.Fatalf("expected one activation job for round 1, got %d jobs", len(pending))
	}

	// A late activation for an ended round must not reopen it.
	if err := env.queue.Redeliver(ctx, activate); err != nil {
		t.Fatalf("late activation: %v", err)
	}
	if phase := env.round(t, game.ID, 0).Phase; phase != PhaseEnded {
		t.Fatalf("expected round 0 to stay ended, got %q", phase)
	}
}

func TestRoundEndResumesAfterTransientFailure(t *testing.T) {
	for _, method := range []string{"ListPlayers", "ListAnswers", "FindRound", "UpdateGame"} {
		t.Run(method, func(t *testing.T) {
			ctx := context.Background()
			flaky := newFlakyStore()
			env := newTestEnv(t, testTracks, withStore(flaky.wrap))
			game, players := env.startedGame(t, ModeBattleRoyale, SettingsInput{}, "Guest")
			host, guest := players[0].ID, players[1].ID

			env.advance(t, PrepareDuration)
			first := env.round(t, game.ID, 0)
			if _, err := env.engine.Submit(ctx, first.ID, guest, first.Song.Artist, first.Song.Title); err != nil {
				t.Fatalf("submit: %v", err)
			}

			flaky.failAfter(method, 0, 1)
			if err := env.queue.Advance(ctx, 30*time.Second); !errors.Is(err, errTransient) {
				t.Fatalf("expected the end job to fail, got %v", err)
			}
			if phase := env.round(t, game.ID, 0).Phase; phase != PhaseEnded {
				t.Fatalf("expected round 0 ended, got %q", phase)
			}

			end := jobs.Job{Kind: jobs.KindEndRound, GameID: game.ID, RoundID: first.ID}
			if err := env.queue.Redeliver(ctx, end); err != nil {
				t.Fatalf("redeliver end: %v", err)
			}
			resumed := env.game(t, game.ID)
			if resumed.Status != StatusPlaying || resumed.CurrentRound != 1 {
				t.Fatalf("expected game playing round 1, got %q round %d", resumed.Status, resumed.CurrentRound)
			}
			if phase := env.round(t, game.ID, 1).Phase; phase != PhasePreparing {
				t.Fatalf("expected round 1 preparing, got %q", phase)
			}
			if pending := env.queue.Pending(); len(pending) != 1 || pending[0].Kind != jobs.KindActivateRound {
				t.Fatalf("expected round 1 activation pending, got %+v", pending)
			}

			if err := env.queue.Redeliver(ctx, end); err != nil {
				t.Fatalf("redeliver end again: %v", err)
			}
			if lives := env.player(t, host).Lives; lives != DefaultStartingLives-1 {
				t.Fatalf("expected host to lose exactly one life, got %d", lives)
			}
			if lives := env.player(t, guest).Lives; lives != DefaultStartingLives {
				t.Fatalf("expected guest to keep every life, got %d", lives)
			}

			env.advance(t, PrepareDuration)
			if phase := env.round(t, game.ID, 1).Phase; phase != PhaseActive {
				t.Fatalf("expected round 1 active, got %q", phase)
			}
		})
	}
}

func TestLateEndJobAfterGameAdvanced(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testTracks)
	game, players := env.startedGame(t, ModeBattleRoyale, SettingsInput{}, "Guest")
	host, guest := players[0].ID, players[1].ID

	var ended []*Round
	for number := 0; number < 2; number++ {
		env.advance(t, PrepareDuration)
		round := env.round(t, game.ID, number)
		if _, err := env.engine.Submit(ctx, round.ID, guest, round.Song.Artist, round.Song.Title); err != nil {
			t.Fatalf("submit round %d: %v", number, err)
		}
		env.advance(t, 30*time.Second)
		ended = append(ended, round)
	}
	if got := env.game(t, game.ID).CurrentRound; got != 2 {
		t.Fatalf("expected current round 2, got %d", got)
	}
	hostBefore, guestBefore := env.player(t, host), env.player(t, guest)
	if hostBefore.Lives != DefaultStartingLives-2 {
		t.Fatalf("expected host down two lives, got %d", hostBefore.Lives)
	}
	pendingBefore := len(env.queue.Pending())

	for _, round := range ended {
		end := jobs.Job{Kind: jobs.KindEndRound, GameID: game.ID, RoundID: round.ID}
		if err := env.queue.Redeliver(ctx, end); err != nil {
			t.Fatalf("late end for round %d: %v", round.Number, err)
		}
	}

	hostAfter, guestAfter := env.player(t, host), env.player(t, guest)
	if hostAfter.Lives != hostBefore.Lives || hostAfter.Score != hostBefore.Score {
		t.Fatalf("expected host untouched, got %+v", hostAfter)
	}
	if guestAfter.Lives != guestBefore.Lives || guestAfter.Score != guestBefore.Score {
		t.Fatalf("expected guest untouched, got %+v", guestAfter)
	}
	if got := env.game(t, game.ID).CurrentRound; got != 2 {
		t.Fatalf("expected current round to stay 2, got %d", got)
	}
	if phase := env.round(t, game.ID, 2).Phase; phase != PhasePreparing {
		t.Fatalf("expected round 2 still preparing, got %q", phase)
	}
	if pending := len(env.queue.Pending()); pending != pendingBefore {
		t.Fatalf("expected no new jobs, got %d instead of %d", pending, pendingBefore)
	}
	if got := env.events.count(EventPlayerEliminated); got != 0 {
		t.Fatalf("expected no eliminations, got %d", got)
	}
}

func TestStartRoundSchedulesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyJobs{}
	env := newTestEnv(t, testTracks, withJobs(flaky.wrap))
	game, host, err := env.engine.CreateGame(ctx, CreateGameRequest{HostName: "Host", Settings: SettingsInput{RoundCount: intPtr(2)}})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	flaky.failNext(1)
	if _, err := env.engine.StartGame(ctx, game.ID, host.ID); !errors.Is(err, errTransient) {
		t.Fatalf("expected scheduling failure, got %v", err)
	}
	if phase := env.round(t, game.ID, 0).Phase; phase != PhaseNone {
		t.Fatalf("expected round 0 left unstarted, got %q", phase)
	}
	if status := env.game(t, game.ID).Status; status != StatusPlaying {
		t.Fatalf("expected game playing, got %q", status)
	}

	if _, err := env.engine.StartGame(ctx, game.ID, host.ID); err != nil {
		t.Fatalf("retry start: %v", err)
	}
	if phase := env.round(t, game.ID, 0).Phase; phase != PhasePreparing {
		t.Fatalf("expected round 0 preparing after retry, got %q", phase)
	}
	if pending := env.queue.Pending(); len(pending) != 1 {
		t.Fatalf("expected one activation job, got %d", len(pending))
	}
	if _, err := env.engine.StartGame(ctx, game.ID, host.ID); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Fatalf("expected ErrGameAlreadyStarted once round 0 runs, got %v", err)
	}

	flaky.failNext(1)
	if err := env.queue.Advance(ctx, PrepareDuration); !errors.Is(err, errTransient) {
		t.Fatalf("expected activation to fail, got %v", err)
	}
	first := env.round(t, game.ID, 0)
	if first.Phase != PhasePreparing {
		t.Fatalf("expected round 0 still preparing, got %q", first.Phase)
	}
	activate := jobs.Job{Kind: jobs.KindActivateRound, GameID: game.ID, RoundID: first.ID}
	if err := env.queue.Redeliver(ctx, activate); err != nil {
		t.Fatalf("redeliver activation: %v", err)
	}
	if phase := env.round(t, game.ID, 0).Phase; phase != PhaseActive {
		t.Fatalf("expected round 0 active, got %q", phase)
	}
	if pending := env.queue.Pending(); len(pending) != 1 || pending[0].Kind != jobs.KindEndRound {
		t.Fatalf("expected the end job pending, got %+v", pending)
	}
}

func TestHandleJobRejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t, testTracks)
	if err := env.engine.HandleJob(context.Background(), jobs.Job{Kind: "round.pause"}); err == nil {
		t.Fatalf("expected error for unknown job kind")
	}
}

func TestTransitionOfMissingRound(t *testing.T) {
	env := newTestEnv(t, testTracks)
	err := env.engine.TransitionToActive(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
