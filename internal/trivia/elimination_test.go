package trivia

import (
	"context"
	"testing"
	"time"

	"music-round/internal/jobs"
)

func TestApplyRoundOutcome(t *testing.T) {
	tests := []struct {
		name           string
		lives          int
		eliminated     bool
		answer         *Answer
		wantLives      int
		wantEliminated bool
	}{
		{name: "fully correct", lives: 3, answer: &Answer{Attempts: 1, ArtistCorrect: true, TitleCorrect: true}, wantLives: 3},
		{name: "no answer", lives: 3, wantLives: 2},
		{name: "artist only", lives: 3, answer: &Answer{Attempts: 1, ArtistCorrect: true}, wantLives: 2},
		{name: "title only", lives: 2, answer: &Answer{Attempts: 2, TitleCorrect: true}, wantLives: 1},
		{name: "both wrong", lives: 3, answer: &Answer{Attempts: 1}, wantLives: 0, wantEliminated: true},
		{name: "hints only", lives: 3, answer: &Answer{HintsUsed: 1}, wantLives: 2},
		{name: "last life", lives: 1, answer: &Answer{Attempts: 1, ArtistCorrect: true}, wantLives: 0, wantEliminated: true},
		{name: "unset lives", lives: 0, wantLives: 2},
		{name: "already out", lives: 0, eliminated: true, answer: &Answer{Attempts: 1}, wantLives: 0, wantEliminated: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			player := &Player{Lives: tc.lives, Eliminated: tc.eliminated}
			knockedOut := applyRoundOutcome(player, tc.answer, 4, DefaultStartingLives)
			if player.Lives != tc.wantLives {
				t.Fatalf("expected %d lives, got %d", tc.wantLives, player.Lives)
			}
			if player.Eliminated != tc.wantEliminated {
				t.Fatalf("expected eliminated=%v, got %v", tc.wantEliminated, player.Eliminated)
			}
			if knockedOut != (tc.wantEliminated && !tc.eliminated) {
				t.Fatalf("unexpected knockout report %v", knockedOut)
			}
			if knockedOut && (player.EliminatedAtRound == nil || *player.EliminatedAtRound != 4) {
				t.Fatalf("expected elimination recorded at round 4, got %v", player.EliminatedAtRound)
			}
		})
	}
}

func TestBattleRoyaleEliminatesUntilOneRemains(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testTracks)
	game, players := env.startedGame(t, ModeBattleRoyale, SettingsInput{}, "Bea", "Cal")
	host, bea, cal := players[0], players[1], players[2]
	if host.Lives != DefaultStartingLives {
		t.Fatalf("expected %d starting lives, got %d", DefaultStartingLives, host.Lives)
	}
	if env.game(t, game.ID).Settings.SinglePlayer {
		t.Fatalf("expected a three-player battle royale not to be single player")
	}

	playRound := func(number int, answers map[string][2]string) {
		t.Helper()
		env.advance(t, PrepareDuration)
		round := env.round(t, game.ID, number)
		for playerID, guess := range answers {
			artist, title := guess[0], guess[1]
			if artist == "" {
				artist = round.Song.Artist
			}
			if title == "" {
				title = round.Song.Title
			}
			if _, err := env.engine.Submit(ctx, round.ID, playerID, artist, title); err != nil {
				t.Fatalf("submit round %d: %v", number, err)
			}
		}
		env.advance(t, 30*time.Second)
	}

	playRound(0, map[string][2]string{
		host.ID: {"", ""},
		bea.ID:  {"wrong", "wrong"},
	})
	if p := env.player(t, bea.ID); !p.Eliminated || p.Lives != 0 || p.EliminatedAtRound == nil || *p.EliminatedAtRound != 0 {
		t.Fatalf("expected Bea eliminated in round 0, got %+v", p)
	}
	if lives := env.player(t, cal.ID).Lives; lives != 2 {
		t.Fatalf("expected Cal to lose one life for not answering, got %d", lives)
	}
	if lives := env.player(t, host.ID).Lives; lives != 3 {
		t.Fatalf("expected host to keep all lives, got %d", lives)
	}
	if status := env.game(t, game.ID).Status; status != StatusPlaying {
		t.Fatalf("expected game still playing, got %q", status)
	}

	playRound(1, map[string][2]string{
		host.ID: {"", ""},
		cal.ID:  {"", "wrong"},
	})
	if lives := env.player(t, cal.ID).Lives; lives != 1 {
		t.Fatalf("expected Cal down to 1 life, got %d", lives)
	}

	playRound(2, map[string][2]string{
		host.ID: {"", ""},
	})
	if p := env.player(t, cal.ID); !p.Eliminated {
		t.Fatalf("expected Cal eliminated, got %+v", p)
	}
	finished := env.game(t, game.ID)
	if finished.Status != StatusFinished {
		t.Fatalf("expected game finished with one survivor, got %q", finished.Status)
	}
	if finished.CurrentRound != 2 {
		t.Fatalf("expected game to stop at round 2, got %d", finished.CurrentRound)
	}
	if got := env.events.count(EventPlayerEliminated); got != 2 {
		t.Fatalf("expected 2 elimination events, got %d", got)
	}
}

func TestBattleRoyaleSoloRunsUntilOut(t *testing.T) {
	env := newTestEnv(t, testTracks)
	game, players := env.startedGame(t, ModeBattleRoyale, SettingsInput{})
	if !env.game(t, game.ID).Settings.SinglePlayer {
		t.Fatalf("expected a battle royale started alone to be single player")
	}

	for number := 0; number < 2; number++ {
		env.advance(t, PrepareDuration+30*time.Second)
		if status := env.game(t, game.ID).Status; status != StatusPlaying {
			t.Fatalf("expected solo game playing after round %d, got %q", number, status)
		}
	}
	env.advance(t, PrepareDuration+30*time.Second)
	if p := env.player(t, players[0].ID); !p.Eliminated {
		t.Fatalf("expected player out of lives, got %+v", p)
	}
	if status := env.game(t, game.ID).Status; status != StatusFinished {
		t.Fatalf("expected solo game finished, got %q", status)
	}
}

func TestBattleRoyaleSuddenDeathCreatesRounds(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testTracks, withInitialBattleRoyaleRounds(1))
	game, players := env.startedGame(t, ModeBattleRoyale, SettingsInput{}, "Guest")

	rounds, _ := env.store.ListRounds(ctx, game.ID)
	if len(rounds) != 1 {
		t.Fatalf("expected 1 initial round, got %d", len(rounds))
	}

	env.advance(t, PrepareDuration)
	first := env.round(t, game.ID, 0)
	for _, player := range players {
		if _, err := env.engine.Submit(ctx, first.ID, player.ID, first.Song.Artist, first.Song.Title); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	env.advance(t, 30*time.Second)

	second := env.round(t, game.ID, 1)
	if second.Phase != PhasePreparing {
		t.Fatalf("expected sudden-death round preparing, got %q", second.Phase)
	}
	if second.Song.TrackID == first.Song.TrackID {
		t.Fatalf("expected a new track, got %s again", second.Song.TrackID)
	}
	if got := env.game(t, game.ID).CurrentRound; got != 1 {
		t.Fatalf("expected current round 1, got %d", got)
	}

	create := jobs.Job{Kind: jobs.KindCreateRound, GameID: game.ID, RoundNumber: 1}
	if err := env.queue.Redeliver(ctx, create); err != nil {
		t.Fatalf("redeliver create: %v", err)
	}
	rounds, _ = env.store.ListRounds(ctx, game.ID)
	if len(rounds) != 2 {
		t.Fatalf("expected duplicate create to be a no-op, got %d rounds", len(rounds))
	}
	if pending := env.queue.Pending(); len(pending) != 1 {
		t.Fatalf("expected a single activation job, got %d", len(pending))
	}
}

func TestSuddenDeathSkipsFinishedGame(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testTracks, withInitialBattleRoyaleRounds(1))
	game, _ := env.startedGame(t, ModeBattleRoyale, SettingsInput{}, "Guest")
	if _, err := env.store.UpdateGame(ctx, game.ID, func(g *Game) error {
		g.Status = StatusFinished
		return nil
	}); err != nil {
		t.Fatalf("finish game: %v", err)
	}

	create := jobs.Job{Kind: jobs.KindCreateRound, GameID: game.ID, RoundNumber: 1}
	if err := env.queue.Redeliver(ctx, create); err != nil {
		t.Fatalf("create round: %v", err)
	}
	if _, err := env.store.FindRound(ctx, game.ID, 1); !IsNotFound(err) {
		t.Fatalf("expected no round created for a finished game, got %v", err)
	}
}
