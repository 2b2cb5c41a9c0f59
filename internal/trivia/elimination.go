package trivia

import (
	"context"

	"golang.org/x/sync/errgroup"

	"music-round/internal/logging"
)

// eliminate settles lives for every surviving player after a battle-royale
// round and reports whether the game is over. Players already settled for
// the round are left alone, so it can run again after a partial failure.
func (e *Engine) eliminate(ctx context.Context, game *Game, round *Round) (bool, error) {
	players, err := e.store.ListPlayers(ctx, game.ID)
	if err != nil {
		return false, err
	}
	answers, err := e.store.ListAnswers(ctx, round.ID)
	if err != nil {
		return false, err
	}
	byPlayer := make(map[string]*Answer, len(answers))
	for _, answer := range answers {
		byPlayer[answer.PlayerID] = answer
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, player := range players {
		if player.Eliminated || player.RoundsSettled > round.Number {
			continue
		}
		playerID := player.ID
		answer := byPlayer[playerID]
		g.Go(func() error {
			var knockedOut bool
			updated, err := e.store.UpdatePlayer(gctx, playerID, func(p *Player) error {
				knockedOut = false
				if p.RoundsSettled > round.Number {
					return nil
				}
				knockedOut = applyRoundOutcome(p, answer, round.Number, game.Settings.StartingLives)
				p.RoundsSettled = round.Number + 1
				return nil
			})
			if err != nil {
				return err
			}
			if knockedOut {
				logging.FromContext(ctx).Infow("player eliminated",
					"game_id", game.ID,
					"player_id", playerID,
					"round", round.Number,
				)
				e.record(ctx, Event{
					Type:     EventPlayerEliminated,
					GameID:   game.ID,
					RoundID:  round.ID,
					PlayerID: playerID,
					Payload:  map[string]any{"round": round.Number, "score": updated.Score},
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	players, err = e.store.ListPlayers(ctx, game.ID)
	if err != nil {
		return false, err
	}
	remaining := 0
	for _, player := range players {
		if !player.Eliminated {
			remaining++
		}
	}
	// SinglePlayer is set at start when the host plays alone; a solo game
	// runs until its only player is out.
	if game.Settings.SinglePlayer {
		return remaining == 0, nil
	}
	return remaining <= 1, nil
}

// applyRoundOutcome updates p for its answer to a battle-royale round and
// reports whether the player was knocked out by it. Both components wrong
// eliminates outright; anything short of fully correct, including no answer
// at all, costs one life.
func applyRoundOutcome(p *Player, answer *Answer, roundNumber, startingLives int) bool {
	if p.Eliminated {
		return false
	}
	if answer != nil && answer.ArtistCorrect && answer.TitleCorrect {
		return false
	}
	lives := p.Lives
	if lives <= 0 {
		lives = startingLives
	}
	// A record holding only hints was never submitted.
	submitted := answer != nil && answer.Attempts > 0
	if submitted && !answer.ArtistCorrect && !answer.TitleCorrect {
		lives = 0
	} else {
		lives--
	}
	p.Lives = max(lives, 0)
	if p.Lives == 0 {
		p.Eliminated = true
		eliminatedAt := roundNumber
		p.EliminatedAtRound = &eliminatedAt
		return true
	}
	return false
}
