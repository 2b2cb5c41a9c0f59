package trivia

import (
	"context"
	"errors"
	"fmt"

	"music-round/internal/hints"
	"music-round/internal/logging"
	"music-round/internal/scoring"
	"music-round/internal/textnorm"
)

type SubmitResult struct {
	AnswerID      string `json:"answer_id"`
	Points        int    `json:"points"`
	ArtistCorrect bool   `json:"artist_correct"`
	TitleCorrect  bool   `json:"title_correct"`
	Attempts      int    `json:"attempts"`
	IsLocked      bool   `json:"is_locked"`
}

type HintResult struct {
	RevealedArtist []hints.Letter `json:"revealed_artist"`
	RevealedTitle  []hints.Letter `json:"revealed_title"`
	// Masks show the normalized answer with unrevealed letters as '_'.
	ArtistMask     string `json:"artist_mask"`
	TitleMask      string `json:"title_mask"`
	HintsRemaining int    `json:"hints_remaining"`
}

// Submit records a guess for the active round. Each component locks the
// first time it is correct and earns points for how early that was; later
// attempts cannot change a locked component.
func (e *Engine) Submit(ctx context.Context, roundID, playerID, artist, title string) (SubmitResult, error) {
	round, game, err := e.roundAndGame(ctx, roundID)
	if err != nil {
		return SubmitResult{}, err
	}
	if round.Phase != PhaseActive {
		return SubmitResult{}, ErrRoundNotActive
	}
	if round.ActiveAt.IsZero() {
		return SubmitResult{}, ErrRoundNotStarted
	}
	if _, err := e.gamePlayer(ctx, game.ID, playerID); err != nil {
		return SubmitResult{}, err
	}

	now := e.now()
	elapsed := now.Sub(round.ActiveAt)
	total := game.Settings.RoundDuration()
	artistOK := textnorm.Equal(artist, round.Song.Artist)
	titleOK := textnorm.Equal(title, round.Song.Title)

	var gained int
	answer, err := e.store.UpsertAnswer(ctx, roundID, playerID, func(a *Answer, exists bool) error {
		gained = 0
		if !exists {
			a.ID = newID()
			a.GameID = game.ID
		} else if a.IsLocked() {
			return ErrAnswerLocked
		}
		a.Attempts++
		a.SubmittedAt = now
		if !a.ArtistCorrect {
			a.Artist = artist
			if artistOK {
				a.ArtistCorrect = true
				a.ArtistLockedAt = now
				a.ArtistPoints = scoring.ComponentPoints(elapsed, total)
				gained += a.ArtistPoints
			}
		}
		if !a.TitleCorrect {
			a.Title = title
			if titleOK {
				a.TitleCorrect = true
				a.TitleLockedAt = now
				a.TitlePoints = scoring.ComponentPoints(elapsed, total)
				gained += a.TitlePoints
			}
		}
		a.Points = a.ArtistPoints + a.TitlePoints
		if a.ArtistCorrect && a.TitleCorrect {
			a.LockedAt = now
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if gained > 0 {
		_, err := e.store.UpdatePlayer(ctx, playerID, func(p *Player) error {
			if !p.Eliminated {
				p.Score += gained
			}
			return nil
		})
		if err != nil {
			return SubmitResult{}, fmt.Errorf("credit score: %w", err)
		}
	}

	logging.FromContext(ctx).Debugw("answer submitted",
		"round_id", roundID,
		"player_id", playerID,
		"attempt", answer.Attempts,
		"points_gained", gained,
	)
	e.record(ctx, Event{
		Type:     EventAnswerSubmitted,
		GameID:   game.ID,
		RoundID:  roundID,
		PlayerID: playerID,
		Payload: map[string]any{
			"attempt":        answer.Attempts,
			"artist_correct": answer.ArtistCorrect,
			"title_correct":  answer.TitleCorrect,
			"points_gained":  gained,
		},
	})
	e.notify(game.ID)

	return SubmitResult{
		AnswerID:      answer.ID,
		Points:        answer.Points,
		ArtistCorrect: answer.ArtistCorrect,
		TitleCorrect:  answer.TitleCorrect,
		Attempts:      answer.Attempts,
		IsLocked:      answer.IsLocked(),
	}, nil
}

// UseHint spends one of the player's hints on the active round: it reveals
// more letters of the normalized artist and title and costs HintPenalty
// points, never taking the score below zero.
func (e *Engine) UseHint(ctx context.Context, roundID, playerID string) (HintResult, error) {
	round, game, err := e.roundAndGame(ctx, roundID)
	if err != nil {
		return HintResult{}, err
	}
	if round.Phase != PhaseActive {
		return HintResult{}, ErrHintsNotAvailable
	}
	current, err := e.gamePlayer(ctx, game.ID, playerID)
	if err != nil {
		return HintResult{}, err
	}
	budget := game.Settings.HintsPerPlayer
	if current.HintsUsed >= budget {
		return HintResult{}, ErrNoHintsRemaining
	}
	existing, err := e.store.GetAnswer(ctx, roundID, playerID)
	switch {
	case err == nil && existing.IsLocked():
		return HintResult{}, ErrAnswerAlreadyComplete
	case err != nil && !errors.Is(err, ErrAnswerNotFound):
		return HintResult{}, err
	}

	var penalty int
	player, err := e.store.UpdatePlayer(ctx, playerID, func(p *Player) error {
		penalty = 0
		if p.HintsUsed >= budget {
			return ErrNoHintsRemaining
		}
		p.HintsUsed++
		if !p.Eliminated {
			penalty = min(scoring.HintPenalty, p.Score)
			p.Score -= penalty
		}
		return nil
	})
	if err != nil {
		return HintResult{}, err
	}

	artistKey := textnorm.Normalize(round.Song.Artist)
	titleKey := textnorm.Normalize(round.Song.Title)
	now := e.now()
	answer, err := e.store.UpsertAnswer(ctx, roundID, playerID, func(a *Answer, exists bool) error {
		if !exists {
			a.ID = newID()
			a.GameID = game.ID
		} else if a.IsLocked() {
			return ErrAnswerAlreadyComplete
		}
		a.RevealedArtist = hints.RevealMore(artistKey, hints.LettersPerHint, a.RevealedArtist, e.rand)
		a.RevealedTitle = hints.RevealMore(titleKey, hints.LettersPerHint, a.RevealedTitle, e.rand)
		a.HintsUsed++
		a.LastHintAt = now
		return nil
	})
	if err != nil {
		e.refundHint(ctx, playerID, penalty)
		return HintResult{}, err
	}

	logging.FromContext(ctx).Debugw("hint used",
		"round_id", roundID,
		"player_id", playerID,
		"hints_used", player.HintsUsed,
	)
	e.record(ctx, Event{
		Type:     EventHintUsed,
		GameID:   game.ID,
		RoundID:  roundID,
		PlayerID: playerID,
		Payload:  map[string]any{"hints_used": player.HintsUsed, "penalty": penalty},
	})
	e.notify(game.ID)

	return HintResult{
		RevealedArtist: answer.RevealedArtist,
		RevealedTitle:  answer.RevealedTitle,
		ArtistMask:     hints.Mask(artistKey, answer.RevealedArtist),
		TitleMask:      hints.Mask(titleKey, answer.RevealedTitle),
		HintsRemaining: max(budget-player.HintsUsed, 0),
	}, nil
}

// refundHint undoes the budget and penalty of a hint whose answer update
// failed.
func (e *Engine) refundHint(ctx context.Context, playerID string, penalty int) {
	_, err := e.store.UpdatePlayer(ctx, playerID, func(p *Player) error {
		if p.HintsUsed > 0 {
			p.HintsUsed--
		}
		p.Score += penalty
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Errorw("failed to refund hint", "player_id", playerID, "error", err)
	}
}

func (e *Engine) roundAndGame(ctx context.Context, roundID string) (*Round, *Game, error) {
	round, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, nil, err
	}
	game, err := e.store.GetGame(ctx, round.GameID)
	if err != nil {
		return nil, nil, err
	}
	return round, game, nil
}

func (e *Engine) gamePlayer(ctx context.Context, gameID, playerID string) (*Player, error) {
	player, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.GameID != gameID {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}
