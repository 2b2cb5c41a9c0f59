package trivia

import (
	"context"
	"errors"
	"fmt"
	"time"

	"music-round/internal/jobs"
	"music-round/internal/logging"
)

// PrepareDuration is how long a round stays in preparing before it opens.
const PrepareDuration = 3 * time.Second

// errPhaseChanged aborts an update whose expected phase no longer holds.
// Transitions treat it as a no-op so duplicate or late jobs are harmless.
var errPhaseChanged = errors.New("round phase changed")

// HandleJob is the job queue handler for round transitions.
func (e *Engine) HandleJob(ctx context.Context, job jobs.Job) error {
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("job_id", job.ID, "kind", job.Kind))
	switch job.Kind {
	case jobs.KindActivateRound:
		return e.TransitionToActive(ctx, job.RoundID)
	case jobs.KindEndRound:
		return e.TransitionToEnded(ctx, job.RoundID)
	case jobs.KindCreateRound:
		return e.createAndStartRound(ctx, job.GameID, job.RoundNumber)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// StartRound moves an unstarted round to preparing and schedules its
// activation. Rounds that were already started are left alone. The job is
// scheduled before the phase is written, so a scheduling failure leaves the
// round untouched for the caller to retry.
func (e *Engine) StartRound(ctx context.Context, roundID string) error {
	round, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Phase != PhaseNone {
		logging.FromContext(ctx).Debugw("round already started", "round_id", roundID)
		return nil
	}
	now := e.now()
	if err := e.schedule(ctx, now.Add(PrepareDuration), jobs.Job{
		Kind:        jobs.KindActivateRound,
		GameID:      round.GameID,
		RoundID:     round.ID,
		RoundNumber: round.Number,
	}); err != nil {
		return err
	}
	round, err = e.store.UpdateRound(ctx, roundID, func(r *Round) error {
		if r.Phase != PhaseNone {
			return errPhaseChanged
		}
		r.Phase = PhasePreparing
		r.PreparingAt = now
		return nil
	})
	if errors.Is(err, errPhaseChanged) {
		return nil
	}
	if err != nil {
		return err
	}
	e.phaseChanged(ctx, round)
	return nil
}

// TransitionToActive opens a round for answers and schedules its end. A
// round whose preparing write was lost is opened too.
func (e *Engine) TransitionToActive(ctx context.Context, roundID string) error {
	round, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	if !canActivate(round.Phase) {
		logging.FromContext(ctx).Debugw("skip activation, round not preparing", "round_id", roundID, "phase", round.Phase)
		return nil
	}
	game, err := e.store.GetGame(ctx, round.GameID)
	if err != nil {
		return err
	}
	now := e.now()
	if err := e.schedule(ctx, now.Add(game.Settings.RoundDuration()), jobs.Job{
		Kind:        jobs.KindEndRound,
		GameID:      round.GameID,
		RoundID:     round.ID,
		RoundNumber: round.Number,
	}); err != nil {
		return err
	}
	round, err = e.store.UpdateRound(ctx, roundID, func(r *Round) error {
		if !canActivate(r.Phase) {
			return errPhaseChanged
		}
		r.Phase = PhaseActive
		r.ActiveAt = now
		return nil
	})
	if errors.Is(err, errPhaseChanged) {
		return nil
	}
	if err != nil {
		return err
	}
	e.phaseChanged(ctx, round)
	return nil
}

func canActivate(phase Phase) bool {
	return phase == PhaseNone || phase == PhasePreparing
}

// TransitionToEnded closes a round, applies battle-royale elimination and
// advances the game to its next round or finishes it. Every step after the
// phase write is idempotent, and a redelivered job for a round that is
// already ended resumes them while the game has not moved past the round's
// successor.
func (e *Engine) TransitionToEnded(ctx context.Context, roundID string) error {
	now := e.now()
	round, err := e.store.UpdateRound(ctx, roundID, func(r *Round) error {
		if r.Phase == PhaseEnded {
			return errPhaseChanged
		}
		r.Phase = PhaseEnded
		r.EndedAt = now
		return nil
	})
	resumed := errors.Is(err, errPhaseChanged)
	if resumed {
		round, err = e.store.GetRound(ctx, roundID)
	}
	if err != nil {
		return err
	}
	if !resumed {
		e.phaseChanged(ctx, round)
	}

	game, err := e.store.GetGame(ctx, round.GameID)
	if err != nil {
		return err
	}
	if game.Status != StatusPlaying {
		return nil
	}
	next := round.Number + 1
	if resumed {
		if game.CurrentRound > next {
			logging.FromContext(ctx).Debugw("round already ended", "round_id", roundID)
			return nil
		}
		logging.FromContext(ctx).Infow("resuming round end", "round_id", roundID, "round", round.Number)
	}

	if game.Mode == ModeBattleRoyale {
		over, err := e.eliminate(ctx, game, round)
		if err != nil {
			return fmt.Errorf("eliminate after round %d: %w", round.Number, err)
		}
		if over {
			return e.finishGame(ctx, game.ID)
		}
		if next >= game.Settings.RoundCount {
			return e.finishGame(ctx, game.ID)
		}
	}

	nextRound, err := e.store.FindRound(ctx, game.ID, next)
	switch {
	case err == nil:
		return e.advanceTo(ctx, game.ID, nextRound)
	case !errors.Is(err, ErrRoundNotFound):
		return err
	case game.Mode == ModeBattleRoyale:
		// Sudden death: the next round is drawn by its own job.
		return e.schedule(ctx, now, jobs.Job{
			Kind:        jobs.KindCreateRound,
			GameID:      game.ID,
			RoundNumber: next,
		})
	default:
		return e.finishGame(ctx, game.ID)
	}
}

// advanceTo makes round the game's current round and starts it.
func (e *Engine) advanceTo(ctx context.Context, gameID string, round *Round) error {
	_, err := e.store.UpdateGame(ctx, gameID, func(g *Game) error {
		if g.Status != StatusPlaying {
			return nil
		}
		g.CurrentRound = max(g.CurrentRound, round.Number)
		return nil
	})
	if err != nil {
		return err
	}
	return e.StartRound(ctx, round.ID)
}

func (e *Engine) finishGame(ctx context.Context, gameID string) error {
	now := e.now()
	finished := false
	_, err := e.store.UpdateGame(ctx, gameID, func(g *Game) error {
		if g.Status == StatusFinished {
			return nil
		}
		g.Status = StatusFinished
		g.FinishedAt = now
		finished = true
		return nil
	})
	if err != nil {
		return err
	}
	if finished {
		logging.FromContext(ctx).Infow("game finished", "game_id", gameID)
		e.record(ctx, Event{Type: EventGameFinished, GameID: gameID})
		e.notify(gameID)
	}
	return nil
}

func (e *Engine) phaseChanged(ctx context.Context, round *Round) {
	logging.FromContext(ctx).Infow("round phase changed",
		"game_id", round.GameID,
		"round_id", round.ID,
		"round", round.Number,
		"phase", round.Phase,
	)
	e.record(ctx, Event{
		Type:    EventRoundPhase,
		GameID:  round.GameID,
		RoundID: round.ID,
		Payload: map[string]any{"phase": string(round.Phase), "round": round.Number},
	})
	e.notify(round.GameID)
}

func (e *Engine) schedule(ctx context.Context, at time.Time, job jobs.Job) error {
	if e.jobs == nil {
		return errors.New("no job scheduler configured")
	}
	if err := e.jobs.ScheduleAt(ctx, at, job); err != nil {
		return fmt.Errorf("schedule %s: %w", job.Kind, err)
	}
	return nil
}
