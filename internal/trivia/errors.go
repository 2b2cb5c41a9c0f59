package trivia

import "errors"

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrRoundNotFound  = errors.New("round not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrAnswerNotFound = errors.New("answer not found")

	ErrRoundNotActive        = errors.New("round is not active")
	ErrRoundNotStarted       = errors.New("round has not started")
	ErrAnswerLocked          = errors.New("answer is already locked")
	ErrHintsNotAvailable     = errors.New("hints are not available for this round")
	ErrNoHintsRemaining      = errors.New("no hints remaining")
	ErrAnswerAlreadyComplete = errors.New("answer is already complete")

	ErrJoinCodeTaken      = errors.New("join code already in use")
	ErrJoinCodeExhausted  = errors.New("could not generate a unique join code")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrNameTaken          = errors.New("name already taken")
	ErrInvalidName        = errors.New("name is required")
	ErrGameFull           = errors.New("game is full")
	ErrNotHost            = errors.New("only the host can do that")
	ErrNoTracks           = errors.New("no tracks available")
	ErrUnknownMode        = errors.New("unknown game mode")
	ErrInvalidSettings    = errors.New("invalid game settings")
	ErrRoundExists        = errors.New("round already exists")
)

// IsNotFound reports whether err is one of the lookup misses.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGameNotFound) ||
		errors.Is(err, ErrRoundNotFound) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrAnswerNotFound)
}
