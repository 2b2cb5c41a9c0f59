package trivia

import "fmt"

const (
	DefaultRoundCount      = 10
	DefaultSecondsPerRound = 30
	DefaultHintsPerPlayer  = 3
	DefaultStartingLives   = 3

	MaxPlayers = 12
)

// SettingsInput holds what the host asked for. Nil fields take the mode's
// default.
type SettingsInput struct {
	RoundCount      *int   `json:"round_count"`
	SecondsPerRound *int   `json:"seconds_per_round"`
	HintsPerPlayer  *int   `json:"hints_per_player"`
	PlaylistTag     string `json:"playlist_tag"`
}

type bounds struct{ min, max int }

var (
	roundCountBounds      = bounds{1, 50}
	secondsPerRoundBounds = bounds{10, 120}
	hintsPerPlayerBounds  = bounds{0, 10}
)

var modeSettings = map[Mode]func(SettingsInput) (Settings, error){
	ModeStandard:     standardSettings,
	ModeDaily:        dailySettings,
	ModeBattleRoyale: battleRoyaleSettings,
}

// ResolveSettings turns host input into the effective settings for mode.
func ResolveSettings(mode Mode, in SettingsInput) (Settings, error) {
	resolve, ok := modeSettings[mode]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return resolve(in)
}

func standardSettings(in SettingsInput) (Settings, error) {
	rounds, err := valueOr("round_count", in.RoundCount, DefaultRoundCount, roundCountBounds)
	if err != nil {
		return Settings{}, err
	}
	seconds, err := valueOr("seconds_per_round", in.SecondsPerRound, DefaultSecondsPerRound, secondsPerRoundBounds)
	if err != nil {
		return Settings{}, err
	}
	hintCount, err := valueOr("hints_per_player", in.HintsPerPlayer, DefaultHintsPerPlayer, hintsPerPlayerBounds)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		RoundCount:      rounds,
		SecondsPerRound: seconds,
		HintsPerPlayer:  hintCount,
		PlaylistTag:     in.PlaylistTag,
	}, nil
}

// The daily challenge is the same for everybody, so host input is ignored.
func dailySettings(in SettingsInput) (Settings, error) {
	return Settings{
		RoundCount:      5,
		SecondsPerRound: DefaultSecondsPerRound,
		HintsPerPlayer:  DefaultHintsPerPlayer,
		PlaylistTag:     in.PlaylistTag,
		SinglePlayer:    true,
	}, nil
}

func battleRoyaleSettings(in SettingsInput) (Settings, error) {
	hintCount, err := valueOr("hints_per_player", in.HintsPerPlayer, DefaultHintsPerPlayer, hintsPerPlayerBounds)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		RoundCount:      50,
		SecondsPerRound: DefaultSecondsPerRound,
		HintsPerPlayer:  hintCount,
		PlaylistTag:     in.PlaylistTag,
		StartingLives:   DefaultStartingLives,
	}, nil
}

func valueOr(name string, value *int, fallback int, b bounds) (int, error) {
	if value == nil {
		return fallback, nil
	}
	if *value < b.min || *value > b.max {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidSettings, name, b.min, b.max)
	}
	return *value, nil
}
