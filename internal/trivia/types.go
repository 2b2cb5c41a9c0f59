package trivia

import (
	"time"

	"music-round/internal/hints"
)

type Mode string

const (
	ModeStandard     Mode = "standard"
	ModeDaily        Mode = "daily"
	ModeBattleRoyale Mode = "battle_royale"
)

type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Phase is a round's lifecycle position. The zero value means the round
// exists but has not been started.
type Phase string

const (
	PhaseNone      Phase = ""
	PhasePreparing Phase = "preparing"
	PhaseActive    Phase = "active"
	PhaseEnded     Phase = "ended"
)

// Settings are the effective per-game settings, resolved once at creation.
type Settings struct {
	RoundCount      int    `json:"round_count"`
	SecondsPerRound int    `json:"seconds_per_round"`
	HintsPerPlayer  int    `json:"hints_per_player"`
	PlaylistTag     string `json:"playlist_tag,omitempty"`
	SinglePlayer    bool   `json:"single_player"`
	StartingLives   int    `json:"starting_lives,omitempty"`
}

func (s Settings) RoundDuration() time.Duration {
	return time.Duration(s.SecondsPerRound) * time.Second
}

type Game struct {
	ID           string    `json:"id"`
	JoinCode     string    `json:"join_code"`
	HostPlayerID string    `json:"host_player_id"`
	Mode         Mode      `json:"mode"`
	Status       Status    `json:"status"`
	Settings     Settings  `json:"settings"`
	CurrentRound int       `json:"current_round"`
	CreatedAt    time.Time `json:"created_at"`
	StartedAt    time.Time `json:"started_at,omitzero"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
}

type Player struct {
	ID                string    `json:"id"`
	GameID            string    `json:"game_id"`
	SessionToken      string    `json:"-"`
	Name              string    `json:"name"`
	IsHost            bool      `json:"is_host"`
	Ready             bool      `json:"ready"`
	Score             int       `json:"score"`
	HintsUsed         int       `json:"hints_used"`
	Lives             int       `json:"lives"`
	Eliminated        bool      `json:"eliminated"`
	EliminatedAtRound *int      `json:"eliminated_at_round,omitempty"`
	// RoundsSettled counts the battle-royale rounds whose outcome has been
	// applied to Lives.
	RoundsSettled     int       `json:"rounds_settled"`
	JoinedAt          time.Time `json:"joined_at"`
}

// Song is the snapshot of catalog data taken when a round is created.
type Song struct {
	TrackID     string `json:"track_id,omitempty"`
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	PreviewURL  string `json:"preview_url,omitempty"`
	ArtworkURL  string `json:"artwork_url,omitempty"`
	ReleaseYear int    `json:"release_year,omitempty"`
}

type Round struct {
	ID          string    `json:"id"`
	GameID      string    `json:"game_id"`
	Number      int       `json:"number"`
	Song        Song      `json:"song"`
	Phase       Phase     `json:"phase"`
	PreparingAt time.Time `json:"preparing_at,omitzero"`
	ActiveAt    time.Time `json:"active_at,omitzero"`
	EndedAt     time.Time `json:"ended_at,omitzero"`
}

type Answer struct {
	ID             string         `json:"id"`
	GameID         string         `json:"game_id"`
	RoundID        string         `json:"round_id"`
	PlayerID       string         `json:"player_id"`
	Artist         string         `json:"artist"`
	Title          string         `json:"title"`
	SubmittedAt    time.Time      `json:"submitted_at,omitzero"`
	Attempts       int            `json:"attempts"`
	ArtistCorrect  bool           `json:"artist_correct"`
	TitleCorrect   bool           `json:"title_correct"`
	ArtistPoints   int            `json:"artist_points"`
	TitlePoints    int            `json:"title_points"`
	Points         int            `json:"points"`
	ArtistLockedAt time.Time      `json:"artist_locked_at,omitzero"`
	TitleLockedAt  time.Time      `json:"title_locked_at,omitzero"`
	LockedAt       time.Time      `json:"locked_at,omitzero"`
	HintsUsed      int            `json:"hints_used"`
	LastHintAt     time.Time      `json:"last_hint_at,omitzero"`
	RevealedArtist []hints.Letter `json:"revealed_artist,omitempty"`
	RevealedTitle  []hints.Letter `json:"revealed_title,omitempty"`
}

// IsLocked reports whether both components have been answered correctly.
func (a *Answer) IsLocked() bool {
	return !a.LockedAt.IsZero()
}

func (a *Answer) clone() *Answer {
	out := *a
	out.RevealedArtist = append([]hints.Letter(nil), a.RevealedArtist...)
	out.RevealedTitle = append([]hints.Letter(nil), a.RevealedTitle...)
	return &out
}

func (p *Player) clone() *Player {
	out := *p
	if p.EliminatedAtRound != nil {
		round := *p.EliminatedAtRound
		out.EliminatedAtRound = &round
	}
	return &out
}

// Track is a library entry rounds draw their songs from.
type Track struct {
	ID       string `json:"id"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Playlist string `json:"playlist,omitempty"`
}

// Event is an audit record of something that happened in a game.
type Event struct {
	Type     string         `json:"type"`
	GameID   string         `json:"game_id"`
	RoundID  string         `json:"round_id,omitempty"`
	PlayerID string         `json:"player_id,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	At       time.Time      `json:"at"`
}

const (
	EventGameCreated      = "game_created"
	EventPlayerJoined     = "player_joined"
	EventGameStarted      = "game_started"
	EventRoundPhase       = "round_phase"
	EventAnswerSubmitted  = "answer_submitted"
	EventHintUsed         = "hint_used"
	EventPlayerEliminated = "player_eliminated"
	EventGameFinished     = "game_finished"
)
