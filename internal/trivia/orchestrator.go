package trivia

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"music-round/internal/catalog"
	"music-round/internal/logging"
)

const maxNameLength = 20

type CreateGameRequest struct {
	HostName string
	Mode     Mode
	Settings SettingsInput
}

// CreateGame opens a lobby with the requesting player as host.
func (e *Engine) CreateGame(ctx context.Context, req CreateGameRequest) (*Game, *Player, error) {
	name, err := cleanName(req.HostName)
	if err != nil {
		return nil, nil, err
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeStandard
	}
	settings, err := ResolveSettings(mode, req.Settings)
	if err != nil {
		return nil, nil, err
	}

	now := e.now()
	game := &Game{
		ID:           newID(),
		HostPlayerID: newID(),
		Mode:         mode,
		Status:       StatusLobby,
		Settings:     settings,
		CreatedAt:    now,
	}
	inserted := false
	for attempt := 0; attempt < maxJoinCodeAttempts; attempt++ {
		game.JoinCode = newJoinCode(e.rand)
		err := e.store.InsertGame(ctx, game)
		if errors.Is(err, ErrJoinCodeTaken) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		inserted = true
		break
	}
	if !inserted {
		return nil, nil, ErrJoinCodeExhausted
	}

	host, err := e.newPlayer(game, game.HostPlayerID, name, now)
	if err != nil {
		return nil, nil, err
	}
	host.IsHost = true
	if err := e.store.InsertPlayer(ctx, host); err != nil {
		return nil, nil, err
	}

	logging.FromContext(ctx).Infow("game created", "game_id", game.ID, "join_code", game.JoinCode, "mode", mode)
	e.record(ctx, Event{
		Type:     EventGameCreated,
		GameID:   game.ID,
		PlayerID: host.ID,
		Payload:  map[string]any{"mode": string(mode), "join_code": game.JoinCode},
	})
	return game, host, nil
}

// JoinGame adds a player to a lobby found by join code or game id.
func (e *Engine) JoinGame(ctx context.Context, codeOrID, name string) (*Game, *Player, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, nil, err
	}
	game, err := e.findGame(ctx, codeOrID)
	if err != nil {
		return nil, nil, err
	}
	if game.Status != StatusLobby {
		return nil, nil, ErrGameAlreadyStarted
	}
	players, err := e.store.ListPlayers(ctx, game.ID)
	if err != nil {
		return nil, nil, err
	}
	if (game.Settings.SinglePlayer && len(players) > 0) || len(players) >= MaxPlayers {
		return nil, nil, ErrGameFull
	}

	player, err := e.newPlayer(game, newID(), name, e.now())
	if err != nil {
		return nil, nil, err
	}
	if err := e.store.InsertPlayer(ctx, player); err != nil {
		return nil, nil, err
	}

	logging.FromContext(ctx).Infow("player joined", "game_id", game.ID, "player_id", player.ID)
	e.record(ctx, Event{Type: EventPlayerJoined, GameID: game.ID, PlayerID: player.ID, Payload: map[string]any{"name": name}})
	e.notify(game.ID)
	return game, player, nil
}

func (e *Engine) SetReady(ctx context.Context, gameID, playerID string, ready bool) (*Player, error) {
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != StatusLobby {
		return nil, ErrGameAlreadyStarted
	}
	if _, err := e.gamePlayer(ctx, gameID, playerID); err != nil {
		return nil, err
	}
	player, err := e.store.UpdatePlayer(ctx, playerID, func(p *Player) error {
		p.Ready = ready
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(gameID)
	return player, nil
}

// StartGame draws the songs, creates the rounds and starts round 0. A host
// retrying a start whose first round never began resumes it.
func (e *Engine) StartGame(ctx context.Context, gameID, playerID string) (*Game, error) {
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.HostPlayerID != playerID {
		return nil, ErrNotHost
	}
	switch game.Status {
	case StatusLobby:
	case StatusPlaying:
		return e.resumeStart(ctx, game)
	default:
		return nil, ErrGameAlreadyStarted
	}

	players, err := e.store.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	rounds, err := e.prepareRounds(ctx, game, now)
	if err != nil {
		return nil, err
	}

	game, err = e.store.UpdateGame(ctx, gameID, func(g *Game) error {
		if g.Status != StatusLobby {
			return ErrGameAlreadyStarted
		}
		g.Status = StatusPlaying
		g.CurrentRound = 0
		g.StartedAt = now
		if g.Mode == ModeBattleRoyale && len(players) == 1 {
			g.Settings.SinglePlayer = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Infow("game started", "game_id", game.ID, "rounds", len(rounds))
	e.record(ctx, Event{Type: EventGameStarted, GameID: game.ID, PlayerID: playerID, Payload: map[string]any{"rounds": len(rounds)}})
	e.notify(game.ID)

	if err := e.StartRound(ctx, rounds[0].ID); err != nil {
		return nil, err
	}
	return game, nil
}

func (e *Engine) resumeStart(ctx context.Context, game *Game) (*Game, error) {
	if game.CurrentRound != 0 {
		return nil, ErrGameAlreadyStarted
	}
	first, err := e.store.FindRound(ctx, game.ID, 0)
	if err != nil {
		return nil, err
	}
	if first.Phase != PhaseNone {
		return nil, ErrGameAlreadyStarted
	}
	logging.FromContext(ctx).Infow("resuming game start", "game_id", game.ID)
	if err := e.StartRound(ctx, first.ID); err != nil {
		return nil, err
	}
	return game, nil
}

// prepareRounds returns the game's initial rounds, drawing and inserting
// the ones an earlier failed start left missing.
func (e *Engine) prepareRounds(ctx context.Context, game *Game, now time.Time) ([]*Round, error) {
	rounds, err := e.store.ListRounds(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	want := game.Settings.RoundCount
	if game.Mode == ModeBattleRoyale {
		want = min(want, e.initialBattleRoyaleRounds)
	}
	if len(rounds) >= want {
		return rounds, nil
	}

	used := make(map[string]struct{}, len(rounds))
	for _, r := range rounds {
		used[r.Song.TrackID] = struct{}{}
	}
	req := PickRequest{Playlist: game.Settings.PlaylistTag, Count: want - len(rounds), Exclude: used}
	if game.Mode == ModeDaily {
		// The daily draw is replayed in full so every player gets the same
		// songs in the same order.
		req = PickRequest{Playlist: game.Settings.PlaylistTag, Count: want, Seed: DailySeed(now)}
	}
	tracks, err := e.tracks.Pick(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("pick tracks: %w", err)
	}
	for _, track := range tracks {
		if len(rounds) >= want {
			break
		}
		if _, ok := used[track.ID]; ok {
			continue
		}
		round := &Round{
			ID:     newID(),
			GameID: game.ID,
			Number: len(rounds),
			Song:   e.songFor(ctx, track),
		}
		if err := e.store.InsertRound(ctx, round); err != nil {
			if errors.Is(err, ErrRoundExists) {
				return nil, ErrGameAlreadyStarted
			}
			return nil, err
		}
		used[track.ID] = struct{}{}
		rounds = append(rounds, round)
	}
	if len(rounds) == 0 {
		return nil, ErrNoTracks
	}
	return rounds, nil
}

// createAndStartRound draws a song for a battle-royale round past the
// initial batch and starts it. Redelivery finds the round already created.
func (e *Engine) createAndStartRound(ctx context.Context, gameID string, number int) error {
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != StatusPlaying {
		logging.FromContext(ctx).Debugw("skip round creation, game not playing", "game_id", gameID, "round", number)
		return nil
	}

	round, err := e.store.FindRound(ctx, gameID, number)
	if errors.Is(err, ErrRoundNotFound) {
		round, err = e.createRound(ctx, game, number)
	}
	if err != nil {
		return err
	}
	return e.advanceTo(ctx, gameID, round)
}

func (e *Engine) createRound(ctx context.Context, game *Game, number int) (*Round, error) {
	rounds, err := e.store.ListRounds(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	used := make(map[string]struct{}, len(rounds))
	for _, r := range rounds {
		if r.Song.TrackID != "" {
			used[r.Song.TrackID] = struct{}{}
		}
	}
	tracks, err := e.tracks.Pick(ctx, PickRequest{Playlist: game.Settings.PlaylistTag, Count: 1, Exclude: used})
	if err != nil {
		return nil, fmt.Errorf("pick tracks: %w", err)
	}
	if len(tracks) == 0 {
		// Every track has been played; repeat rather than stall the game.
		tracks, err = e.tracks.Pick(ctx, PickRequest{Playlist: game.Settings.PlaylistTag, Count: 1})
		if err != nil {
			return nil, fmt.Errorf("pick tracks: %w", err)
		}
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	round := &Round{
		ID:     newID(),
		GameID: game.ID,
		Number: number,
		Song:   e.songFor(ctx, tracks[0]),
	}
	err = e.store.InsertRound(ctx, round)
	if errors.Is(err, ErrRoundExists) {
		return e.store.FindRound(ctx, game.ID, number)
	}
	if err != nil {
		return nil, err
	}
	return round, nil
}

// songFor snapshots catalog data for a track, falling back to a placeholder
// so a catalog outage never blocks a round.
func (e *Engine) songFor(ctx context.Context, track Track) Song {
	found := catalog.Placeholder(track.Artist, track.Title)
	if e.catalog != nil {
		lookedUp, err := e.catalog.Lookup(ctx, track.Artist, track.Title)
		if err != nil {
			logging.FromContext(ctx).Warnw("catalog lookup failed, using placeholder",
				"artist", track.Artist,
				"title", track.Title,
				"error", err,
			)
		} else {
			found = lookedUp
		}
	}
	return Song{
		TrackID:     track.ID,
		Artist:      found.Artist,
		Title:       found.Title,
		PreviewURL:  found.PreviewURL,
		ArtworkURL:  found.ArtworkURL,
		ReleaseYear: found.ReleaseYear,
	}
}

// RoundView is a round as players may see it: song details stay hidden
// until the round has ended.
type RoundView struct {
	ID         string    `json:"id"`
	Number     int       `json:"number"`
	Phase      Phase     `json:"phase"`
	PreviewURL string    `json:"preview_url,omitempty"`
	EndsAt     time.Time `json:"ends_at,omitzero"`
	Song       *Song     `json:"song,omitempty"`
}

type Snapshot struct {
	Game    *Game       `json:"game"`
	Players []*Player   `json:"players"`
	Rounds  []RoundView `json:"rounds"`
	Current *RoundView  `json:"current_round,omitempty"`
}

func (e *Engine) Snapshot(ctx context.Context, gameID string) (*Snapshot, error) {
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	players, err := e.store.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(players, func(i, j int) bool { return players[i].Score > players[j].Score })
	rounds, err := e.store.ListRounds(ctx, gameID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Game: game, Players: players, Rounds: make([]RoundView, 0, len(rounds))}
	for _, round := range rounds {
		view := RoundView{ID: round.ID, Number: round.Number, Phase: round.Phase}
		if round.Phase == PhaseActive {
			view.PreviewURL = round.Song.PreviewURL
			view.EndsAt = round.ActiveAt.Add(game.Settings.RoundDuration())
		}
		if round.Phase == PhaseEnded {
			song := round.Song
			view.Song = &song
		}
		snap.Rounds = append(snap.Rounds, view)
		if game.Status == StatusPlaying && round.Number == game.CurrentRound {
			current := view
			snap.Current = &current
		}
	}
	return snap, nil
}

func (e *Engine) findGame(ctx context.Context, codeOrID string) (*Game, error) {
	game, err := e.store.FindGameByJoinCode(ctx, strings.ToUpper(strings.TrimSpace(codeOrID)))
	if errors.Is(err, ErrGameNotFound) {
		return e.store.GetGame(ctx, codeOrID)
	}
	return game, err
}

func (e *Engine) newPlayer(game *Game, id, name string, now time.Time) (*Player, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	return &Player{
		ID:           id,
		GameID:       game.ID,
		SessionToken: token,
		Name:         name,
		Lives:        game.Settings.StartingLives,
		JoinedAt:     now,
	}, nil
}

func cleanName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", ErrInvalidName
	}
	if len([]rune(name)) > maxNameLength {
		return "", fmt.Errorf("%w: at most %d characters", ErrInvalidName, maxNameLength)
	}
	return name, nil
}
