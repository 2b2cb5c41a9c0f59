package trivia

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps everything in process. Callers always get copies, so
// records only change through the Update methods.
type MemoryStore struct {
	mu      sync.Mutex
	games   map[string]*Game
	players map[string]*Player
	rounds  map[string]*Round
	answers map[answerKey]*Answer
}

type answerKey struct {
	roundID  string
	playerID string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:   make(map[string]*Game),
		players: make(map[string]*Player),
		rounds:  make(map[string]*Round),
		answers: make(map[answerKey]*Answer),
	}
}

func (s *MemoryStore) InsertGame(_ context.Context, game *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.games {
		if existing.JoinCode == game.JoinCode {
			return ErrJoinCodeTaken
		}
	}
	copied := *game
	s.games[game.ID] = &copied
	return nil
}

func (s *MemoryStore) GetGame(_ context.Context, id string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	copied := *game
	return &copied, nil
}

func (s *MemoryStore) FindGameByJoinCode(_ context.Context, code string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, game := range s.games {
		if strings.EqualFold(game.JoinCode, code) {
			copied := *game
			return &copied, nil
		}
	}
	return nil, ErrGameNotFound
}

func (s *MemoryStore) UpdateGame(_ context.Context, id string, fn func(*Game) error) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	working := *game
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.games[id] = &working
	result := working
	return &result, nil
}

func (s *MemoryStore) InsertPlayer(_ context.Context, player *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[player.GameID]; !ok {
		return ErrGameNotFound
	}
	for _, existing := range s.players {
		if existing.GameID == player.GameID && strings.EqualFold(existing.Name, player.Name) {
			return ErrNameTaken
		}
	}
	s.players[player.ID] = player.clone()
	return nil
}

func (s *MemoryStore) GetPlayer(_ context.Context, id string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player.clone(), nil
}

func (s *MemoryStore) ListPlayers(_ context.Context, gameID string) ([]*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var players []*Player
	for _, player := range s.players {
		if player.GameID == gameID {
			players = append(players, player.clone())
		}
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].ID < players[j].ID
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players, nil
}

func (s *MemoryStore) UpdatePlayer(_ context.Context, id string, fn func(*Player) error) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	working := player.clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.players[id] = working
	return working.clone(), nil
}

func (s *MemoryStore) InsertRound(_ context.Context, round *Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rounds {
		if existing.GameID == round.GameID && existing.Number == round.Number {
			return ErrRoundExists
		}
	}
	copied := *round
	s.rounds[round.ID] = &copied
	return nil
}

func (s *MemoryStore) GetRound(_ context.Context, id string) (*Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[id]
	if !ok {
		return nil, ErrRoundNotFound
	}
	copied := *round
	return &copied, nil
}

func (s *MemoryStore) FindRound(_ context.Context, gameID string, number int) (*Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, round := range s.rounds {
		if round.GameID == gameID && round.Number == number {
			copied := *round
			return &copied, nil
		}
	}
	return nil, ErrRoundNotFound
}

func (s *MemoryStore) ListRounds(_ context.Context, gameID string) ([]*Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rounds []*Round
	for _, round := range s.rounds {
		if round.GameID == gameID {
			copied := *round
			rounds = append(rounds, &copied)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })
	return rounds, nil
}

func (s *MemoryStore) UpdateRound(_ context.Context, id string, fn func(*Round) error) (*Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[id]
	if !ok {
		return nil, ErrRoundNotFound
	}
	working := *round
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.rounds[id] = &working
	result := working
	return &result, nil
}

func (s *MemoryStore) GetAnswer(_ context.Context, roundID, playerID string) (*Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[answerKey{roundID, playerID}]
	if !ok {
		return nil, ErrAnswerNotFound
	}
	return answer.clone(), nil
}

func (s *MemoryStore) ListAnswers(_ context.Context, roundID string) ([]*Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var answers []*Answer
	for key, answer := range s.answers {
		if key.roundID == roundID {
			answers = append(answers, answer.clone())
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].PlayerID < answers[j].PlayerID })
	return answers, nil
}

func (s *MemoryStore) UpsertAnswer(_ context.Context, roundID, playerID string, fn func(*Answer, bool) error) (*Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := answerKey{roundID, playerID}
	existing, exists := s.answers[key]
	working := &Answer{RoundID: roundID, PlayerID: playerID}
	if exists {
		working = existing.clone()
	}
	if err := fn(working, exists); err != nil {
		return nil, err
	}
	s.answers[key] = working
	return working.clone(), nil
}
