package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"music-round/internal/trivia"
)

// Store is the Postgres-backed trivia.Store. Updates lock the row with
// SELECT ... FOR UPDATE inside a transaction.
type Store struct {
	conn *gorm.DB
}

var _ trivia.Store = (*Store)(nil)

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

func lockRow[R any](tx *gorm.DB, missing error, query string, args ...any) (*R, error) {
	var record R
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(query, args...).First(&record).Error
	if err != nil {
		return nil, notFound(err, missing)
	}
	return &record, nil
}

func (s *Store) InsertGame(ctx context.Context, game *trivia.Game) error {
	record := newGameRecord(game)
	if err := s.conn.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return trivia.ErrJoinCodeTaken
		}
		return err
	}
	return nil
}

func (s *Store) GetGame(ctx context.Context, id string) (*trivia.Game, error) {
	var record Game
	if err := s.conn.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, notFound(err, trivia.ErrGameNotFound)
	}
	return record.toDomain(), nil
}

func (s *Store) FindGameByJoinCode(ctx context.Context, code string) (*trivia.Game, error) {
	var record Game
	err := s.conn.WithContext(ctx).First(&record, "join_code = ?", strings.ToUpper(code)).Error
	if err != nil {
		return nil, notFound(err, trivia.ErrGameNotFound)
	}
	return record.toDomain(), nil
}

func (s *Store) UpdateGame(ctx context.Context, id string, fn func(*trivia.Game) error) (*trivia.Game, error) {
	var out *trivia.Game
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := lockRow[Game](tx, trivia.ErrGameNotFound, "id = ?", id)
		if err != nil {
			return err
		}
		game := record.toDomain()
		if err := fn(game); err != nil {
			return err
		}
		updated := newGameRecord(game)
		updated.CreatedAt = record.CreatedAt
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = game
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) InsertPlayer(ctx context.Context, player *trivia.Player) error {
	record := newPlayerRecord(player)
	if err := s.conn.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return trivia.ErrNameTaken
		}
		return err
	}
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, id string) (*trivia.Player, error) {
	var record Player
	if err := s.conn.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, notFound(err, trivia.ErrPlayerNotFound)
	}
	return record.toDomain(), nil
}

func (s *Store) ListPlayers(ctx context.Context, gameID string) ([]*trivia.Player, error) {
	var records []Player
	err := s.conn.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("joined_at ASC").Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	players := make([]*trivia.Player, 0, len(records))
	for _, record := range records {
		players = append(players, record.toDomain())
	}
	return players, nil
}

func (s *Store) UpdatePlayer(ctx context.Context, id string, fn func(*trivia.Player) error) (*trivia.Player, error) {
	var out *trivia.Player
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := lockRow[Player](tx, trivia.ErrPlayerNotFound, "id = ?", id)
		if err != nil {
			return err
		}
		player := record.toDomain()
		if err := fn(player); err != nil {
			return err
		}
		updated := newPlayerRecord(player)
		updated.CreatedAt = record.CreatedAt
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = player
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) InsertRound(ctx context.Context, round *trivia.Round) error {
	record := newRoundRecord(round)
	if err := s.conn.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return trivia.ErrRoundExists
		}
		return err
	}
	return nil
}

func (s *Store) GetRound(ctx context.Context, id string) (*trivia.Round, error) {
	var record Round
	if err := s.conn.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, notFound(err, trivia.ErrRoundNotFound)
	}
	return record.toDomain(), nil
}

func (s *Store) FindRound(ctx context.Context, gameID string, number int) (*trivia.Round, error) {
	var record Round
	err := s.conn.WithContext(ctx).First(&record, "game_id = ? AND number = ?", gameID, number).Error
	if err != nil {
		return nil, notFound(err, trivia.ErrRoundNotFound)
	}
	return record.toDomain(), nil
}

func (s *Store) ListRounds(ctx context.Context, gameID string) ([]*trivia.Round, error) {
	var records []Round
	if err := s.conn.WithContext(ctx).Where("game_id = ?", gameID).Order("number ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	rounds := make([]*trivia.Round, 0, len(records))
	for _, record := range records {
		rounds = append(rounds, record.toDomain())
	}
	return rounds, nil
}

func (s *Store) UpdateRound(ctx context.Context, id string, fn func(*trivia.Round) error) (*trivia.Round, error) {
	var out *trivia.Round
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := lockRow[Round](tx, trivia.ErrRoundNotFound, "id = ?", id)
		if err != nil {
			return err
		}
		round := record.toDomain()
		if err := fn(round); err != nil {
			return err
		}
		updated := newRoundRecord(round)
		updated.CreatedAt = record.CreatedAt
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = round
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetAnswer(ctx context.Context, roundID, playerID string) (*trivia.Answer, error) {
	var record Answer
	err := s.conn.WithContext(ctx).First(&record, "round_id = ? AND player_id = ?", roundID, playerID).Error
	if err != nil {
		return nil, notFound(err, trivia.ErrAnswerNotFound)
	}
	return record.toDomain(), nil
}

func (s *Store) ListAnswers(ctx context.Context, roundID string) ([]*trivia.Answer, error) {
	var records []Answer
	if err := s.conn.WithContext(ctx).Where("round_id = ?", roundID).Order("player_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	answers := make([]*trivia.Answer, 0, len(records))
	for _, record := range records {
		answers = append(answers, record.toDomain())
	}
	return answers, nil
}

// UpsertAnswer retries once when a concurrent first write created the row
// between our lookup and insert; the retry then locks that row.
func (s *Store) UpsertAnswer(ctx context.Context, roundID, playerID string, fn func(*trivia.Answer, bool) error) (*trivia.Answer, error) {
	var (
		out *trivia.Answer
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		out, err = s.upsertAnswer(ctx, roundID, playerID, fn)
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	return out, err
}

func (s *Store) upsertAnswer(ctx context.Context, roundID, playerID string, fn func(*trivia.Answer, bool) error) (*trivia.Answer, error) {
	var out *trivia.Answer
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := lockRow[Answer](tx, trivia.ErrAnswerNotFound, "round_id = ? AND player_id = ?", roundID, playerID)
		exists := err == nil
		if err != nil && !errors.Is(err, trivia.ErrAnswerNotFound) {
			return err
		}
		answer := &trivia.Answer{RoundID: roundID, PlayerID: playerID}
		if exists {
			answer = record.toDomain()
		}
		if err := fn(answer, exists); err != nil {
			return err
		}
		updated := newAnswerRecord(answer)
		if exists {
			updated.CreatedAt = record.CreatedAt
			err = tx.Save(&updated).Error
		} else {
			err = tx.Create(&updated).Error
		}
		if err != nil {
			return err
		}
		out = answer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
