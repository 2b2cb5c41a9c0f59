package db

import (
	"strings"
	"time"

	"music-round/internal/trivia"
)

type Player struct {
	ID     string `gorm:"primaryKey;size:36"`
	GameID string `gorm:"size:36;index;not null;uniqueIndex:idx_players_game_name"`
	Name   string `gorm:"size:64;not null"`
	// NameKey makes names unique per game regardless of case.
	NameKey           string `gorm:"size:64;not null;uniqueIndex:idx_players_game_name"`
	SessionToken      string `gorm:"size:32;not null"`
	IsHost            bool   `gorm:"not null;default:false"`
	Ready             bool   `gorm:"not null;default:false"`
	Score             int    `gorm:"not null;default:0"`
	HintsUsed         int    `gorm:"not null;default:0"`
	Lives             int    `gorm:"not null;default:0"`
	Eliminated        bool   `gorm:"not null;default:false"`
	EliminatedAtRound *int
	RoundsSettled     int       `gorm:"not null;default:0"`
	JoinedAt          time.Time `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func newPlayerRecord(player *trivia.Player) Player {
	return Player{
		ID:                player.ID,
		GameID:            player.GameID,
		Name:              player.Name,
		NameKey:           strings.ToLower(player.Name),
		SessionToken:      player.SessionToken,
		IsHost:            player.IsHost,
		Ready:             player.Ready,
		Score:             player.Score,
		HintsUsed:         player.HintsUsed,
		Lives:             player.Lives,
		Eliminated:        player.Eliminated,
		EliminatedAtRound: player.EliminatedAtRound,
		RoundsSettled:     player.RoundsSettled,
		JoinedAt:          player.JoinedAt,
	}
}

func (p Player) toDomain() *trivia.Player {
	return &trivia.Player{
		ID:                p.ID,
		GameID:            p.GameID,
		SessionToken:      p.SessionToken,
		Name:              p.Name,
		IsHost:            p.IsHost,
		Ready:             p.Ready,
		Score:             p.Score,
		HintsUsed:         p.HintsUsed,
		Lives:             p.Lives,
		Eliminated:        p.Eliminated,
		EliminatedAtRound: p.EliminatedAtRound,
		RoundsSettled:     p.RoundsSettled,
		JoinedAt:          p.JoinedAt.UTC(),
	}
}
