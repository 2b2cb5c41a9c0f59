package db

import (
	"time"

	"gorm.io/datatypes"

	"music-round/internal/trivia"
)

type Game struct {
	ID           string                              `gorm:"primaryKey;size:36"`
	JoinCode     string                              `gorm:"size:12;uniqueIndex;not null"`
	HostPlayerID string                              `gorm:"size:36;not null"`
	Mode         string                              `gorm:"size:32;not null"`
	Status       string                              `gorm:"size:32;not null;index"`
	Settings     datatypes.JSONType[trivia.Settings] `gorm:"type:jsonb;not null"`
	CurrentRound int                                 `gorm:"not null;default:0"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func newGameRecord(game *trivia.Game) Game {
	return Game{
		ID:           game.ID,
		JoinCode:     game.JoinCode,
		HostPlayerID: game.HostPlayerID,
		Mode:         string(game.Mode),
		Status:       string(game.Status),
		Settings:     datatypes.NewJSONType(game.Settings),
		CurrentRound: game.CurrentRound,
		StartedAt:    timePtr(game.StartedAt),
		FinishedAt:   timePtr(game.FinishedAt),
		CreatedAt:    game.CreatedAt,
	}
}

func (g Game) toDomain() *trivia.Game {
	return &trivia.Game{
		ID:           g.ID,
		JoinCode:     g.JoinCode,
		HostPlayerID: g.HostPlayerID,
		Mode:         trivia.Mode(g.Mode),
		Status:       trivia.Status(g.Status),
		Settings:     g.Settings.Data(),
		CurrentRound: g.CurrentRound,
		CreatedAt:    g.CreatedAt.UTC(),
		StartedAt:    timeValue(g.StartedAt),
		FinishedAt:   timeValue(g.FinishedAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
