package db

import (
	"time"

	"music-round/internal/trivia"
)

type Round struct {
	ID          string `gorm:"primaryKey;size:36"`
	GameID      string `gorm:"size:36;index;not null;uniqueIndex:idx_rounds_game_number"`
	Number      int    `gorm:"not null;uniqueIndex:idx_rounds_game_number"`
	TrackID     string `gorm:"size:64"`
	Artist      string `gorm:"size:255;not null"`
	Title       string `gorm:"size:255;not null"`
	PreviewURL  string `gorm:"size:512"`
	ArtworkURL  string `gorm:"size:512"`
	ReleaseYear int
	Phase       string `gorm:"size:32;not null;default:''"`
	PreparingAt *time.Time
	ActiveAt    *time.Time
	EndedAt     *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func newRoundRecord(round *trivia.Round) Round {
	return Round{
		ID:          round.ID,
		GameID:      round.GameID,
		Number:      round.Number,
		TrackID:     round.Song.TrackID,
		Artist:      round.Song.Artist,
		Title:       round.Song.Title,
		PreviewURL:  round.Song.PreviewURL,
		ArtworkURL:  round.Song.ArtworkURL,
		ReleaseYear: round.Song.ReleaseYear,
		Phase:       string(round.Phase),
		PreparingAt: timePtr(round.PreparingAt),
		ActiveAt:    timePtr(round.ActiveAt),
		EndedAt:     timePtr(round.EndedAt),
	}
}

func (r Round) toDomain() *trivia.Round {
	return &trivia.Round{
		ID:     r.ID,
		GameID: r.GameID,
		Number: r.Number,
		Song: trivia.Song{
			TrackID:     r.TrackID,
			Artist:      r.Artist,
			Title:       r.Title,
			PreviewURL:  r.PreviewURL,
			ArtworkURL:  r.ArtworkURL,
			ReleaseYear: r.ReleaseYear,
		},
		Phase:       trivia.Phase(r.Phase),
		PreparingAt: timeValue(r.PreparingAt),
		ActiveAt:    timeValue(r.ActiveAt),
		EndedAt:     timeValue(r.EndedAt),
	}
}
