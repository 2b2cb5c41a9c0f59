package db

import (
	"time"

	"gorm.io/datatypes"

	"music-round/internal/hints"
	"music-round/internal/trivia"
)

type Answer struct {
	ID             string `gorm:"primaryKey;size:36"`
	GameID         string `gorm:"size:36;index;not null"`
	RoundID        string `gorm:"size:36;index;not null;uniqueIndex:idx_answers_round_player"`
	PlayerID       string `gorm:"size:36;index;not null;uniqueIndex:idx_answers_round_player"`
	Artist         string `gorm:"size:255"`
	Title          string `gorm:"size:255"`
	SubmittedAt    *time.Time
	Attempts       int  `gorm:"not null;default:0"`
	ArtistCorrect  bool `gorm:"not null;default:false"`
	TitleCorrect   bool `gorm:"not null;default:false"`
	ArtistPoints   int  `gorm:"not null;default:0"`
	TitlePoints    int  `gorm:"not null;default:0"`
	Points         int  `gorm:"not null;default:0"`
	ArtistLockedAt *time.Time
	TitleLockedAt  *time.Time
	LockedAt       *time.Time
	HintsUsed      int `gorm:"not null;default:0"`
	LastHintAt     *time.Time
	RevealedArtist datatypes.JSONType[[]hints.Letter] `gorm:"type:jsonb"`
	RevealedTitle  datatypes.JSONType[[]hints.Letter] `gorm:"type:jsonb"`
	CreatedAt      time.Time                          `gorm:"not null"`
	UpdatedAt      time.Time                          `gorm:"not null"`
}

func newAnswerRecord(answer *trivia.Answer) Answer {
	return Answer{
		ID:             answer.ID,
		GameID:         answer.GameID,
		RoundID:        answer.RoundID,
		PlayerID:       answer.PlayerID,
		Artist:         answer.Artist,
		Title:          answer.Title,
		SubmittedAt:    timePtr(answer.SubmittedAt),
		Attempts:       answer.Attempts,
		ArtistCorrect:  answer.ArtistCorrect,
		TitleCorrect:   answer.TitleCorrect,
		ArtistPoints:   answer.ArtistPoints,
		TitlePoints:    answer.TitlePoints,
		Points:         answer.Points,
		ArtistLockedAt: timePtr(answer.ArtistLockedAt),
		TitleLockedAt:  timePtr(answer.TitleLockedAt),
		LockedAt:       timePtr(answer.LockedAt),
		HintsUsed:      answer.HintsUsed,
		LastHintAt:     timePtr(answer.LastHintAt),
		RevealedArtist: datatypes.NewJSONType(answer.RevealedArtist),
		RevealedTitle:  datatypes.NewJSONType(answer.RevealedTitle),
	}
}

func (a Answer) toDomain() *trivia.Answer {
	return &trivia.Answer{
		ID:             a.ID,
		GameID:         a.GameID,
		RoundID:        a.RoundID,
		PlayerID:       a.PlayerID,
		Artist:         a.Artist,
		Title:          a.Title,
		SubmittedAt:    timeValue(a.SubmittedAt),
		Attempts:       a.Attempts,
		ArtistCorrect:  a.ArtistCorrect,
		TitleCorrect:   a.TitleCorrect,
		ArtistPoints:   a.ArtistPoints,
		TitlePoints:    a.TitlePoints,
		Points:         a.Points,
		ArtistLockedAt: timeValue(a.ArtistLockedAt),
		TitleLockedAt:  timeValue(a.TitleLockedAt),
		LockedAt:       timeValue(a.LockedAt),
		HintsUsed:      a.HintsUsed,
		LastHintAt:     timeValue(a.LastHintAt),
		RevealedArtist: a.RevealedArtist.Data(),
		RevealedTitle:  a.RevealedTitle.Data(),
	}
}
