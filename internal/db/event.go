package db

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"music-round/internal/trivia"
)

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    string         `gorm:"size:36;index;not null"`
	RoundID   *string        `gorm:"size:36;index"`
	PlayerID  *string        `gorm:"size:36;index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

// Recorder appends game events to the events table.
type Recorder struct {
	conn *gorm.DB
}

func NewRecorder(conn *gorm.DB) *Recorder {
	return &Recorder{conn: conn}
}

func (r *Recorder) Record(ctx context.Context, event trivia.Event) error {
	record, err := newEventRecord(event)
	if err != nil {
		return err
	}
	return r.conn.WithContext(ctx).Create(&record).Error
}

func newEventRecord(event trivia.Event) (Event, error) {
	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		GameID:    event.GameID,
		RoundID:   optionalString(event.RoundID),
		PlayerID:  optionalString(event.PlayerID),
		Type:      event.Type,
		Payload:   datatypes.JSON(raw),
		CreatedAt: event.At,
	}, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
