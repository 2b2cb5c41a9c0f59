package db

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"music-round/internal/trivia"
)

type Track struct {
	ID        uint      `gorm:"primaryKey"`
	Artist    string    `gorm:"size:255;not null;uniqueIndex:idx_tracks_playlist_artist_title"`
	Title     string    `gorm:"size:255;not null;uniqueIndex:idx_tracks_playlist_artist_title"`
	Playlist  string    `gorm:"size:64;not null;default:'';index;uniqueIndex:idx_tracks_playlist_artist_title"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (t Track) toDomain() trivia.Track {
	return trivia.Track{
		ID:       strconv.FormatUint(uint64(t.ID), 10),
		Artist:   t.Artist,
		Title:    t.Title,
		Playlist: t.Playlist,
	}
}

// TrackLibrary draws round songs from the tracks table.
type TrackLibrary struct {
	conn *gorm.DB
}

var _ trivia.TrackSource = (*TrackLibrary)(nil)

func NewTrackLibrary(conn *gorm.DB) *TrackLibrary {
	return &TrackLibrary{conn: conn}
}

func (l *TrackLibrary) Pick(ctx context.Context, req trivia.PickRequest) ([]trivia.Track, error) {
	query := l.conn.WithContext(ctx).Model(&Track{})
	if req.Playlist != "" {
		query = query.Where("lower(playlist) = ?", strings.ToLower(req.Playlist))
	}
	if len(req.Exclude) > 0 {
		excluded := make([]uint64, 0, len(req.Exclude))
		for id := range req.Exclude {
			if value, err := strconv.ParseUint(id, 10, 64); err == nil {
				excluded = append(excluded, value)
			}
		}
		if len(excluded) > 0 {
			query = query.Where("id NOT IN ?", excluded)
		}
	}
	var records []Track
	if err := query.Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	candidates := make([]trivia.Track, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, record.toDomain())
	}
	return trivia.PickTracks(candidates, req), nil
}

// UpsertTracks adds tracks to the library, skipping ones already present.
// It returns how many rows were processed.
func UpsertTracks(ctx context.Context, conn *gorm.DB, tracks []trivia.Track) (int, error) {
	processed := 0
	for _, track := range tracks {
		artist := strings.TrimSpace(track.Artist)
		title := strings.TrimSpace(track.Title)
		if artist == "" || title == "" {
			continue
		}
		entry := Track{Artist: artist, Title: title, Playlist: strings.TrimSpace(track.Playlist)}
		err := conn.WithContext(ctx).
			FirstOrCreate(&entry, Track{Artist: entry.Artist, Title: entry.Title, Playlist: entry.Playlist}).Error
		if err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}
