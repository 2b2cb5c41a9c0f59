// Package tracklist reads track library entries from CSV files and from the
// tags of audio files.
package tracklist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"music-round/internal/logging"
	"music-round/internal/trivia"
)

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".m4a": {}, ".flac": {}, ".ogg": {}, ".mp4": {},
}

// ReadCSV parses rows of artist,title[,playlist]. A header row starting with
// "artist" is skipped, as are rows missing an artist or title. Rows without a
// playlist get defaultPlaylist.
func ReadCSV(r io.Reader, defaultPlaylist string) ([]trivia.Track, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var tracks []trivia.Track
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "artist") {
			continue
		}
		if len(row) < 2 {
			continue
		}
		artist := strings.TrimSpace(row[0])
		title := strings.TrimSpace(row[1])
		if artist == "" || title == "" {
			continue
		}
		playlist := defaultPlaylist
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			playlist = strings.TrimSpace(row[2])
		}
		tracks = append(tracks, trivia.Track{
			ID:       strconv.Itoa(len(tracks) + 1),
			Artist:   artist,
			Title:    title,
			Playlist: playlist,
		})
	}
	return tracks, nil
}

func ReadFile(path, defaultPlaylist string) ([]trivia.Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	tracks, err := ReadCSV(file, defaultPlaylist)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return tracks, nil
}

// ScanDir walks dir for audio files and returns one track per file whose
// tags carry both an artist and a title. Files without usable tags are
// skipped with a warning.
func ScanDir(dir, playlist string) ([]trivia.Track, error) {
	logger := logging.DefaultLogger()
	var tracks []trivia.Track
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		track, err := readTags(path)
		if err != nil {
			logger.Warnw("skipping audio file", "path", path, "error", err)
			return nil
		}
		track.ID = strconv.Itoa(len(tracks) + 1)
		track.Playlist = playlist
		tracks = append(tracks, track)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

func readTags(path string) (trivia.Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return trivia.Track{}, err
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return trivia.Track{}, err
	}
	artist := strings.TrimSpace(meta.Artist())
	if artist == "" {
		artist = strings.TrimSpace(meta.AlbumArtist())
	}
	title := strings.TrimSpace(meta.Title())
	if artist == "" || title == "" {
		return trivia.Track{}, errors.New("missing artist or title tag")
	}
	return trivia.Track{Artist: artist, Title: title}, nil
}
