package tracklist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"artist,title,playlist",
		"Queen, Bohemian Rhapsody, rock",
		"ABBA,Dancing Queen",
		",No Artist,pop",
		"Lonely",
		`"Earth, Wind & Fire",September,funk`,
	}, "\n")

	tracks, err := ReadCSV(strings.NewReader(input), "mixed")
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d: %+v", len(tracks), tracks)
	}
	if tracks[0].Title != "Bohemian Rhapsody" || tracks[0].Playlist != "rock" {
		t.Fatalf("unexpected first track %+v", tracks[0])
	}
	if tracks[1].Playlist != "mixed" {
		t.Fatalf("expected default playlist, got %q", tracks[1].Playlist)
	}
	if tracks[2].Artist != "Earth, Wind & Fire" {
		t.Fatalf("expected quoted artist, got %q", tracks[2].Artist)
	}
	if tracks[0].ID == tracks[1].ID {
		t.Fatalf("expected distinct ids")
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), ""); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestScanDirSkipsUntaggedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not audio"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.mp3"), []byte("no tags here"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	tracks, err := ScanDir(dir, "rock")
	if err != nil {
		t.Fatalf("scan dir: %v", err)
	}
	if len(tracks) != 0 {
		t.Fatalf("expected no tracks, got %+v", tracks)
	}
}
