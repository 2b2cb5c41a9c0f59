package main

import (
	"context"
	"flag"
	"log"

	"music-round/internal/config"
	"music-round/internal/db"
	"music-round/internal/tracklist"
	"music-round/internal/trivia"
)

func main() {
	filePath := flag.String("file", "", "path to an artist,title,playlist csv")
	dir := flag.String("dir", "", "directory of tagged audio files")
	playlist := flag.String("playlist", "", "playlist tag for tracks that do not name one")
	flag.Parse()

	if *filePath == "" && *dir == "" {
		log.Fatal("one of -file or -dir is required")
	}
	if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var tracks []trivia.Track
	if *filePath != "" {
		records, err := tracklist.ReadFile(*filePath, *playlist)
		if err != nil {
			log.Fatalf("failed to read tracks: %v", err)
		}
		tracks = append(tracks, records...)
	}
	if *dir != "" {
		records, err := tracklist.ScanDir(*dir, *playlist)
		if err != nil {
			log.Fatalf("failed to scan %s: %v", *dir, err)
		}
		tracks = append(tracks, records...)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	loaded, err := db.UpsertTracks(context.Background(), conn, tracks)
	if err != nil {
		log.Fatalf("failed to upsert tracks: %v", err)
	}
	log.Printf("loaded %d tracks", loaded)
}
