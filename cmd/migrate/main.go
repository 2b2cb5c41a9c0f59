package main

import (
	"errors"
	"flag"
	"log"

	"music-round/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://db/migrations", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("migration setup failed: %v", err)
	}
	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migrations applied")
}
