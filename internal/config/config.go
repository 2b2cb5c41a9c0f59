package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL              string `envconfig:"DATABASE_URL"`
	DBMaxOpenConns           int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns           int    `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	DBConnMaxLifetimeSeconds int    `envconfig:"DB_CONN_MAX_LIFETIME_SECONDS" default:"300"`
	DBConnMaxIdleTimeSeconds int    `envconfig:"DB_CONN_MAX_IDLE_SECONDS" default:"60"`

	// JobsJournalPath is the bbolt file holding pending round transitions.
	// Empty keeps them in memory only.
	JobsJournalPath string `envconfig:"JOBS_JOURNAL_PATH" default:"data/jobs.db"`

	CatalogBaseURL   string        `envconfig:"CATALOG_BASE_URL" default:"https://itunes.apple.com"`
	CatalogTimeout   time.Duration `envconfig:"CATALOG_TIMEOUT" default:"5s"`
	CatalogCacheSize int           `envconfig:"CATALOG_CACHE_SIZE" default:"512"`

	PublicBaseURL             string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	BattleRoyaleInitialRounds int    `envconfig:"BATTLE_ROYALE_INITIAL_ROUNDS" default:"10"`
	DefaultPlaylist           string `envconfig:"DEFAULT_PLAYLIST"`

	// TracksFile seeds the in-memory library when no database is configured.
	TracksFile string `envconfig:"TRACKS_FILE"`
}

func Default() Config {
	return Config{
		Port:                      "8080",
		DBMaxOpenConns:            10,
		DBMaxIdleConns:            10,
		DBConnMaxLifetimeSeconds:  300,
		DBConnMaxIdleTimeSeconds:  60,
		JobsJournalPath:           "data/jobs.db",
		CatalogBaseURL:            "https://itunes.apple.com",
		CatalogTimeout:            5 * time.Second,
		CatalogCacheSize:          512,
		PublicBaseURL:             "http://localhost:8080",
		BattleRoyaleInitialRounds: 10,
	}
}

// Load reads the configuration from the environment, falling back to the
// defaults for anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.BattleRoyaleInitialRounds <= 0 {
		return Config{}, fmt.Errorf("load config: BATTLE_ROYALE_INITIAL_ROUNDS must be positive, got %d", cfg.BattleRoyaleInitialRounds)
	}
	return cfg, nil
}
