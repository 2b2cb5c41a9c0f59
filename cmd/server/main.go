package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"music-round/internal/catalog"
	"music-round/internal/config"
	"music-round/internal/db"
	"music-round/internal/jobs"
	"music-round/internal/logging"
	"music-round/internal/server"
	"music-round/internal/tracklist"
	"music-round/internal/trivia"
)

func main() {
	if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalw("server stopped", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) error {
	opts := trivia.Options{InitialBattleRoyaleRounds: cfg.BattleRoyaleInitialRounds}

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg)
		if err != nil {
			return err
		}
		if err := db.Migrate(conn); err != nil {
			return err
		}
		opts.Store = db.NewStore(conn)
		opts.Tracks = db.NewTrackLibrary(conn)
		opts.Events = db.NewRecorder(conn)
	} else {
		library := trivia.NewMemoryLibrary(nil)
		if cfg.TracksFile != "" {
			tracks, err := tracklist.ReadFile(cfg.TracksFile, cfg.DefaultPlaylist)
			if err != nil {
				return err
			}
			library.Add(tracks...)
		}
		logger.Warnw("DATABASE_URL not set; keeping games in memory", "tracks", library.Len())
		opts.Tracks = library
	}

	var journal jobs.Journal = jobs.NopJournal{}
	if cfg.JobsJournalPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.JobsJournalPath), 0o755); err != nil {
			return err
		}
		bolt, err := jobs.OpenBoltJournal(cfg.JobsJournalPath)
		if err != nil {
			return err
		}
		defer bolt.Close()
		journal = bolt
	}
	queue := jobs.NewTimerQueue(journal)
	opts.Jobs = queue

	client, err := catalog.New(catalog.Config{
		BaseURL:   cfg.CatalogBaseURL,
		Timeout:   cfg.CatalogTimeout,
		CacheSize: cfg.CatalogCacheSize,
	})
	if err != nil {
		return err
	}
	opts.Catalog = client

	engine := trivia.NewEngine(opts)
	if err := queue.Start(ctx, engine.HandleJob); err != nil {
		return err
	}
	defer queue.Stop()

	srv := server.New(engine, cfg).WithLogger(logger.Named("server"))
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Infow("music-round server listening", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
