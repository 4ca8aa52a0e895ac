package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/postmeta/internal/app"
	"github.com/lueurxax/postmeta/internal/platform/config"
	db "github.com/lueurxax/postmeta/internal/storage"
)

const (
	modeServe   = "serve"
	modeFetch   = "fetch"
	modeMigrate = "migrate"
)

func main() {
	mode := flag.String("mode", modeServe, "Service mode (serve, fetch, migrate)")
	target := flag.String("url", "", "URL to extract (fetch mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database *db.DB

	if cfg.StorageEnabled() && *mode != modeFetch {
		database, err = db.NewWithOptions(ctx, cfg.Database.PostgresDSN, db.PoolOptions{
			MaxConns:          cfg.Database.MaxConnections,
			MinConns:          cfg.Database.MinConnections,
			MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
			MaxConnLifetime:   cfg.Database.MaxConnLifetime,
			HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
		}, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer database.Close()

		if *mode == modeServe {
			if err := database.Migrate(ctx); err != nil {
				logger.Fatal().Err(err).Msg("failed to run migrations")
			}
		}
	}

	application := app.New(cfg, database, &logger)

	if err := runMode(ctx, application, *mode, *target); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.IsLocal() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode, target string) error {
	switch mode {
	case modeServe:
		return application.RunServe(ctx)
	case modeFetch:
		if target == "" {
			log.Fatalf("Usage: %s --mode=fetch --url=<url>", os.Args[0])
		}

		return application.RunFetch(ctx, target, os.Stdout)
	case modeMigrate:
		return application.RunMigrate(ctx)
	default:
		log.Fatalf("Usage: %s --mode=[serve|fetch|migrate]", os.Args[0])

		return nil
	}
}
