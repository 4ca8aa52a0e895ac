// Package app wires configuration, storage and the extraction pipeline into
// the runnable modes of the postmeta binary:
//
//   - serve: HTTP API plus health and metrics endpoints
//   - fetch: extract one URL and print the result
//   - migrate: apply database migrations and exit
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/lueurxax/postmeta/internal/api"
	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/core/links"
	"github.com/lueurxax/postmeta/internal/core/media"
	"github.com/lueurxax/postmeta/internal/core/ports"
	"github.com/lueurxax/postmeta/internal/core/vk"
	"github.com/lueurxax/postmeta/internal/extract"
	"github.com/lueurxax/postmeta/internal/platform/config"
	"github.com/lueurxax/postmeta/internal/platform/observability"
	db "github.com/lueurxax/postmeta/internal/storage"
)

const (
	logFieldRules  = "rules_path"
	logFieldVKAuth = "vk_token"
	logFieldDB     = "storage"
)

// App holds the application dependencies. database is nil when no DSN is configured.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// NewPipeline builds the extraction pipeline from configuration.
func (a *App) NewPipeline() (*extract.Pipeline, error) {
	rules, err := media.LoadRules(a.cfg.Output.MediaRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load media rules: %w", err)
	}

	matcher, err := media.Compile(rules)
	if err != nil {
		return nil, fmt.Errorf("compile media rules: %w", err)
	}

	if a.cfg.Output.MediaRulesPath != "" {
		a.logger.Info().Str(logFieldRules, a.cfg.Output.MediaRulesPath).Msg("media rules loaded")
	}

	limits := a.cfg.Limits()
	fetcher := links.NewWebFetcher(a.cfg.Fetch.RPS, a.cfg.Fetch.Timeout, a.cfg.Fetch.UserAgent)

	vkClient := vk.NewClient(fetcher, vk.Config{
		BaseURL:     a.cfg.VK.APIBaseURL,
		Version:     a.cfg.VK.APIVersion,
		AccessToken: a.cfg.VK.AccessToken,
	})

	a.logger.Debug().Bool(logFieldVKAuth, a.cfg.VK.AccessToken != "").Msg("vk api client configured")

	extractor := extract.NewExtractor(fetcher, vkClient, media.NewCollector(matcher, limits.MediaMaxItems), limits, a.logger)

	return extract.New(extractor, extract.Options{
		Limits:          limits,
		VKDefaultDomain: a.cfg.VK.DefaultDomain,
		VKBatchMaxCount: a.cfg.VK.BatchMaxCount,
	}, a.logger), nil
}

// RunServe serves the API until ctx is cancelled.
func (a *App) RunServe(ctx context.Context) error {
	a.logger.Info().Msg("Starting serve mode")

	pipeline, err := a.NewPipeline()
	if err != nil {
		return err
	}

	var (
		store  ports.PostStore
		pinger observability.Pinger
	)

	if a.database != nil {
		store = a.database
		pinger = a.database
	}

	a.logger.Info().Bool(logFieldDB, store != nil).Msg("news import storage")

	handler := api.NewHandler(pipeline, store, api.Options{
		AdminToken:    a.cfg.HTTP.AdminAPIToken,
		RatePerMinute: a.cfg.HTTP.RatePerMinute,
		BodyLimit:     a.cfg.HTTP.RequestBodyLimit,
	}, a.logger)

	srv := observability.NewServer(pinger, a.cfg.HTTP.Port, handler, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	return nil
}

// RunFetch extracts rawURL once and writes the post as indented JSON to out.
func (a *App) RunFetch(ctx context.Context, rawURL string, out io.Writer) error {
	pipeline, err := a.NewPipeline()
	if err != nil {
		return err
	}

	post, err := pipeline.Run(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(post); err != nil {
		return fmt.Errorf("encode post: %w", err)
	}

	return nil
}

// RunMigrate applies pending migrations.
func (a *App) RunMigrate(ctx context.Context) error {
	if a.database == nil {
		return fmt.Errorf("migrate: %w", apperrors.ErrStorageDisabled)
	}

	if err := a.database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	a.logger.Info().Msg("migrations applied")

	return nil
}
