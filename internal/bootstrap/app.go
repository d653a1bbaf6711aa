// Package bootstrap wires the headlines service together from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	infracontext "github.com/jonesrussell/north-cloud/headlines/infrastructure/context"
	infragin "github.com/jonesrussell/north-cloud/headlines/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/api"
	"github.com/jonesrussell/north-cloud/headlines/internal/config"
	"github.com/jonesrussell/north-cloud/headlines/internal/database"
	"github.com/jonesrussell/north-cloud/headlines/internal/events"
	"github.com/jonesrussell/north-cloud/headlines/internal/extractor"
	"github.com/jonesrussell/north-cloud/headlines/internal/fetcher"
	"github.com/jonesrussell/north-cloud/headlines/internal/handlers"
	"github.com/jonesrussell/north-cloud/headlines/internal/ingest"
	"github.com/jonesrussell/north-cloud/headlines/internal/metrics"
	"github.com/jonesrussell/north-cloud/headlines/internal/notes"
	"github.com/jonesrussell/north-cloud/headlines/internal/repository"
	"github.com/jonesrussell/north-cloud/headlines/internal/scheduler"
)

// App holds every long-lived component. Close releases them.
type App struct {
	Config    *config.Config
	Logger    infralogger.Logger
	DB        *database.DB
	Redis     *redis.Client
	Publisher *events.Publisher
	Metrics   *metrics.Metrics

	Articles *repository.ArticleRepository
	Notes    *repository.NoteRepository
	Ingest   *ingest.Service
	Manager  *notes.Manager
}

// Options are command-line overrides applied after the config file.
type Options struct {
	ConfigPath string
	Debug      bool
	// Migrate forces migrations up regardless of migrate_on_start.
	Migrate    bool
}

// New runs the start-up phases: config, logger, database, events, services.
func New(ctx context.Context, opts Options) (*App, error) {
	// Phase 1: config and logger
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		cfg.Service.Debug = true
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: log}

	// Phase 2: database
	app.DB, err = SetupDatabase(ctx, cfg, log, opts.Migrate)
	if err != nil {
		app.Close()
		return nil, err
	}

	// Phase 3: event publisher (optional)
	app.Redis, app.Publisher = SetupEventPublisher(cfg, log)

	// Phase 4: services
	app.Metrics = metrics.New()
	app.Articles = repository.NewArticleRepository(app.DB.DB(), log)
	app.Notes = repository.NewNoteRepository(app.DB.DB(), log)
	app.Ingest = ingest.NewService(
		cfg.Fetch.SourceURL,
		fetcher.New(cfg.Fetch),
		extractor.New(cfg.Extractor),
		app.Articles,
		log,
		ingest.WithPublisher(app.Publisher),
		ingest.WithMetrics(app.Metrics),
	)
	app.Manager = notes.NewManager(app.Notes, app.Articles, app.Publisher, app.Metrics, log)

	return app, nil
}

// HTTPServer builds the API server.
func (a *App) HTTPServer() *infragin.Server {
	deps := api.Deps{
		Handler:      handlers.NewArticleHandler(a.Ingest, a.Articles, a.Manager, a.Logger),
		Metrics:      a.Metrics,
		DatabasePing: a.DB.Ping,
	}
	if a.Redis != nil {
		deps.RedisPing = func() error {
			ctx, cancel := infracontext.WithPingTimeout(context.Background())
			defer cancel()
			return a.Redis.Ping(ctx).Err()
		}
	}
	return api.NewServer(a.Config, deps, a.Logger)
}

// Scheduler returns nil when scheduled ingestion is disabled.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	if !a.Config.Scheduler.Enabled {
		return nil, nil
	}
	s, err := scheduler.New(a.Config.Scheduler.Cron, a.Config.Fetch.Timeout*2, a.Ingest, a.Logger,
		scheduler.WithInitialRun(a.Config.Scheduler.RunOnStart),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return s, nil
}

// Close releases the pool and Redis client and flushes the logger.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis", infralogger.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Failed to close database", infralogger.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
