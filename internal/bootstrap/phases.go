package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	infraconfig "github.com/jonesrussell/north-cloud/headlines/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/headlines/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/headlines/internal/config"
	"github.com/jonesrussell/north-cloud/headlines/internal/database"
	"github.com/jonesrussell/north-cloud/headlines/internal/events"
)

// DefaultConfigPath is used when neither --config nor CONFIG_PATH is set.
const DefaultConfigPath = "config.yml"

// LoadConfig loads and validates configuration. An empty path falls back to
// CONFIG_PATH, then DefaultConfigPath.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = infraconfig.GetConfigPath(DefaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates the service logger tagged with name and version.
func CreateLogger(cfg *config.Config) (infralogger.Logger, error) {
	log, err := infralogger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		infralogger.String("service", cfg.Service.Name),
		infralogger.String("version", cfg.Service.Version),
	), nil
}

// SetupDatabase connects and, when configured or forced, migrates up.
func SetupDatabase(ctx context.Context, cfg *config.Config, log infralogger.Logger, forceMigrate bool) (*database.DB, error) {
	db, err := database.New(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	if cfg.MigrateOnStart || forceMigrate {
		if err = db.Migrate(database.Up); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate on start: %w", err)
		}
	}
	return db, nil
}

// SetupEventPublisher creates an optional event publisher if Redis is enabled.
// Both results are nil when Redis is disabled or unreachable.
func SetupEventPublisher(cfg *config.Config, log infralogger.Logger) (*redis.Client, *events.Publisher) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client, err := infraredis.NewClient(infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis not available, events disabled", infralogger.Error(err))
		return nil, nil
	}

	log.Info("Event publisher initialized", infralogger.String("redis_address", cfg.Redis.Address))
	return client, events.NewPublisher(client, log)
}
