// Package config defines the headlines service configuration.
package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	infraconfig "github.com/jonesrussell/north-cloud/headlines/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/infrastructure/profiling"
	"github.com/jonesrussell/north-cloud/headlines/internal/database"
	"github.com/jonesrussell/north-cloud/headlines/internal/extractor"
	"github.com/jonesrussell/north-cloud/headlines/internal/fetcher"
)

const (
	defaultServiceName  = "headlines"
	defaultVersion      = "dev"
	defaultPort         = 3000
	defaultSourceURL    = "https://www.bbc.com/"
	defaultRedisAddress = "localhost:6379"
	defaultCron         = "*/30 * * * *"
)

type Config struct {
	Service        ServiceConfig       `yaml:"service"`
	Database       database.Config     `yaml:"database"`
	Redis          RedisConfig         `yaml:"redis"`
	Fetch          fetcher.Config      `yaml:"fetch"`
	Extractor      extractor.Selectors `yaml:"extractor"`
	Scheduler      SchedulerConfig     `yaml:"scheduler"`
	Logging        infralogger.Config  `yaml:"logging"`
	Profiling      profiling.Config    `yaml:"profiling"`
	MigrateOnStart bool                `env:"MIGRATE_ON_START" yaml:"migrate_on_start"`
}

type ServiceConfig struct {
	Name        string   `env:"SERVICE_NAME"    yaml:"name"`
	Version     string   `env:"SERVICE_VERSION" yaml:"version"`
	Port        int      `env:"HEADLINES_PORT"  yaml:"port"`
	Debug       bool     `env:"APP_DEBUG"       yaml:"debug"`
	CORSOrigins []string `env:"CORS_ORIGINS"    yaml:"cors_origins"`
}

// RedisConfig holds Redis connection configuration for event publishing.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"`
}

// SchedulerConfig drives periodic re-ingestion. Cron uses the standard
// five-field syntax.
//
// RunOnStart ingests once when serve starts, before the first tick.
type SchedulerConfig struct {
	Enabled    bool   `env:"SCHEDULER_ENABLED"      yaml:"enabled"`
	Cron       string `env:"SCHEDULER_CRON"         yaml:"cron"`
	RunOnStart bool   `env:"SCHEDULER_RUN_ON_START" yaml:"run_on_start"`
}

func (c *Config) Validate() error {
	var errs []error

	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		errs = append(errs, err)
	}
	if err := infraconfig.ValidateRequired("database.host", c.Database.Host); err != nil {
		errs = append(errs, err)
	}
	if err := infraconfig.ValidateRequired("database.user", c.Database.User); err != nil {
		errs = append(errs, err)
	}
	if err := infraconfig.ValidateRequired("database.name", c.Database.Name); err != nil {
		errs = append(errs, err)
	}
	if err := infraconfig.ValidateURL("fetch.source_url", c.Fetch.SourceURL); err != nil {
		errs = append(errs, err)
	}
	if err := infraconfig.ValidateLogLevel("logging.level", c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Redis.Enabled {
		if err := infraconfig.ValidateRequired("redis.address", c.Redis.Address); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Cron); err != nil {
			errs = append(errs, &infraconfig.ValidationError{Field: "scheduler.cron", Message: err.Error()})
		}
	}

	return errors.Join(errs...)
}

// Load reads path, applies defaults and environment overrides, and validates.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults(path, setDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = defaultServiceName
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = defaultVersion
	}
	if cfg.Service.Port == 0 {
		cfg.Service.Port = defaultPort
	}
	if len(cfg.Service.CORSOrigins) == 0 {
		cfg.Service.CORSOrigins = []string{"*"}
	}

	cfg.Database.SetDefaults()

	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	// Redis.Enabled stays false unless set: events are opt-in.

	if cfg.Fetch.SourceURL == "" {
		cfg.Fetch.SourceURL = defaultSourceURL
	}
	cfg.Fetch.SetDefaults()
	cfg.Extractor.SetDefaults()

	if cfg.Scheduler.Cron == "" {
		cfg.Scheduler.Cron = defaultCron
	}

	cfg.Logging.SetDefaults()
	cfg.Profiling.SetDefaults()
	if cfg.Service.Debug {
		cfg.Logging.Development = true
	}
}
