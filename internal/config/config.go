// Package config defines the service configuration and its defaults.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zones must resolve on hosts without a zoneinfo database
)

// Storage backend names.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Storage selects the day log backend: memory, file, redis or postgres.
	Storage string `koanf:"storage"`

	// DataDir is the root of the file backend.
	DataDir string `koanf:"data_dir"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPassword string `koanf:"redis_password"`

	// PostgresDSN is a libpq style connection string or URL.
	PostgresDSN string `koanf:"postgres_dsn"`

	// HorizonDays bounds how far back streaks are scanned.
	HorizonDays int `koanf:"horizon_days"`

	// StatsWindowDays is the statistics window ending at the reference date.
	StatsWindowDays int `koanf:"stats_window_days"`

	// Timezone is the IANA zone in which "today" is evaluated.
	Timezone string `koanf:"timezone"`

	// FallbackStreak is reported for users without any record.
	FallbackStreak int `koanf:"fallback_streak"`

	// StrictBulk rejects a whole bulk edit when any date is malformed or in the future.
	StrictBulk bool `koanf:"strict_bulk"`

	// MaxBulkDates caps the dates in one bulk edit.
	MaxBulkDates int `koanf:"max_bulk_dates"`

	// DedupeSize bounds the remembered idempotency keys.
	DedupeSize int `koanf:"dedupe_size"`

	// SummaryCacheMB sizes the streak summary cache.
	SummaryCacheMB int `koanf:"summary_cache_mb"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		Storage:         StorageMemory,
		DataDir:         "data",
		RedisAddr:       "localhost:6379",
		HorizonDays:     365,
		StatsWindowDays: 30,
		Timezone:        "UTC",
		MaxBulkDates:    366,
		DedupeSize:      100_000,
		SummaryCacheMB:  16,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	if c.HorizonDays < 1 {
		return invalid("horizon_days must be at least 1, got %d", c.HorizonDays)
	}
	if c.StatsWindowDays < 1 {
		return invalid("stats_window_days must be at least 1, got %d", c.StatsWindowDays)
	}
	if c.FallbackStreak < 0 {
		return invalid("fallback_streak must not be negative, got %d", c.FallbackStreak)
	}
	if c.MaxBulkDates < 1 {
		return invalid("max_bulk_dates must be at least 1, got %d", c.MaxBulkDates)
	}
	if c.SummaryCacheMB < 1 {
		return invalid("summary_cache_mb must be at least 1, got %d", c.SummaryCacheMB)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Storage {
	case StorageMemory:
	case StorageFile:
		if c.DataDir == "" {
			return invalid("data_dir is required for file storage")
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return invalid("redis_addr is required for redis storage")
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return invalid("postgres_dsn is required for postgres storage")
		}
	default:
		return invalid("unknown storage %q", c.Storage)
	}
	return nil
}
