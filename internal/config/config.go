// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every optional setting
//  2. Config File: Optional YAML config file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: Override any mapped setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Database    DatabaseConfig    `koanf:"database"`
	Transport   TransportConfig   `koanf:"transport"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	API         APIConfig         `koanf:"api"`
	Server      ServerConfig      `koanf:"server"`
	Admin       AdminConfig       `koanf:"admin"`
	Logging     LoggingConfig     `koanf:"logging"`
	Supervisor  SupervisorConfig  `koanf:"supervisor"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH / EASYFLIX_DB_PATH: database file (":memory:" for ephemeral)
//   - DUCKDB_MAX_MEMORY: memory cap passed to DuckDB (default: 1GB)
//   - DUCKDB_THREADS: worker threads (0 = NumCPU)
//   - SEED_CATALOG: load the default catalog when the title table is empty
//   - DUCKDB_CREATE_IF_MISSING: create the database file when it does not exist
type DatabaseConfig struct {
	Path        string `koanf:"path"`
	MaxMemory   string `koanf:"max_memory"`
	Threads     int    `koanf:"threads"`
	SeedCatalog bool   `koanf:"seed_catalog"`

	// CreateIfMissing allows opening a Path that does not exist yet. When
	// false a missing file is a startup error.
	CreateIfMissing bool `koanf:"create_if_missing"`

	// CheckpointInterval is how often the server flushes the DuckDB WAL.
	// Zero disables periodic checkpoints.
	CheckpointInterval time.Duration `koanf:"checkpoint_interval"`
}

// TransportConfig holds the symmetric envelope encryption settings.
//
// The passphrase is only required when Enabled is true.
type TransportConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Passphrase string `koanf:"passphrase"`
	Salt       string `koanf:"salt"`
	Iterations int    `koanf:"iterations"`
}

// Aggregation trigger modes.
const (
	AggregationModeSync  = "sync"
	AggregationModeAsync = "async"
	AggregationModeOff   = "off"
)

// AggregationConfig controls when the daily snapshot is recomputed.
//
// Environment Variables:
//   - AGGREGATION_MODE: sync, async or off (default: sync)
//   - AGGREGATION_SCHEDULE: cron expression for periodic recomputes (empty disables)
//   - AGGREGATION_MIN_INTERVAL: minimum spacing between queued recomputes
//   - AGGREGATION_QUEUE_SIZE: buffered triggers before new ones are dropped
//   - AGGREGATION_TIMEZONE: zone used to decide "today" (default: UTC)
type AggregationConfig struct {
	Mode                    string        `koanf:"mode"`
	Schedule                string        `koanf:"schedule"`
	MinInterval             time.Duration `koanf:"min_interval"`
	QueueSize               int           `koanf:"queue_size"`
	Timezone                string        `koanf:"timezone"`
	Timeout                 time.Duration `koanf:"timeout"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// Location resolves the configured timezone, falling back to UTC.
func (a AggregationConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// APIConfig holds API pagination settings
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AdminConfig bootstraps the administrator account on seed and serve.
// An empty username skips the bootstrap.
type AdminConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Role     string `koanf:"role"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig holds suture restart policy settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load reads configuration from the layered sources.
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
