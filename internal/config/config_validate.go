// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/easyflix/internal/transport"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var validAggregationModes = map[string]bool{
	AggregationModeSync:  true,
	AggregationModeAsync: true,
	AggregationModeOff:   true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateTransport(); err != nil {
		return err
	}

	if err := c.validateAggregation(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAdmin(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	if c.Database.CheckpointInterval < 0 {
		return fmt.Errorf("DUCKDB_CHECKPOINT_INTERVAL must be >= 0, got %v", c.Database.CheckpointInterval)
	}
	return nil
}

// validateTransport only enforces the key material when encryption is enabled.
func (c *Config) validateTransport() error {
	if !c.Transport.Enabled {
		return nil
	}
	if c.Transport.Passphrase == "" {
		return fmt.Errorf("TRANSPORT_PASSPHRASE is required when transport encryption is enabled")
	}
	if containsPlaceholder(c.Transport.Passphrase) {
		return fmt.Errorf("TRANSPORT_PASSPHRASE contains a placeholder value")
	}
	if c.Transport.Salt == "" {
		return fmt.Errorf("TRANSPORT_SALT must not be empty")
	}
	if c.Transport.Iterations < transport.MinIterations {
		return fmt.Errorf("TRANSPORT_ITERATIONS must be >= %d, got %d", transport.MinIterations, c.Transport.Iterations)
	}
	return nil
}

// TransportCodecConfig converts the section into the codec's configuration.
func (c *Config) TransportCodecConfig() transport.Config {
	return transport.Config{
		Passphrase: c.Transport.Passphrase,
		Salt:       c.Transport.Salt,
		Iterations: c.Transport.Iterations,
	}
}

func (c *Config) validateAggregation() error {
	if !validAggregationModes[c.Aggregation.Mode] {
		return fmt.Errorf("AGGREGATION_MODE must be one of: sync, async, off")
	}
	if c.Aggregation.Schedule != "" {
		if _, err := cron.ParseStandard(c.Aggregation.Schedule); err != nil {
			return fmt.Errorf("AGGREGATION_SCHEDULE is not a valid cron expression: %w", err)
		}
	}
	if c.Aggregation.QueueSize < 1 {
		return fmt.Errorf("AGGREGATION_QUEUE_SIZE must be >= 1, got %d", c.Aggregation.QueueSize)
	}
	if c.Aggregation.MinInterval < 0 {
		return fmt.Errorf("AGGREGATION_MIN_INTERVAL must not be negative")
	}
	if c.Aggregation.Timezone != "" {
		if _, err := time.LoadLocation(c.Aggregation.Timezone); err != nil {
			return fmt.Errorf("AGGREGATION_TIMEZONE %q is not a known zone: %w", c.Aggregation.Timezone, err)
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be >= 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) must be >= API_DEFAULT_PAGE_SIZE (%d)", c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 1, got %d", c.Server.RateLimitRequests)
	}
	if c.Server.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %v", c.Server.RateLimitWindow)
	}
	return nil
}

// ShouldWarnAboutCORS reports whether the server accepts any origin.
func (c *Config) ShouldWarnAboutCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateAdmin() error {
	if c.Admin.Username == "" {
		return nil
	}
	if len(c.Admin.Password) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters when ADMIN_USERNAME is set")
	}
	if containsPlaceholder(c.Admin.Password) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns are values that mean a secret was never filled in.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
