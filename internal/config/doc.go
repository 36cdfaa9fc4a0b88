// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

/*
Package config provides layered configuration for EasyFlix.

Configuration is loaded with Koanf v2 from three layers, later layers winning:
built-in defaults, an optional YAML file (CONFIG_PATH or config.yaml), and a fixed set
of environment variables. Unmapped environment variables are ignored.

# Sections

  - database: DuckDB path, memory cap, threads, checkpoint interval, catalog seeding
  - transport: envelope encryption passphrase, salt and PBKDF2 iterations
  - aggregation: snapshot trigger mode (sync, async, off), cron schedule, queue and breaker
  - api: default and maximum page sizes for title listings
  - server: HTTP listen address, timeouts, rate limiting, CORS
  - admin: administrator bootstrap credentials
  - logging: zerolog level, format and caller info
  - supervisor: suture restart policy

# Example

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load config")
	}
	db, err := database.New(&cfg.Database,
	    database.WithPageLimits(cfg.API.DefaultPageSize, cfg.API.MaxPageSize))
*/
package config
