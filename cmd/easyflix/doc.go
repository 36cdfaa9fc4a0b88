// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

// Package main is the entry point for the EasyFlix storefront core.
//
// # Subcommands
//
//	easyflix exec -command NAME [-p key=value ...] [-params JSON] [-token TOKEN]
//	easyflix serve
//	easyflix seed
//
// exec runs a single command against the configured database and prints the
// response envelope as JSON on stdout. With -token the argument is treated as
// an encrypted request and the encrypted wrapper is printed instead. The daily
// snapshot is recomputed synchronously after mutating commands unless
// AGGREGATION_MODE=off.
//
// serve starts the supervisor tree:
//
//	easyflix
//	├── data-layer         (DuckDB checkpoints)
//	├── aggregation-layer  (snapshot worker: queue + cron + breaker)
//	└── api-layer          (HTTP server)
//
// seed loads the default catalog into an empty title table and bootstraps the
// configured admin. It is the only subcommand that always creates a missing
// database file; serve does so only with SEED_CATALOG or
// DUCKDB_CREATE_IF_MISSING, and exec exits 1 without printing an envelope.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (DUCKDB_PATH, TRANSPORT_PASSPHRASE, AGGREGATION_MODE, ...)
//   - Config file (CONFIG_PATH or ./config.yaml)
//   - Built-in defaults
//
// Logs always go to stderr.
//
// # Signal Handling
//
// serve shuts down gracefully on SIGINT and SIGTERM: the HTTP server drains,
// the snapshot queue closes and the database is checkpointed and closed.
package main
