// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/easyflix/internal/config"
	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/models"
)

// DB wraps the DuckDB connection and provides the account, catalog and
// snapshot operations.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	now             func() time.Time
	loc             *time.Location
	defaultPageSize int
	maxPageSize     int
	maxRetries      int
}

// Option customizes a DB.
type Option func(*DB)

// WithClock replaces time.Now. Purchase dates and snapshot timestamps use it.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// WithLocation sets the zone that decides the calendar date of "today".
func WithLocation(loc *time.Location) Option {
	return func(db *DB) {
		if loc != nil {
			db.loc = loc
		}
	}
}

// WithPageLimits sets the default and maximum listing page sizes.
func WithPageLimits(def, max int) Option {
	return func(db *DB) {
		db.defaultPageSize = def
		db.maxPageSize = max
	}
}

// New opens the DuckDB database at cfg.Path and creates the schema. A file
// path that does not exist is an error unless cfg.CreateIfMissing is set.
func New(cfg *config.DatabaseConfig, opts ...Option) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		if _, err := os.Stat(cfg.Path); err != nil {
			if !errors.Is(err, os.ErrNotExist) || !cfg.CreateIfMissing {
				return nil, fmt.Errorf("database %s is not available: %w", cfg.Path, err)
			}
		}
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := newDB(conn, cfg, opts...)

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// newDB applies defaults and options around an open connection.
func newDB(conn *sql.DB, cfg *config.DatabaseConfig, opts ...Option) *DB {
	db := &DB{
		conn:            conn,
		cfg:             cfg,
		now:             time.Now,
		loc:             time.UTC,
		defaultPageSize: models.DefaultPageSize,
		maxPageSize:     models.MaxPageSize,
		maxRetries:      3,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Today is the current calendar date in the configured zone.
func (db *DB) Today() models.Date {
	return models.DateOf(db.now().In(db.loc))
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()
	return db.conn.Close()
}

// Checkpoint flushes the WAL into the database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "CHECKPOINT")
	return err
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// initialize creates tables and sequences.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}

	ctx, cancel := schemaContext()
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}
	return nil
}
