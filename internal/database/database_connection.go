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
	"runtime"
	"strings"
	"time"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/metrics"
)

// configureConnectionPool sets connection pool parameters
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// txFunc is the body of one transaction. The ctx it receives is detached
// from the caller's cancellation.
type txFunc func(ctx context.Context, tx *sql.Tx) error

// withTx runs fn in its own transaction. The transaction is committed when fn
// returns nil and rolled back otherwise. DuckDB optimistic-concurrency
// conflicts are retried with a short exponential backoff.
//
// The caller's ctx is consulted only before the first attempt. Once a
// transaction has begun it runs to completion: BeginTx, every statement and
// the retry backoff see context.WithoutCancel(ctx).
//
// Errors already classified by apperr pass through; unique-constraint
// violations become Conflict and everything else becomes InternalError.
func (db *DB) withTx(ctx context.Context, op string, fn txFunc) error {
	start := time.Now()
	err := ctx.Err()
	if err == nil {
		err = db.retryTx(context.WithoutCancel(ctx), op, fn)
	}
	kind := ""
	if err != nil {
		err = classify(op, err)
		kind = apperr.KindOf(err).String()
	}
	metrics.RecordDBOperation(op, time.Since(start), kind)
	return err
}

func (db *DB) retryTx(ctx context.Context, op string, fn txFunc) error {
	var lastErr error
	for attempt := 0; attempt < db.maxRetries; attempt++ {
		err := db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransactionConflict(err) || attempt == db.maxRetries-1 {
			return err
		}

		metrics.RecordTransactionRetry(op)
		logging.Debug().Str("operation", op).Int("attempt", attempt+1).Err(err).Msg("Retrying transaction after conflict")

		time.Sleep(time.Millisecond * time.Duration(1<<uint(attempt))) // 1ms, 2ms, 4ms
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (db *DB) runTx(ctx context.Context, fn txFunc) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// classify maps a raw store error onto the shared taxonomy.
func classify(op string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if isDuplicateKey(err) {
		return apperr.Wrap(apperr.KindConflict, err, "%s: duplicate value", op)
	}
	return apperr.Internal(err, "%s failed", op)
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "cannot update a table that has been altered")
}

// isDuplicateKey checks if an error is a PRIMARY KEY or UNIQUE violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Duplicate key") ||
		strings.Contains(errStr, "violates unique constraint") ||
		strings.Contains(errStr, "violates primary key constraint")
}
