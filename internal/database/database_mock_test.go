// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/config"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { closeQuietly(conn) })
	return newDB(conn, &config.DatabaseConfig{}), mock
}

var consentUpdate = regexp.QuoteMeta(`UPDATE accounts SET marketing_consent = ? WHERE id = ?`)

func TestWithTxRetriesConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	conflict := errors.New("TransactionContext Error: Transaction conflict: cannot update a row that was updated concurrently")

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(consentUpdate).WithArgs(true, int64(7)).WillReturnError(conflict)
		mock.ExpectRollback()
	}
	mock.ExpectBegin()
	mock.ExpectExec(consentUpdate).WithArgs(true, int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := db.ChangeMarketingConsent(context.Background(), 7, true); err != nil {
		t.Fatalf("ChangeMarketingConsent() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithTxGivesUpAfterMaxRetries(t *testing.T) {
	db, mock := newMockDB(t)
	conflict := errors.New("Transaction conflict")

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(consentUpdate).WillReturnError(conflict)
		mock.ExpectRollback()
	}

	err := db.ChangeMarketingConsent(context.Background(), 7, false)
	assertKind(t, err, apperr.KindInternal)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithTxRollsBackOnNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(consentUpdate).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := db.ChangeMarketingConsent(context.Background(), 99, true)
	assertKind(t, err, apperr.KindNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithTxMapsDuplicateKey(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(consentUpdate).WillReturnError(errors.New(`Constraint Error: Duplicate key "id: 1" violates primary key constraint`))
	mock.ExpectRollback()

	err := db.ChangeMarketingConsent(context.Background(), 1, true)
	assertKind(t, err, apperr.KindConflict)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithTxCommitFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(consentUpdate).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("IO Error: could not write WAL"))

	err := db.ChangeMarketingConsent(context.Background(), 1, true)
	assertKind(t, err, apperr.KindInternal)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithTxDetachesFromCallerCancellation(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(consentUpdate).WithArgs(true, int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	err := db.withTx(ctx, "change_marketing_consent", func(txCtx context.Context, tx *sql.Tx) error {
		cancel()
		if txCtx.Err() != nil {
			t.Errorf("transaction context canceled: %v", txCtx.Err())
		}
		_, err := tx.ExecContext(txCtx, `UPDATE accounts SET marketing_consent = ? WHERE id = ?`, true, int64(7))
		return err
	})
	if err != nil {
		t.Fatalf("withTx() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithTxSkipsCanceledContext(t *testing.T) {
	db, mock := newMockDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := db.ChangeMarketingConsent(ctx, 7, true)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements: %v", err)
	}
}
