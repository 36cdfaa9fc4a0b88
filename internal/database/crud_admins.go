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
	"strings"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/credential"
	"github.com/tomtom215/easyflix/internal/models"
)

// EnsureAdmin creates the admin when the username is unused. An existing
// admin is left untouched; created reports whether a row was inserted.
func (db *DB) EnsureAdmin(ctx context.Context, username, secret, role string) (created bool, err error) {
	username = strings.TrimSpace(username)
	if username == "" || secret == "" {
		return false, apperr.Validation("admin username and password are required")
	}
	if role == "" {
		role = models.DefaultAdminRole
	}

	cred, err := credential.New(secret)
	if err != nil {
		return false, apperr.Internal(err, "failed to derive credential")
	}

	err = db.withTx(ctx, "ensure_admin", func(ctx context.Context, tx *sql.Tx) error {
		var n int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE username = ?`, username).Scan(&n); err != nil {
			return fmt.Errorf("failed to check admin: %w", err)
		}
		if n > 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO admins (username, salt, digest, role) VALUES (?, ?, ?, ?)`,
			username, cred.Salt, cred.Digest, role); err != nil {
			return fmt.Errorf("failed to insert admin: %w", err)
		}
		created = true
		return nil
	})
	return created, err
}

// AuthenticateAdmin verifies an administrator.
func (db *DB) AuthenticateAdmin(ctx context.Context, username, secret string) (*models.Admin, error) {
	var admin *models.Admin
	err := db.withTx(ctx, "authenticate_admin", func(ctx context.Context, tx *sql.Tx) error {
		var (
			a    models.Admin
			cred credential.Credential
		)
		err := tx.QueryRowContext(ctx,
			`SELECT id, username, role, salt, digest FROM admins WHERE username = ?`, username,
		).Scan(&a.ID, &a.Username, &a.Role, &cred.Salt, &cred.Digest)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("admin %q not found", username)
		}
		if err != nil {
			return fmt.Errorf("failed to load admin: %w", err)
		}
		if !cred.Matches(secret) {
			return apperr.InvalidCredential("invalid password")
		}
		admin = &a
		return nil
	})
	return admin, err
}
