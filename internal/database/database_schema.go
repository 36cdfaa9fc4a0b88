// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

/*
database_schema.go - Database Schema Management

Tables:
  - accounts: customer profiles with salted credential digests
  - titles: the catalog; price is NULL for Basic titles
  - owned_titles: per-account owned list, ordered by position
  - purchases: one row per non-zero acquisition charge
  - admins: administrator identities (separate from accounts)
  - daily_statistics / daily_financials: one snapshot row per calendar date

Money columns are BIGINT cents. There are no foreign keys; cascades are done
explicitly inside the owning transaction so deletes stay a fixed sequence of
statements.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates sequences, tables and indexes.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func getTableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_accounts START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_titles START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_purchases START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_admins START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_owned START 1`,

		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_accounts'),
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			salt TEXT NOT NULL,
			digest TEXT NOT NULL,
			tier TEXT NOT NULL CHECK (tier IN ('Basic', 'Premium')),
			total_spent BIGINT NOT NULL DEFAULT 0,
			favourite_genre TEXT,
			marketing_consent BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS titles (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_titles'),
			name TEXT NOT NULL,
			release_date DATE NOT NULL,
			rating TEXT NOT NULL,
			director TEXT NOT NULL,
			length_minutes INTEGER NOT NULL,
			genre TEXT NOT NULL,
			access_tier TEXT NOT NULL CHECK (access_tier IN ('Basic', 'Premium')),
			price BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS owned_titles (
			account_id BIGINT NOT NULL,
			title_id BIGINT NOT NULL,
			position BIGINT NOT NULL DEFAULT nextval('seq_owned'),
			PRIMARY KEY (account_id, title_id)
		)`,

		`CREATE TABLE IF NOT EXISTS purchases (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_purchases'),
			account_id BIGINT NOT NULL,
			title_id BIGINT NOT NULL,
			purchased_on DATE NOT NULL,
			price BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS admins (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_admins'),
			username TEXT NOT NULL UNIQUE,
			salt TEXT NOT NULL,
			digest TEXT NOT NULL,
			role TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS daily_statistics (
			snapshot_date DATE PRIMARY KEY,
			total_users BIGINT NOT NULL,
			basic_subscriptions BIGINT NOT NULL,
			premium_subscriptions BIGINT NOT NULL,
			total_subscriptions BIGINT NOT NULL,
			titles_purchased BIGINT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS daily_financials (
			snapshot_date DATE PRIMARY KEY,
			purchase_revenue BIGINT NOT NULL,
			basic_subscription_revenue BIGINT NOT NULL,
			premium_subscription_revenue BIGINT NOT NULL,
			subscription_revenue BIGINT NOT NULL,
			combined_revenue BIGINT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_titles_genre ON titles(genre)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_account ON purchases(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_title ON purchases(title_id)`,
	}
}
