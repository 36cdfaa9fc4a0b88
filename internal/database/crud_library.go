// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/models"
)

// AcquireTitle appends a title to an account's owned list. A Basic account
// pays the price of a Premium title; the charge is added to its spend and a
// purchase dated today is recorded. Free acquisitions record no purchase.
func (db *DB) AcquireTitle(ctx context.Context, accountID, titleID int64) (*models.Acquisition, error) {
	var result models.Acquisition
	err := db.withTx(ctx, "acquire_title", func(ctx context.Context, tx *sql.Tx) error {
		account, err := loadAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		title, err := loadTitle(ctx, tx, titleID)
		if err != nil {
			return err
		}

		var owned int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM owned_titles WHERE account_id = ? AND title_id = ?`,
			accountID, titleID).Scan(&owned); err != nil {
			return fmt.Errorf("failed to check owned list: %w", err)
		}
		if owned > 0 {
			return apperr.Conflict("account %d already owns show %d", accountID, titleID)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO owned_titles (account_id, title_id) VALUES (?, ?)`, accountID, titleID); err != nil {
			return fmt.Errorf("failed to append to owned list: %w", err)
		}

		charge := account.Tier.AcquireCharge(title)
		result = models.Acquisition{
			AccountID:     accountID,
			TitleID:       titleID,
			AmountCharged: charge,
			TotalSpent:    account.TotalSpent,
		}
		if charge <= 0 {
			return nil
		}

		result.TotalSpent += charge
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET total_spent = ? WHERE id = ?`, int64(result.TotalSpent), accountID); err != nil {
			return fmt.Errorf("failed to update spend: %w", err)
		}

		var purchaseID int64
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO purchases (account_id, title_id, purchased_on, price)
			VALUES (?, ?, CAST(? AS DATE), ?)
			RETURNING id`,
			accountID, titleID, db.Today().String(), int64(charge)).Scan(&purchaseID); err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}
		result.PurchaseID = &purchaseID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ReleaseTitle removes a title from an account's owned list. Nothing is
// refunded and the purchase record stays.
func (db *DB) ReleaseTitle(ctx context.Context, accountID, titleID int64) error {
	return db.withTx(ctx, "release_title", func(ctx context.Context, tx *sql.Tx) error {
		return execOne(ctx, tx,
			apperr.NotFound("show %d is not owned by account %d", titleID, accountID),
			`DELETE FROM owned_titles WHERE account_id = ? AND title_id = ?`, accountID, titleID)
	})
}

// OwnedTitles returns the titles an account owns in owned-list order.
func (db *DB) OwnedTitles(ctx context.Context, accountID int64) ([]models.Title, error) {
	titles := []models.Title{}
	err := db.withTx(ctx, "owned_titles", func(ctx context.Context, tx *sql.Tx) error {
		if err := accountExists(ctx, tx, accountID); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, `
			SELECT t.id, t.name, t.release_date, t.rating, t.director, t.length_minutes, t.genre, t.access_tier, t.price
			FROM owned_titles o
			JOIN titles t ON t.id = o.title_id
			WHERE o.account_id = ?
			ORDER BY o.position`, accountID)
		if err != nil {
			return fmt.Errorf("failed to query owned titles: %w", err)
		}
		defer closeWithLog(rows, "rows")

		for rows.Next() {
			t, err := scanTitle(rows)
			if err != nil {
				return fmt.Errorf("failed to scan owned title: %w", err)
			}
			titles = append(titles, *t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return titles, nil
}
