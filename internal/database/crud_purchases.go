// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/easyflix/internal/models"
)

// ListPurchases returns every purchase with account and title names,
// newest first.
func (db *DB) ListPurchases(ctx context.Context) ([]models.PurchaseDetail, error) {
	purchases := []models.PurchaseDetail{}
	err := db.withTx(ctx, "list_purchases", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT p.id, p.account_id, p.title_id, p.purchased_on, p.price, a.username, t.name
			FROM purchases p
			JOIN accounts a ON a.id = p.account_id
			JOIN titles t ON t.id = p.title_id
			ORDER BY p.purchased_on DESC, p.id DESC`)
		if err != nil {
			return fmt.Errorf("failed to query purchases: %w", err)
		}
		defer closeWithLog(rows, "rows")

		for rows.Next() {
			var (
				p     models.PurchaseDetail
				on    time.Time
				price int64
			)
			if err := rows.Scan(&p.ID, &p.AccountID, &p.TitleID, &on, &price, &p.Username, &p.TitleName); err != nil {
				return fmt.Errorf("failed to scan purchase: %w", err)
			}
			p.PurchasedOn = models.DateOf(on)
			p.Price = models.Money(price)
			purchases = append(purchases, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return purchases, nil
}
