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
	"time"

	"github.com/tomtom215/easyflix/internal/models"
)

const (
	statisticsColumns = `snapshot_date, total_users, basic_subscriptions, premium_subscriptions,
		total_subscriptions, titles_purchased, updated_at`
	financialsColumns = `snapshot_date, purchase_revenue, basic_subscription_revenue,
		premium_subscription_revenue, subscription_revenue, combined_revenue, updated_at`
)

// upsertStatisticsSQL only advances updated_at when a counted value changed,
// so repeated runs over unchanged data leave the row identical.
const upsertStatisticsSQL = `
	INSERT INTO daily_statistics (` + statisticsColumns + `)
	VALUES (CAST(? AS DATE), ?, ?, ?, ?, ?, ?)
	ON CONFLICT (snapshot_date) DO UPDATE SET
		updated_at = CASE
			WHEN total_users IS DISTINCT FROM EXCLUDED.total_users
			  OR basic_subscriptions IS DISTINCT FROM EXCLUDED.basic_subscriptions
			  OR premium_subscriptions IS DISTINCT FROM EXCLUDED.premium_subscriptions
			  OR total_subscriptions IS DISTINCT FROM EXCLUDED.total_subscriptions
			  OR titles_purchased IS DISTINCT FROM EXCLUDED.titles_purchased
			THEN EXCLUDED.updated_at ELSE updated_at END,
		total_users = EXCLUDED.total_users,
		basic_subscriptions = EXCLUDED.basic_subscriptions,
		premium_subscriptions = EXCLUDED.premium_subscriptions,
		total_subscriptions = EXCLUDED.total_subscriptions,
		titles_purchased = EXCLUDED.titles_purchased`

const upsertFinancialsSQL = `
	INSERT INTO daily_financials (` + financialsColumns + `)
	VALUES (CAST(? AS DATE), ?, ?, ?, ?, ?, ?)
	ON CONFLICT (snapshot_date) DO UPDATE SET
		updated_at = CASE
			WHEN purchase_revenue IS DISTINCT FROM EXCLUDED.purchase_revenue
			  OR basic_subscription_revenue IS DISTINCT FROM EXCLUDED.basic_subscription_revenue
			  OR premium_subscription_revenue IS DISTINCT FROM EXCLUDED.premium_subscription_revenue
			  OR subscription_revenue IS DISTINCT FROM EXCLUDED.subscription_revenue
			  OR combined_revenue IS DISTINCT FROM EXCLUDED.combined_revenue
			THEN EXCLUDED.updated_at ELSE updated_at END,
		purchase_revenue = EXCLUDED.purchase_revenue,
		basic_subscription_revenue = EXCLUDED.basic_subscription_revenue,
		premium_subscription_revenue = EXCLUDED.premium_subscription_revenue,
		subscription_revenue = EXCLUDED.subscription_revenue,
		combined_revenue = EXCLUDED.combined_revenue`

func scanStatistics(row rowScanner) (*models.Statistics, error) {
	var (
		s    models.Statistics
		date time.Time
	)
	if err := row.Scan(&date, &s.TotalUsers, &s.BasicSubscriptions, &s.PremiumSubscriptions,
		&s.TotalSubscriptions, &s.TitlesPurchased, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Date = models.DateOf(date)
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func scanFinancials(row rowScanner) (*models.Financials, error) {
	var (
		f                                    models.Financials
		date                                 time.Time
		purchase, basic, premium, subs, comb int64
	)
	if err := row.Scan(&date, &purchase, &basic, &premium, &subs, &comb, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Date = models.DateOf(date)
	f.PurchaseRevenue = models.Money(purchase)
	f.BasicSubscriptionRevenue = models.Money(basic)
	f.PremiumSubscriptionRevenue = models.Money(premium)
	f.SubscriptionRevenue = models.Money(subs)
	f.CombinedRevenue = models.Money(comb)
	f.UpdatedAt = f.UpdatedAt.UTC()
	return &f, nil
}

// LoadAggregationInputs reads tier counts, purchase totals and the genres of
// titles owned by consenting accounts (grouped per account, owned-list order).
func (db *DB) LoadAggregationInputs(ctx context.Context) (*models.AggregationInputs, error) {
	in := &models.AggregationInputs{}
	err := db.withTx(ctx, "load_aggregation_inputs", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT tier, COUNT(*) FROM accounts GROUP BY tier ORDER BY tier`)
		if err != nil {
			return fmt.Errorf("failed to count tiers: %w", err)
		}
		for rows.Next() {
			var (
				tier  string
				count int64
			)
			if err := rows.Scan(&tier, &count); err != nil {
				closeQuietly(rows)
				return fmt.Errorf("failed to scan tier count: %w", err)
			}
			in.Tiers = append(in.Tiers, models.AccountTierCount{Tier: models.Tier(tier), Count: count})
		}
		if err := rows.Err(); err != nil {
			closeQuietly(rows)
			return fmt.Errorf("failed to read tier counts: %w", err)
		}
		closeWithLog(rows, "rows")

		var revenue int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*), CAST(COALESCE(SUM(price), 0) AS BIGINT) FROM purchases`,
		).Scan(&in.PurchaseCount, &revenue); err != nil {
			return fmt.Errorf("failed to total purchases: %w", err)
		}
		in.PurchaseRevenue = models.Money(revenue)

		owners, err := tx.QueryContext(ctx, `
			SELECT a.id, a.favourite_genre, t.genre
			FROM accounts a
			JOIN owned_titles o ON o.account_id = a.id
			JOIN titles t ON t.id = o.title_id
			WHERE a.marketing_consent
			ORDER BY a.id, o.position`)
		if err != nil {
			return fmt.Errorf("failed to query owned genres: %w", err)
		}
		defer closeWithLog(owners, "rows")

		for owners.Next() {
			var (
				id        int64
				favourite sql.NullString
				genre     string
			)
			if err := owners.Scan(&id, &favourite, &genre); err != nil {
				return fmt.Errorf("failed to scan owned genre: %w", err)
			}
			n := len(in.Owners)
			if n == 0 || in.Owners[n-1].AccountID != id {
				in.Owners = append(in.Owners, models.ConsentingOwner{AccountID: id, FavouriteGenre: stringPtr(favourite)})
				n++
			}
			in.Owners[n-1].Genres = append(in.Owners[n-1].Genres, genre)
		}
		return owners.Err()
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// SaveSnapshot upserts one day's statistics and financials and applies the
// favourite-genre updates in a single transaction. Accounts whose stored
// favourite already matches are not rewritten. It returns the stored rows
// and the number of accounts changed.
func (db *DB) SaveSnapshot(ctx context.Context, stats models.Statistics, fin models.Financials, favourites []models.FavouriteUpdate) (*models.Report, int, error) {
	stamp := db.now().UTC().Truncate(time.Microsecond)
	changed := 0
	report := &models.Report{}

	err := db.withTx(ctx, "save_snapshot", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertStatisticsSQL,
			stats.Date.String(), stats.TotalUsers, stats.BasicSubscriptions, stats.PremiumSubscriptions,
			stats.TotalSubscriptions, stats.TitlesPurchased, stamp); err != nil {
			return fmt.Errorf("failed to upsert statistics: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsertFinancialsSQL,
			fin.Date.String(), int64(fin.PurchaseRevenue), int64(fin.BasicSubscriptionRevenue),
			int64(fin.PremiumSubscriptionRevenue), int64(fin.SubscriptionRevenue), int64(fin.CombinedRevenue),
			stamp); err != nil {
			return fmt.Errorf("failed to upsert financials: %w", err)
		}

		for _, fav := range favourites {
			res, err := tx.ExecContext(ctx,
				`UPDATE accounts SET favourite_genre = ? WHERE id = ? AND favourite_genre IS DISTINCT FROM ?`,
				fav.Genre, fav.AccountID, fav.Genre)
			if err != nil {
				return fmt.Errorf("failed to update favourite genre of %d: %w", fav.AccountID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			changed += int(n)
		}

		var err error
		if report.Statistics, err = scanStatistics(tx.QueryRowContext(ctx,
			`SELECT `+statisticsColumns+` FROM daily_statistics WHERE snapshot_date = CAST(? AS DATE)`,
			stats.Date.String())); err != nil {
			return fmt.Errorf("failed to read statistics: %w", err)
		}
		if report.Financials, err = scanFinancials(tx.QueryRowContext(ctx,
			`SELECT `+financialsColumns+` FROM daily_financials WHERE snapshot_date = CAST(? AS DATE)`,
			fin.Date.String())); err != nil {
			return fmt.Errorf("failed to read financials: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return report, changed, nil
}

// LatestReport returns the most recent statistics and financials rows.
// Either side is nil when no snapshot has been taken.
func (db *DB) LatestReport(ctx context.Context) (*models.Report, error) {
	report := &models.Report{}
	err := db.withTx(ctx, "latest_report", func(ctx context.Context, tx *sql.Tx) error {
		s, err := scanStatistics(tx.QueryRowContext(ctx,
			`SELECT `+statisticsColumns+` FROM daily_statistics ORDER BY snapshot_date DESC LIMIT 1`))
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to read statistics: %w", err)
		default:
			report.Statistics = s
		}

		f, err := scanFinancials(tx.QueryRowContext(ctx,
			`SELECT `+financialsColumns+` FROM daily_financials ORDER BY snapshot_date DESC LIMIT 1`))
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to read financials: %w", err)
		default:
			report.Financials = f
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListFinancials returns every financials row, newest first.
func (db *DB) ListFinancials(ctx context.Context) ([]models.Financials, error) {
	rowsOut := []models.Financials{}
	err := db.withTx(ctx, "list_financials", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT `+financialsColumns+` FROM daily_financials ORDER BY snapshot_date DESC`)
		if err != nil {
			return fmt.Errorf("failed to query financials: %w", err)
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			f, err := scanFinancials(rows)
			if err != nil {
				return fmt.Errorf("failed to scan financials: %w", err)
			}
			rowsOut = append(rowsOut, *f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return rowsOut, nil
}
