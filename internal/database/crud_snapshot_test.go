// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package database

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/easyflix/internal/models"
)

func snapshotRows(date models.Date, users int64, revenue models.Money) (models.Statistics, models.Financials) {
	return models.Statistics{
			Date:               date,
			TotalUsers:         users,
			BasicSubscriptions: users,
			TotalSubscriptions: users,
		}, models.Financials{
			Date:                     date,
			PurchaseRevenue:          revenue,
			BasicSubscriptionRevenue: models.BasicFee * models.Money(users),
			SubscriptionRevenue:      models.BasicFee * models.Money(users),
			CombinedRevenue:          revenue + models.BasicFee*models.Money(users),
		}
}

func TestSaveSnapshotIsIdempotent(t *testing.T) {
	clock := newTestClock()
	db := setupTestDB(t, WithClock(clock.Now))
	ctx := context.Background()
	today := db.Today()

	stats, fin := snapshotRows(today, 2, models.Cents(5, 0))
	first, _, err := db.SaveSnapshot(ctx, stats, fin, nil)
	if err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if !first.Statistics.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", first.Statistics.UpdatedAt, clock.Now())
	}

	clock.Advance(time.Minute)
	second, _, err := db.SaveSnapshot(ctx, stats, fin, nil)
	if err != nil {
		t.Fatalf("second SaveSnapshot() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("unchanged snapshot rewrote rows:\nfirst  %+v %+v\nsecond %+v %+v",
			first.Statistics, first.Financials, second.Statistics, second.Financials)
	}

	clock.Advance(time.Minute)
	stats, fin = snapshotRows(today, 3, models.Cents(5, 0))
	third, _, err := db.SaveSnapshot(ctx, stats, fin, nil)
	if err != nil {
		t.Fatalf("third SaveSnapshot() error = %v", err)
	}
	if !third.Statistics.UpdatedAt.Equal(clock.Now()) || third.Statistics.TotalUsers != 3 {
		t.Errorf("changed statistics not stamped: %+v", third.Statistics)
	}
	if !third.Financials.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("changed financials not stamped: %+v", third.Financials)
	}

	var rows int64
	if err := db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_statistics`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("daily_statistics rows = %d, want 1", rows)
	}
}

func TestSaveSnapshotFavourites(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	id := mustRegister(t, db, "fav", models.TierBasic, true)
	stats, fin := snapshotRows(db.Today(), 1, 0)

	_, changed, err := db.SaveSnapshot(ctx, stats, fin, []models.FavouriteUpdate{{AccountID: id, Genre: "Crime"}})
	if err != nil {
		t.Fatal(err)
	}
	if changed != 1 {
		t.Errorf("changed = %d, want 1", changed)
	}
	_, changed, err = db.SaveSnapshot(ctx, stats, fin, []models.FavouriteUpdate{{AccountID: id, Genre: "Crime"}})
	if err != nil {
		t.Fatal(err)
	}
	if changed != 0 {
		t.Errorf("matching favourite rewritten, changed = %d", changed)
	}
	account, _ := db.GetAccount(ctx, id)
	if account.FavouriteGenre == nil || *account.FavouriteGenre != "Crime" {
		t.Errorf("FavouriteGenre = %v", account.FavouriteGenre)
	}
}

func TestLoadAggregationInputs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	consenting := mustRegister(t, db, "yes", models.TierBasic, true)
	private := mustRegister(t, db, "no", models.TierBasic, false)
	mustRegister(t, db, "rich", models.TierPremium, true)
	crime := mustAddTitle(t, db, "C", "Crime", models.TierPremium, price(4, 0))
	drama := mustAddTitle(t, db, "D", "Drama", models.TierBasic, nil)

	for _, pair := range [][2]int64{{consenting, drama}, {consenting, crime}, {private, crime}} {
		if _, err := db.AcquireTitle(ctx, pair[0], pair[1]); err != nil {
			t.Fatal(err)
		}
	}

	in, err := db.LoadAggregationInputs(ctx)
	if err != nil {
		t.Fatalf("LoadAggregationInputs() error = %v", err)
	}
	wantTiers := []models.AccountTierCount{{Tier: models.TierBasic, Count: 2}, {Tier: models.TierPremium, Count: 1}}
	if !reflect.DeepEqual(in.Tiers, wantTiers) {
		t.Errorf("Tiers = %+v, want %+v", in.Tiers, wantTiers)
	}
	if in.PurchaseCount != 2 || in.PurchaseRevenue != models.Cents(8, 0) {
		t.Errorf("purchases = %d / %s, want 2 / 8.00", in.PurchaseCount, in.PurchaseRevenue)
	}
	wantOwners := []models.ConsentingOwner{{AccountID: consenting, Genres: []string{"Drama", "Crime"}}}
	if !reflect.DeepEqual(in.Owners, wantOwners) {
		t.Errorf("Owners = %+v, want %+v", in.Owners, wantOwners)
	}
}

func TestLatestReportAndFinancials(t *testing.T) {
	clock := newTestClock()
	db := setupTestDB(t, WithClock(clock.Now))
	ctx := context.Background()

	report, err := db.LatestReport(ctx)
	if err != nil {
		t.Fatalf("LatestReport() error = %v", err)
	}
	if report.Statistics != nil || report.Financials != nil {
		t.Errorf("empty store report = %+v", report)
	}

	for i := 0; i < 3; i++ {
		stats, fin := snapshotRows(db.Today(), int64(i+1), 0)
		if _, _, err := db.SaveSnapshot(ctx, stats, fin, nil); err != nil {
			t.Fatal(err)
		}
		clock.Advance(24 * time.Hour)
	}

	report, err = db.LatestReport(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Statistics == nil || report.Statistics.Date.String() != "2026-03-03" || report.Statistics.TotalUsers != 3 {
		t.Errorf("latest statistics = %+v", report.Statistics)
	}

	all, err := db.ListFinancials(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Date.String() != "2026-03-03" || all[2].Date.String() != "2026-03-01" {
		t.Errorf("ListFinancials() order = %+v", all)
	}
}
