// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package aggregate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/easyflix/internal/models"
)

// Store is the part of the database a recompute needs.
type Store interface {
	LoadAggregationInputs(ctx context.Context) (*models.AggregationInputs, error)
	SaveSnapshot(ctx context.Context, stats models.Statistics, fin models.Financials, favourites []models.FavouriteUpdate) (*models.Report, int, error)
}

// Engine runs recomputes against a Store.
type Engine struct {
	store Store
	now   func() time.Time
	loc   *time.Location

	// mu keeps in-process recomputes from interleaving their read and write.
	mu sync.Mutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone whose calendar date names the snapshot.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today is the snapshot date a recompute started now would write.
func (e *Engine) Today() models.Date {
	return models.DateOf(e.now().In(e.loc))
}

// Recompute derives today's snapshot from the current store contents and
// persists it along with any changed favourite genres.
func (e *Engine) Recompute(ctx context.Context) (*models.SnapshotResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	in, err := e.store.LoadAggregationInputs(ctx)
	if err != nil {
		return nil, err
	}

	stats, fin, favourites := Compute(e.Today(), in)

	report, changed, err := e.store.SaveSnapshot(ctx, stats, fin, favourites)
	if err != nil {
		return nil, err
	}
	if report == nil || report.Statistics == nil || report.Financials == nil {
		return nil, fmt.Errorf("snapshot for %s was not stored", stats.Date)
	}

	return &models.SnapshotResult{
		Statistics:        *report.Statistics,
		Financials:        *report.Financials,
		FavouritesUpdated: changed,
	}, nil
}

// Compute derives the statistics and financials rows for date and the
// favourite-genre changes implied by in. It is a pure function.
func Compute(date models.Date, in *models.AggregationInputs) (models.Statistics, models.Financials, []models.FavouriteUpdate) {
	stats := models.Statistics{Date: date}
	fin := models.Financials{Date: date}
	if in == nil {
		return stats, fin, nil
	}

	for _, tc := range in.Tiers {
		stats.TotalUsers += tc.Count
		switch tc.Tier {
		case models.TierBasic:
			stats.BasicSubscriptions += tc.Count
		case models.TierPremium:
			stats.PremiumSubscriptions += tc.Count
		}
	}
	stats.TotalSubscriptions = stats.BasicSubscriptions + stats.PremiumSubscriptions
	stats.TitlesPurchased = in.PurchaseCount

	fin.PurchaseRevenue = in.PurchaseRevenue
	fin.BasicSubscriptionRevenue = models.BasicFee * models.Money(stats.BasicSubscriptions)
	fin.PremiumSubscriptionRevenue = models.PremiumFee * models.Money(stats.PremiumSubscriptions)
	fin.SubscriptionRevenue = fin.BasicSubscriptionRevenue + fin.PremiumSubscriptionRevenue
	fin.CombinedRevenue = fin.PurchaseRevenue + fin.SubscriptionRevenue

	var favourites []models.FavouriteUpdate
	for _, owner := range in.Owners {
		genre, ok := FavouriteGenre(owner.Genres)
		if !ok {
			continue
		}
		if owner.FavouriteGenre != nil && *owner.FavouriteGenre == genre {
			continue
		}
		favourites = append(favourites, models.FavouriteUpdate{AccountID: owner.AccountID, Genre: genre})
	}
	return stats, fin, favourites
}

// FavouriteGenre returns the most frequent genre in genres. Ties go to the
// lexicographically smallest genre. ok is false for an empty list.
func FavouriteGenre(genres []string) (genre string, ok bool) {
	if len(genres) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(genres))
	for _, g := range genres {
		counts[g]++
	}

	candidates := make([]string, 0, len(counts))
	for g := range counts {
		candidates = append(candidates, g)
	}
	sort.Strings(candidates)

	best := candidates[0]
	for _, g := range candidates[1:] {
		if counts[g] > counts[best] {
			best = g
		}
	}
	return best, true
}
