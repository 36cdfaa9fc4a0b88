// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package models

import "time"

// Statistics is one day's population counts.
type Statistics struct {
	Date                 Date      `json:"date"`
	TotalUsers           int64     `json:"total_users"`
	BasicSubscriptions   int64     `json:"basic_subscriptions"`
	PremiumSubscriptions int64     `json:"premium_subscriptions"`
	TotalSubscriptions   int64     `json:"total_subscriptions"`
	TitlesPurchased      int64     `json:"total_shows_bought"`
	UpdatedAt            time.Time `json:"last_updated"`
}

// Financials is one day's revenue breakdown.
type Financials struct {
	Date                       Date      `json:"date"`
	PurchaseRevenue            Money     `json:"total_revenue_buys"`
	BasicSubscriptionRevenue   Money     `json:"basic_subscription_revenue"`
	PremiumSubscriptionRevenue Money     `json:"premium_subscription_revenue"`
	SubscriptionRevenue        Money     `json:"total_revenue_subscriptions"`
	CombinedRevenue            Money     `json:"total_combined_revenue"`
	UpdatedAt                  time.Time `json:"last_updated"`
}

// Report pairs the statistics and financials rows of one day.
type Report struct {
	Statistics *Statistics `json:"statistics"`
	Financials *Financials `json:"financials"`
}

// SnapshotResult is returned by a recompute.
type SnapshotResult struct {
	Statistics        Statistics `json:"statistics"`
	Financials        Financials `json:"financials"`
	FavouritesUpdated int        `json:"favourites_updated"`
}

// AccountTierCount is a per-tier population count.
type AccountTierCount struct {
	Tier  Tier
	Count int64
}

// ConsentingOwner is an account eligible for favourite-genre inference,
// with the genres of the titles it owns (one entry per owned title).
type ConsentingOwner struct {
	AccountID      int64
	FavouriteGenre *string
	Genres         []string
}

// AggregationInputs is everything a recompute reads from the store.
type AggregationInputs struct {
	Tiers           []AccountTierCount
	PurchaseCount   int64
	PurchaseRevenue Money
	Owners          []ConsentingOwner
}

// FavouriteUpdate is an inferred favourite genre to persist.
type FavouriteUpdate struct {
	AccountID int64
	Genre     string
}
