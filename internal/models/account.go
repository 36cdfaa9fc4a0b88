// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package models

// Account is a customer profile as returned to callers. The stored salt and
// digest never leave the store.
type Account struct {
	ID               int64   `json:"user_id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	Tier             Tier    `json:"subscription_level"`
	TotalSpent       Money   `json:"total_spent"`
	FavouriteGenre   *string `json:"favourite_genre"`
	OwnedTitles      []int64 `json:"shows"`
	MarketingConsent bool    `json:"marketing_opt_in"`
}

// AccountSummary is the admin listing row.
type AccountSummary struct {
	ID               int64   `json:"user_id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	Tier             Tier    `json:"subscription_level"`
	TotalSpent       Money   `json:"total_spent"`
	FavouriteGenre   *string `json:"favourite_genre"`
	MarketingConsent bool    `json:"marketing_opt_in"`
	OwnedCount       int     `json:"show_count"`
}

// NewAccount is the registration input.
type NewAccount struct {
	Username         string
	Email            string
	Secret           string
	Tier             Tier
	MarketingConsent bool
}

// Registration is the result of a successful registration.
type Registration struct {
	ID            int64 `json:"user_id"`
	AmountCharged Money `json:"amount_charged"`
}

// TierChange is the result of a subscription change.
type TierChange struct {
	ID            int64 `json:"user_id"`
	PreviousTier  Tier  `json:"previous_level"`
	Tier          Tier  `json:"subscription_level"`
	AmountCharged Money `json:"amount_charged"`
	TotalSpent    Money `json:"total_spent"`
}

// Acquisition is the result of adding a title to an account.
type Acquisition struct {
	AccountID     int64  `json:"user_id"`
	TitleID       int64  `json:"show_id"`
	AmountCharged Money  `json:"amount_charged"`
	TotalSpent    Money  `json:"total_spent"`
	PurchaseID    *int64 `json:"buy_id"`
}

// Admin is an authenticated administrator.
type Admin struct {
	ID       int64  `json:"admin_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// DefaultAdminRole tags admins bootstrapped without an explicit role.
const DefaultAdminRole = "admin"
