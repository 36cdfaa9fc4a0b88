// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package models

// Purchase records a non-zero charge for an acquisition.
type Purchase struct {
	ID          int64 `json:"buy_id"`
	AccountID   int64 `json:"user_id"`
	TitleID     int64 `json:"show_id"`
	PurchasedOn Date  `json:"buy_date"`
	Price       Money `json:"cost"`
}

// PurchaseDetail is a purchase joined with display names for admin reports.
type PurchaseDetail struct {
	Purchase
	Username  string `json:"username"`
	TitleName string `json:"show_name"`
}
