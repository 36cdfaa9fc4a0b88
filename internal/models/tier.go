// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package models

import (
	"fmt"
	"strings"
)

// Tier is an account or title access class.
type Tier string

const (
	TierBasic   Tier = "Basic"
	TierPremium Tier = "Premium"
)

// Subscription fees charged at registration and counted as subscription revenue.
const (
	BasicFee   Money = 3000
	PremiumFee Money = 8000

	// UpgradeFee is charged on a Basic to Premium change only.
	UpgradeFee Money = 8000
)

// ParseTier accepts "basic" or "premium" in any case.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return TierBasic, nil
	case "premium":
		return TierPremium, nil
	default:
		return "", fmt.Errorf("unknown tier %q (want Basic or Premium)", s)
	}
}

// Valid reports whether t is one of the two tiers.
func (t Tier) Valid() bool {
	return t == TierBasic || t == TierPremium
}

// Fee is the flat subscription rate for the tier.
func (t Tier) Fee() Money {
	if t == TierPremium {
		return PremiumFee
	}
	return BasicFee
}

// ChangeCharge is the amount charged when moving from t to next.
// Only an upgrade from Basic to Premium costs anything.
func (t Tier) ChangeCharge(next Tier) Money {
	if t == TierBasic && next == TierPremium {
		return UpgradeFee
	}
	return 0
}

// AcquireCharge is what an account of tier t pays to add a title.
// Basic accounts pay the price of Premium titles; everything else is free.
func (t Tier) AcquireCharge(title *Title) Money {
	if t != TierBasic || title.Tier != TierPremium || title.Price == nil {
		return 0
	}
	return *title.Price
}
