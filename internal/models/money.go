// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in cents.
type Money int64

// Cents builds a Money from whole units and cents, e.g. Cents(35, 0) == 35.00.
func Cents(units, cents int64) Money {
	return Money(units*100 + cents)
}

// ParseMoney parses a decimal amount such as "5", "5.5" or "5.00".
// Amounts are rounded to the nearest cent. Negative, NaN and infinite values
// are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return MoneyFromFloat(f)
}

// MoneyFromFloat converts a float amount to cents.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid amount")
	}
	if f < 0 {
		return 0, fmt.Errorf("amount must not be negative")
	}
	if f > math.MaxInt64/100 {
		return 0, fmt.Errorf("amount too large")
	}
	return Money(math.Round(f * 100)), nil
}

// Float64 returns the amount in whole units.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// String renders the amount with two fraction digits.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders the amount as a JSON number with two fraction digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	if s == "null" {
		*m = 0
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
