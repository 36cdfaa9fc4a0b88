// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package dispatch

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/models"
)

// Params is the flat parameter map of a command. Values may be strings,
// numbers or booleans; the CLI sends everything as strings.
type Params map[string]interface{}

// Parameter aliases. The first name is the one reported in errors.
var (
	keyAccountID = []string{"user_id", "account_id"}
	keyTitleID   = []string{"show_id", "title_id"}
	keyUsername  = []string{"username"}
	keyEmail     = []string{"email"}
	keySecret    = []string{"password", "secret", "new_password"}
	keyTier      = []string{"subscription_level", "tier", "access_group"}
	keyGroup     = []string{"access_group", "tier", "subscription_level"}
	keyConsent   = []string{"marketing_opt_in", "marketing_consent", "opt_in"}
	keyPrice     = []string{"cost_to_buy", "price", "cost_to_rent"}
	keyGenre     = []string{"genre", "favourite_genre"}
	keySearch    = []string{"search", "search_term", "query", "name"}
	keyYear      = []string{"release_year", "year"}
	keyRating    = []string{"rating"}
)

// binder reads typed values out of Params and keeps the first coercion
// failure so handlers can check once.
type binder struct {
	p   Params
	err error
}

func bind(p Params) *binder {
	return &binder{p: p}
}

// lookup returns the first present, non-nil value among names.
func (b *binder) lookup(names []string) (interface{}, string, bool) {
	for _, name := range names {
		if v, ok := b.p[name]; ok && v != nil {
			return v, name, true
		}
	}
	return nil, names[0], false
}

func (b *binder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = apperr.Validation(format, args...)
	}
}

// has reports whether any of names was supplied.
func (b *binder) has(names []string) bool {
	_, _, ok := b.lookup(names)
	return ok
}

func (b *binder) str(names []string) string {
	v, _, ok := b.lookup(names)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func (b *binder) int64(names []string) int64 {
	v, name, ok := b.lookup(names)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.Abs(t) > math.MaxInt64 {
			b.fail("%s must be an integer", name)
			return 0
		}
		return int64(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			b.fail("%s must be an integer", name)
		}
		return n
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			b.fail("%s must be an integer", name)
		}
		return n
	default:
		b.fail("%s must be an integer", name)
		return 0
	}
}

func (b *binder) int(names []string) int {
	n := b.int64(names)
	if n > math.MaxInt32 || n < math.MinInt32 {
		_, name, _ := b.lookup(names)
		b.fail("%s is out of range", name)
		return 0
	}
	return int(n)
}

// boolean accepts true/false, yes/no, on/off and 1/0. def is returned when
// the parameter is absent.
func (b *binder) boolean(names []string, def bool) bool {
	v, name, ok := b.lookup(names)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		if t == 0 || t == 1 {
			return t == 1
		}
	case int:
		if t == 0 || t == 1 {
			return t == 1
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "on", "1":
			return true
		case "false", "no", "n", "off", "0":
			return false
		}
	}
	b.fail("%s must be true or false", name)
	return def
}

// money returns nil when the parameter is absent.
func (b *binder) money(names []string) *models.Money {
	v, name, ok := b.lookup(names)
	if !ok {
		return nil
	}
	var (
		m   models.Money
		err error
	)
	switch t := v.(type) {
	case float64:
		m, err = models.MoneyFromFloat(t)
	case int:
		m, err = models.MoneyFromFloat(float64(t))
	case int64:
		m, err = models.MoneyFromFloat(float64(t))
	case json.Number:
		m, err = models.ParseMoney(t.String())
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		m, err = models.ParseMoney(t)
	default:
		b.fail("%s must be a decimal amount", name)
		return nil
	}
	if err != nil {
		b.fail("%s: %v", name, err)
		return nil
	}
	return &m
}

// date returns ok=false when the parameter is absent.
func (b *binder) date(names []string) (models.Date, bool) {
	s := strings.TrimSpace(b.str(names))
	if s == "" {
		return models.Date{}, false
	}
	d, err := models.ParseDate(s)
	if err != nil {
		_, name, _ := b.lookup(names)
		b.fail("%s: %v", name, err)
		return models.Date{}, false
	}
	return d, true
}
