// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package dispatch

import (
	"strings"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/models"
	"github.com/tomtom215/easyflix/internal/validation"
)

// Request structs are bound by hand from Params and then checked by the
// shared validator. The param tag names the wire parameter in messages.

type accountRequest struct {
	AccountID int64 `param:"user_id" validate:"required,gt=0"`
}

type titleRequest struct {
	TitleID int64 `param:"show_id" validate:"required,gt=0"`
}

type ownershipRequest struct {
	AccountID int64 `param:"user_id" validate:"required,gt=0"`
	TitleID   int64 `param:"show_id" validate:"required,gt=0"`
}

type registerRequest struct {
	Username         string `param:"username" validate:"required,max=64"`
	Email            string `param:"email" validate:"required,max=254"`
	Secret           string `param:"password" validate:"required,max=256"`
	Tier             string `param:"subscription_level" validate:"required,tier"`
	MarketingConsent bool
}

type credentialsRequest struct {
	Username string `param:"username" validate:"required"`
	Secret   string `param:"password" validate:"required"`
}

type changeTierRequest struct {
	AccountID int64  `param:"user_id" validate:"required,gt=0"`
	Tier      string `param:"subscription_level" validate:"required,tier"`
}

type changeSecretRequest struct {
	AccountID int64  `param:"user_id" validate:"required,gt=0"`
	Secret    string `param:"new_password" validate:"required,max=256"`
}

type consentRequest struct {
	AccountID int64 `param:"user_id" validate:"required,gt=0"`
	Consent   bool
}

type favouriteRequest struct {
	AccountID int64  `param:"user_id" validate:"required,gt=0"`
	Genre     string `param:"genre" validate:"max=64"`
}

type addTitleRequest struct {
	Name     string `param:"name" validate:"required,max=200"`
	Rating   string `param:"rating" validate:"required,max=16"`
	Director string `param:"director" validate:"required,max=200"`
	Genre    string `param:"genre" validate:"required,max=64"`
	Length   int    `param:"length" validate:"gte=0"`
	Tier     string `param:"access_group" validate:"required,tier"`
	Released models.Date
	Price    *models.Money
}

type accessTierRequest struct {
	TitleID int64  `param:"show_id" validate:"required,gt=0"`
	Tier    string `param:"access_group" validate:"required,tier"`
}

type priceRequest struct {
	TitleID int64         `param:"show_id" validate:"required,gt=0"`
	Price   *models.Money `param:"cost_to_buy" validate:"required"`
}

type listRequest struct {
	Page        int    `param:"page" validate:"gte=0"`
	Limit       int    `param:"limit" validate:"gte=0"`
	SortBy      string `param:"sort_by"`
	SortOrder   string `param:"sort_order"`
	Genre       string `param:"genre"`
	Group       string `param:"access_group" validate:"tierfilter"`
	Search      string `param:"search" validate:"max=200"`
	Rating      string `param:"rating" validate:"max=16"`
	ReleaseYear int    `param:"release_year" validate:"gte=0,lte=9999"`
}

// check returns the binder's coercion error first, then any validation
// failure on req.
func check(b *binder, req interface{}) error {
	if b.err != nil {
		return b.err
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return verr.ToAppError()
	}
	return nil
}

func parseTier(s string) (models.Tier, error) {
	tier, err := models.ParseTier(s)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "invalid tier")
	}
	return tier, nil
}

func bindAccount(p Params) (accountRequest, error) {
	b := bind(p)
	req := accountRequest{AccountID: b.int64(keyAccountID)}
	return req, check(b, &req)
}

func bindTitle(p Params) (titleRequest, error) {
	b := bind(p)
	req := titleRequest{TitleID: b.int64(keyTitleID)}
	return req, check(b, &req)
}

func bindOwnership(p Params) (ownershipRequest, error) {
	b := bind(p)
	req := ownershipRequest{
		AccountID: b.int64(keyAccountID),
		TitleID:   b.int64(keyTitleID),
	}
	return req, check(b, &req)
}

func bindRegister(p Params) (registerRequest, error) {
	b := bind(p)
	req := registerRequest{
		Username:         strings.TrimSpace(b.str(keyUsername)),
		Email:            strings.TrimSpace(b.str(keyEmail)),
		Secret:           b.str(keySecret),
		Tier:             b.str(keyTier),
		MarketingConsent: b.boolean(keyConsent, false),
	}
	return req, check(b, &req)
}

func bindCredentials(p Params) (credentialsRequest, error) {
	b := bind(p)
	req := credentialsRequest{
		Username: strings.TrimSpace(b.str(keyUsername)),
		Secret:   b.str(keySecret),
	}
	return req, check(b, &req)
}

func bindChangeTier(p Params) (changeTierRequest, error) {
	b := bind(p)
	req := changeTierRequest{
		AccountID: b.int64(keyAccountID),
		Tier:      b.str(keyTier),
	}
	return req, check(b, &req)
}

func bindChangeSecret(p Params) (changeSecretRequest, error) {
	b := bind(p)
	req := changeSecretRequest{
		AccountID: b.int64(keyAccountID),
		// new_password wins over password when both are present.
		Secret: b.str([]string{"new_password", "password", "secret"}),
	}
	return req, check(b, &req)
}

func bindConsent(p Params) (consentRequest, error) {
	b := bind(p)
	req := consentRequest{AccountID: b.int64(keyAccountID)}
	if !b.has(keyConsent) {
		b.fail("%s is required", keyConsent[0])
	}
	req.Consent = b.boolean(keyConsent, false)
	return req, check(b, &req)
}

func bindFavourite(p Params) (favouriteRequest, error) {
	b := bind(p)
	req := favouriteRequest{
		AccountID: b.int64(keyAccountID),
		Genre:     strings.TrimSpace(b.str(keyGenre)),
	}
	return req, check(b, &req)
}

func bindAddTitle(p Params) (addTitleRequest, error) {
	b := bind(p)
	req := addTitleRequest{
		Name:     strings.TrimSpace(b.str([]string{"name", "show_name"})),
		Rating:   strings.TrimSpace(b.str(keyRating)),
		Director: strings.TrimSpace(b.str([]string{"director"})),
		Genre:    strings.TrimSpace(b.str(keyGenre)),
		Length:   b.int([]string{"length", "length_minutes"}),
		Tier:     b.str(keyGroup),
		Price:    b.money(keyPrice),
	}
	released, ok := b.date([]string{"release_date"})
	if !ok {
		b.fail("release_date is required")
	}
	req.Released = released
	return req, check(b, &req)
}

func bindAccessTier(p Params) (accessTierRequest, error) {
	b := bind(p)
	req := accessTierRequest{
		TitleID: b.int64(keyTitleID),
		Tier:    b.str(keyGroup),
	}
	return req, check(b, &req)
}

func bindPrice(p Params) (priceRequest, error) {
	b := bind(p)
	req := priceRequest{
		TitleID: b.int64(keyTitleID),
		Price:   b.money(keyPrice),
	}
	return req, check(b, &req)
}

func bindList(p Params) (listRequest, error) {
	b := bind(p)
	req := listRequest{
		Page:        b.int([]string{"page"}),
		Limit:       b.int([]string{"limit", "page_size"}),
		SortBy:      b.str([]string{"sort_by", "sort"}),
		SortOrder:   b.str([]string{"sort_order", "order"}),
		Genre:       strings.TrimSpace(b.str([]string{"genre"})),
		Group:       strings.TrimSpace(b.str(keyGroup)),
		Search:      strings.TrimSpace(b.str(keySearch)),
		Rating:      strings.TrimSpace(b.str(keyRating)),
		ReleaseYear: b.int(keyYear),
	}
	return req, check(b, &req)
}

// query converts a bound listing request into store arguments. "all"
// disables the genre, rating and tier filters.
func (r listRequest) query() (models.TitleFilter, models.TitleSort, models.PageRequest) {
	filter := models.TitleFilter{
		Search:      r.Search,
		ReleaseYear: r.ReleaseYear,
	}
	if !strings.EqualFold(r.Genre, "all") {
		filter.Genre = r.Genre
	}
	if !strings.EqualFold(r.Rating, "all") {
		filter.Rating = r.Rating
	}
	if r.Group != "" && !strings.EqualFold(r.Group, "all") {
		// validated by the tierfilter tag
		filter.Tier, _ = models.ParseTier(r.Group)
	}
	sort := models.TitleSort{
		Key:  models.ParseSortKey(r.SortBy),
		Desc: models.ParseSortOrder(r.SortOrder),
	}
	return filter, sort, models.PageRequest{Page: r.Page, Limit: r.Limit}
}
