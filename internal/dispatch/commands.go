// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package dispatch

import (
	"context"
	"fmt"

	"github.com/tomtom215/easyflix/internal/aggregate"
	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/models"
)

// handlerFunc runs one command and returns the envelope data and message.
type handlerFunc func(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error)

type command struct {
	name string
	// mutating commands notify the snapshot trigger after success.
	mutating bool
	handle   handlerFunc
}

// commandTable maps every accepted command name, including the legacy
// front-end names, to its handler.
func commandTable() map[string]*command {
	table := make(map[string]*command)
	add := func(c *command, aliases ...string) {
		table[c.name] = c
		for _, alias := range aliases {
			table[alias] = c
		}
	}

	// Accounts
	add(&command{name: "register", mutating: true, handle: handleRegister}, "create_user")
	add(&command{name: "authenticate", handle: handleAuthenticate}, "authenticate_user")
	add(&command{name: "change_tier", mutating: true, handle: handleChangeTier}, "update_subscription")
	add(&command{name: "change_secret", handle: handleChangeSecret}, "change_password")
	add(&command{name: "change_marketing_consent", mutating: true, handle: handleChangeConsent}, "update_marketing_opt_in")
	add(&command{name: "change_favourite_genre", handle: handleChangeFavourite})
	add(&command{name: "delete_account", mutating: true, handle: handleDeleteAccount}, "delete_user_account", "delete_user")
	add(&command{name: "get_user_info", handle: handleGetAccount})
	add(&command{name: "get_all_users", handle: handleListAccounts})

	// Library
	add(&command{name: "acquire_title", mutating: true, handle: handleAcquire}, "add_show_to_user", "create_rental")
	add(&command{name: "release_title", mutating: true, handle: handleRelease}, "remove_show_from_user")
	add(&command{name: "get_user_shows", handle: handleOwnedTitles}, "get_user_rentals")

	// Catalog
	add(&command{name: "add_title", handle: handleAddTitle}, "add_show")
	add(&command{name: "update_access_tier", handle: handleUpdateAccessTier}, "update_show_access")
	add(&command{name: "update_price", handle: handleUpdatePrice}, "update_show_cost")
	add(&command{name: "delete_title", mutating: true, handle: handleDeleteTitle}, "delete_show")
	add(&command{name: "list_titles", handle: handleListTitles}, "get_shows_paginated")
	add(&command{name: "search_shows", handle: handleSearchTitles})
	add(&command{name: "get_all_shows", handle: handleAllTitles})
	add(&command{name: "get_genres", handle: handleGenres}, "get_available_genres")
	add(&command{name: "get_available_ratings", handle: handleRatings})

	// Administration and reporting
	add(&command{name: "authenticate_admin", handle: handleAuthenticateAdmin})
	add(&command{name: "recompute_snapshot", handle: handleRecompute}, "update_statistics")
	add(&command{name: "get_statistics", handle: handleStatistics})
	add(&command{name: "get_finances", handle: handleFinances})
	add(&command{name: "get_all_buys", handle: handlePurchases})

	return table
}

func handleRegister(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindRegister(p)
	if err != nil {
		return nil, "", err
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, "", err
	}
	reg, err := d.store.Register(ctx, models.NewAccount{
		Username:         req.Username,
		Email:            req.Email,
		Secret:           req.Secret,
		Tier:             tier,
		MarketingConsent: req.MarketingConsent,
	})
	if err != nil {
		return nil, "", err
	}
	return reg, "User created successfully", nil
}

func handleAuthenticate(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindCredentials(p)
	if err != nil {
		return nil, "", err
	}
	account, err := d.store.Authenticate(ctx, req.Username, req.Secret)
	if err != nil {
		d.security.LogLogin(false, req.Username, 0, false, err.Error())
		return nil, "", err
	}
	d.security.LogLogin(false, req.Username, account.ID, true, "")
	return account, "Authentication successful", nil
}

func handleChangeTier(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindChangeTier(p)
	if err != nil {
		return nil, "", err
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, "", err
	}
	change, err := d.store.ChangeTier(ctx, req.AccountID, tier)
	if err != nil {
		return nil, "", err
	}
	return change, fmt.Sprintf("Subscription updated to %s", change.Tier), nil
}

func handleChangeSecret(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindChangeSecret(p)
	if err != nil {
		return nil, "", err
	}
	if err := d.store.ChangeSecret(ctx, req.AccountID, req.Secret); err != nil {
		return nil, "", err
	}
	d.security.LogSecretChanged(req.AccountID)
	return nil, "Password updated successfully", nil
}

func handleChangeConsent(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindConsent(p)
	if err != nil {
		return nil, "", err
	}
	if err := d.store.ChangeMarketingConsent(ctx, req.AccountID, req.Consent); err != nil {
		return nil, "", err
	}
	return map[string]interface{}{
		"user_id":          req.AccountID,
		"marketing_opt_in": req.Consent,
	}, "Marketing preference updated", nil
}

func handleChangeFavourite(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindFavourite(p)
	if err != nil {
		return nil, "", err
	}
	var genre *string
	if req.Genre != "" {
		genre = &req.Genre
	}
	if err := d.store.ChangeFavouriteGenre(ctx, req.AccountID, genre); err != nil {
		return nil, "", err
	}
	return map[string]interface{}{
		"user_id":         req.AccountID,
		"favourite_genre": genre,
	}, "Favourite genre updated", nil
}

func handleDeleteAccount(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindAccount(p)
	if err != nil {
		return nil, "", err
	}
	if err := d.store.DeleteAccount(ctx, req.AccountID); err != nil {
		return nil, "", err
	}
	d.security.LogAccountDeleted(req.AccountID)
	return nil, "Account deleted successfully", nil
}

func handleGetAccount(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindAccount(p)
	if err != nil {
		return nil, "", err
	}
	account, err := d.store.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, "", err
	}
	return account, "User info retrieved", nil
}

func handleListAccounts(ctx context.Context, d *Dispatcher, _ Params) (interface{}, string, error) {
	accounts, err := d.store.ListAccounts(ctx)
	if err != nil {
		return nil, "", err
	}
	return accounts, fmt.Sprintf("Retrieved %d users", len(accounts)), nil
}

func handleAcquire(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindOwnership(p)
	if err != nil {
		return nil, "", err
	}
	acq, err := d.store.AcquireTitle(ctx, req.AccountID, req.TitleID)
	if err != nil {
		return nil, "", err
	}
	if acq.AmountCharged > 0 {
		return acq, fmt.Sprintf("Show purchased for %s", acq.AmountCharged), nil
	}
	return acq, "Show added to library", nil
}

func handleRelease(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindOwnership(p)
	if err != nil {
		return nil, "", err
	}
	if err := d.store.ReleaseTitle(ctx, req.AccountID, req.TitleID); err != nil {
		return nil, "", err
	}
	return map[string]interface{}{
		"user_id": req.AccountID,
		"show_id": req.TitleID,
	}, "Show removed from library", nil
}

func handleOwnedTitles(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindAccount(p)
	if err != nil {
		return nil, "", err
	}
	titles, err := d.store.OwnedTitles(ctx, req.AccountID)
	if err != nil {
		return nil, "", err
	}
	return titles, fmt.Sprintf("Retrieved %d shows", len(titles)), nil
}

func handleAddTitle(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindAddTitle(p)
	if err != nil {
		return nil, "", err
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, "", err
	}
	title, err := d.store.AddTitle(ctx, models.NewTitle{
		Name:        req.Name,
		ReleaseDate: req.Released,
		Rating:      req.Rating,
		Director:    req.Director,
		Length:      req.Length,
		Genre:       req.Genre,
		Tier:        tier,
		Price:       req.Price,
	})
	if err != nil {
		return nil, "", err
	}
	return title, "Show added successfully", nil
}

func handleUpdateAccessTier(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindAccessTier(p)
	if err != nil {
		return nil, "", err
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, "", err
	}
	title, err := d.store.UpdateAccessTier(ctx, req.TitleID, tier)
	if err != nil {
		return nil, "", err
	}
	return title, fmt.Sprintf("Show access updated to %s", title.Tier), nil
}

func handleUpdatePrice(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindPrice(p)
	if err != nil {
		return nil, "", err
	}
	title, err := d.store.UpdatePrice(ctx, req.TitleID, *req.Price)
	if err != nil {
		return nil, "", err
	}
	return title, "Show cost updated", nil
}

func handleDeleteTitle(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindTitle(p)
	if err != nil {
		return nil, "", err
	}
	if err := d.store.DeleteTitle(ctx, req.TitleID); err != nil {
		return nil, "", err
	}
	return nil, "Show deleted successfully", nil
}

func handleListTitles(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindList(p)
	if err != nil {
		return nil, "", err
	}
	return d.listTitles(ctx, req)
}

func handleSearchTitles(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindList(p)
	if err != nil {
		return nil, "", err
	}
	filter, _, _ := req.query()
	if filter.Search == "" && filter.Genre == "" && filter.Rating == "" {
		return nil, "", apperr.Validation("one of search, genre or rating is required")
	}
	return d.listTitles(ctx, req)
}

func handleAllTitles(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindList(p)
	if err != nil {
		return nil, "", err
	}
	req.Page, req.Limit = 1, models.MaxPageSize
	return d.listTitles(ctx, req)
}

func (d *Dispatcher) listTitles(ctx context.Context, req listRequest) (interface{}, string, error) {
	filter, sort, page := req.query()
	result, err := d.store.ListTitles(ctx, filter, sort, page)
	if err != nil {
		return nil, "", err
	}
	return result, fmt.Sprintf("Retrieved %d shows", len(result.Titles)), nil
}

func handleGenres(ctx context.Context, d *Dispatcher, _ Params) (interface{}, string, error) {
	genres, err := d.store.Genres(ctx)
	if err != nil {
		return nil, "", err
	}
	return genres, fmt.Sprintf("Retrieved %d genres", len(genres)), nil
}

func handleRatings(ctx context.Context, d *Dispatcher, _ Params) (interface{}, string, error) {
	ratings, err := d.store.Ratings(ctx)
	if err != nil {
		return nil, "", err
	}
	return ratings, fmt.Sprintf("Retrieved %d ratings", len(ratings)), nil
}

func handleAuthenticateAdmin(ctx context.Context, d *Dispatcher, p Params) (interface{}, string, error) {
	req, err := bindCredentials(p)
	if err != nil {
		return nil, "", err
	}
	admin, err := d.store.AuthenticateAdmin(ctx, req.Username, req.Secret)
	if err != nil {
		d.security.LogLogin(true, req.Username, 0, false, err.Error())
		return nil, "", err
	}
	d.security.LogLogin(true, req.Username, admin.ID, true, "")
	return admin, "Admin authentication successful", nil
}

func handleRecompute(ctx context.Context, d *Dispatcher, _ Params) (interface{}, string, error) {
	if d.recomputer == nil {
		return nil, "", apperr.New(apperr.KindInternal, "snapshot recompute is not configured")
	}
	result, err := d.recomputer.Run(ctx, aggregate.TriggerManual, "recompute_snapshot")
	if err != nil {
		return nil, "", err
	}
	return result, "Statistics updated successfully", nil
}

func handleStatistics(ctx context.Context, d *Dispatcher, _ Params) (interface{}, string, error) {
	report, err := d.store.LatestReport(ctx)
	if err != nil {
		return nil, "", err
	}
	if report.Statistics == nil && report.Financials == nil {
		return report, "No statistics recorded yet", nil
	}
	return report, "Statistics retrieved", nil
}

func handleFinances(ctx context.Context, d *Dispatcher, _ Params) (interface{}, string, error) {
	rows, err := d.store.ListFinancials(ctx)
	if err != nil {
		return nil, "", err
	}
	return rows, fmt.Sprintf("Retrieved %d financial records", len(rows)), nil
}

func handlePurchases(ctx context.Context, d *Dispatcher, _ Params) (interface{}, string, error) {
	purchases, err := d.store.ListPurchases(ctx)
	if err != nil {
		return nil, "", err
	}
	return purchases, fmt.Sprintf("Retrieved %d purchases", len(purchases)), nil
}
