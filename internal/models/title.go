// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package models

import "strings"

// Title is a catalog entry. Price is nil for Basic titles.
type Title struct {
	ID          int64  `json:"show_id"`
	Name        string `json:"name"`
	ReleaseDate Date   `json:"release_date"`
	Rating      string `json:"rating"`
	Director    string `json:"director"`
	Length      int    `json:"length"`
	Genre       string `json:"genre"`
	Tier        Tier   `json:"access_group"`
	Price       *Money `json:"cost_to_buy"`
}

// NewTitle is the catalog insert input.
type NewTitle struct {
	Name        string
	ReleaseDate Date
	Rating      string
	Director    string
	Length      int
	Genre       string
	Tier        Tier
	Price       *Money
}

// SortKey is one of the allowed listing sort columns.
type SortKey string

const (
	SortByName        SortKey = "name"
	SortByRating      SortKey = "rating"
	SortByReleaseDate SortKey = "releaseDate"
	SortByGenre       SortKey = "genre"
	SortByLength      SortKey = "length"
)

// ParseSortKey maps user input to a SortKey. Both camelCase and snake_case
// spellings are accepted; anything else sorts by name.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "rating":
		return SortByRating
	case "releasedate":
		return SortByReleaseDate
	case "genre":
		return SortByGenre
	case "length":
		return SortByLength
	default:
		return SortByName
	}
}

// TitleSort orders a listing.
type TitleSort struct {
	Key  SortKey
	Desc bool
}

// ParseSortOrder reports whether s asks for descending order. Anything other
// than DESC (any case) is ascending.
func ParseSortOrder(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "desc")
}

// TitleFilter narrows a listing. Empty fields do not filter.
type TitleFilter struct {
	Genre       string
	Tier        Tier
	Search      string
	ReleaseYear int

	// Rating matches exactly, so PG does not select PG-13.
	Rating string
}

// PageRequest selects a listing page. Page is 1-based.
type PageRequest struct {
	Page  int
	Limit int
}

// Listing page size defaults used when no configuration is supplied.
const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
)

// Normalize clamps the request: page below 1 becomes 1, a missing limit
// becomes def and a limit above max becomes max.
func (p PageRequest) Normalize(def, max int) PageRequest {
	if def < 1 {
		def = DefaultPageSize
	}
	if max < def {
		max = def
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Pagination is the listing metadata block.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPagination computes page metadata for total matching rows.
func NewPagination(req PageRequest, total int64) Pagination {
	var pages int64
	if req.Limit > 0 {
		pages = (total + int64(req.Limit) - 1) / int64(req.Limit)
	}
	return Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		TotalCount: total,
		TotalPages: pages,
		HasNext:    int64(req.Page)*int64(req.Limit) < total,
		HasPrev:    req.Page > 1,
	}
}

// TitlePage is one page of a catalog listing.
type TitlePage struct {
	Titles     []Title    `json:"shows"`
	Pagination Pagination `json:"pagination"`
}
