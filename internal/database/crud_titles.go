// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/models"
)

const titleColumns = `id, name, release_date, rating, director, length_minutes, genre, access_tier, price`

// titleSortColumns whitelists ORDER BY targets; nothing user-supplied reaches
// the query text.
var titleSortColumns = map[models.SortKey]string{
	models.SortByName:        "name",
	models.SortByRating:      "rating",
	models.SortByReleaseDate: "release_date",
	models.SortByGenre:       "genre",
	models.SortByLength:      "length_minutes",
}

func scanTitle(row rowScanner) (*models.Title, error) {
	var (
		t        models.Title
		released time.Time
		tier     string
		price    sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Name, &released, &t.Rating, &t.Director, &t.Length, &t.Genre, &tier, &price); err != nil {
		return nil, err
	}
	t.ReleaseDate = models.DateOf(released)
	t.Tier = models.Tier(tier)
	if price.Valid {
		p := models.Money(price.Int64)
		t.Price = &p
	}
	return &t, nil
}

func titleNotFound(titleID int64) *apperr.Error {
	return apperr.NotFound("show %d not found", titleID)
}

func loadTitle(ctx context.Context, tx *sql.Tx, titleID int64) (*models.Title, error) {
	t, err := scanTitle(tx.QueryRowContext(ctx, `SELECT `+titleColumns+` FROM titles WHERE id = ?`, titleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, titleNotFound(titleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load title %d: %w", titleID, err)
	}
	return t, nil
}

// validateNewTitle enforces the tier/price coupling and clears the price of
// Basic titles.
func validateNewTitle(nt *models.NewTitle) error {
	nt.Name = strings.TrimSpace(nt.Name)
	if nt.Name == "" {
		return apperr.Validation("name is required")
	}
	if !nt.Tier.Valid() {
		return apperr.Validation("unknown access group %q", nt.Tier)
	}
	if nt.Length < 0 {
		return apperr.Validation("length must not be negative")
	}
	switch nt.Tier {
	case models.TierPremium:
		if nt.Price == nil || *nt.Price <= 0 {
			return apperr.Validation("Premium titles require a price greater than 0")
		}
	case models.TierBasic:
		nt.Price = nil
	}
	return nil
}

func insertTitle(ctx context.Context, tx *sql.Tx, nt models.NewTitle) (int64, error) {
	var price sql.NullInt64
	if nt.Price != nil {
		price = sql.NullInt64{Int64: int64(*nt.Price), Valid: true}
	}
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO titles (name, release_date, rating, director, length_minutes, genre, access_tier, price)
		VALUES (?, CAST(? AS DATE), ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		nt.Name, nt.ReleaseDate.String(), nt.Rating, nt.Director, nt.Length, nt.Genre, string(nt.Tier), price,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert title %q: %w", nt.Name, err)
	}
	return id, nil
}

// AddTitle inserts a catalog entry.
func (db *DB) AddTitle(ctx context.Context, nt models.NewTitle) (*models.Title, error) {
	if err := validateNewTitle(&nt); err != nil {
		return nil, err
	}
	var title *models.Title
	err := db.withTx(ctx, "add_title", func(ctx context.Context, tx *sql.Tx) error {
		id, err := insertTitle(ctx, tx, nt)
		if err != nil {
			return err
		}
		title, err = loadTitle(ctx, tx, id)
		return err
	})
	return title, err
}

// GetTitle returns one catalog entry.
func (db *DB) GetTitle(ctx context.Context, titleID int64) (*models.Title, error) {
	var title *models.Title
	err := db.withTx(ctx, "get_title", func(ctx context.Context, tx *sql.Tx) (err error) {
		title, err = loadTitle(ctx, tx, titleID)
		return err
	})
	return title, err
}

// UpdateAccessTier moves a title between tiers. Moving to Basic clears the
// price; moving to Premium keeps whatever price is stored.
func (db *DB) UpdateAccessTier(ctx context.Context, titleID int64, tier models.Tier) (*models.Title, error) {
	if !tier.Valid() {
		return nil, apperr.Validation("unknown access group %q", tier)
	}
	query := `UPDATE titles SET access_tier = ? WHERE id = ?`
	if tier == models.TierBasic {
		query = `UPDATE titles SET access_tier = ?, price = NULL WHERE id = ?`
	}

	var title *models.Title
	err := db.withTx(ctx, "update_access_tier", func(ctx context.Context, tx *sql.Tx) (err error) {
		if err = execOne(ctx, tx, titleNotFound(titleID), query, string(tier), titleID); err != nil {
			return err
		}
		title, err = loadTitle(ctx, tx, titleID)
		return err
	})
	return title, err
}

// UpdatePrice sets the price of a Premium title. As in AddTitle the price
// must be greater than 0.
func (db *DB) UpdatePrice(ctx context.Context, titleID int64, price models.Money) (*models.Title, error) {
	if price <= 0 {
		return nil, apperr.Validation("Premium titles require a price greater than 0")
	}

	var title *models.Title
	err := db.withTx(ctx, "update_price", func(ctx context.Context, tx *sql.Tx) error {
		current, err := loadTitle(ctx, tx, titleID)
		if err != nil {
			return err
		}
		if current.Tier != models.TierPremium {
			return apperr.Validation("price applies only to Premium titles")
		}
		if _, err := tx.ExecContext(ctx, `UPDATE titles SET price = ? WHERE id = ?`, int64(price), titleID); err != nil {
			return fmt.Errorf("failed to update price: %w", err)
		}
		p := price
		current.Price = &p
		title = current
		return nil
	})
	return title, err
}

// DeleteTitle removes a title from the catalog, every owned list and the
// purchase history.
func (db *DB) DeleteTitle(ctx context.Context, titleID int64) error {
	return db.withTx(ctx, "delete_title", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := loadTitle(ctx, tx, titleID); err != nil {
			return err
		}
		for _, q := range []string{
			`DELETE FROM owned_titles WHERE title_id = ?`,
			`DELETE FROM purchases WHERE title_id = ?`,
			`DELETE FROM titles WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, titleID); err != nil {
				return fmt.Errorf("failed to delete title %d: %w", titleID, err)
			}
		}
		return nil
	})
}

// ListTitles returns one page of the catalog.
func (db *DB) ListTitles(ctx context.Context, filter models.TitleFilter, sort models.TitleSort, page models.PageRequest) (*models.TitlePage, error) {
	page = page.Normalize(db.defaultPageSize, db.maxPageSize)

	var (
		where []string
		args  []interface{}
	)
	if g := strings.TrimSpace(filter.Genre); g != "" {
		where = append(where, "genre = ?")
		args = append(args, g)
	}
	if filter.Tier != "" {
		where = append(where, "access_tier = ?")
		args = append(args, string(filter.Tier))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, "(contains(lower(name), lower(?)) OR contains(lower(genre), lower(?)))")
		args = append(args, s, s)
	}
	if r := strings.TrimSpace(filter.Rating); r != "" {
		where = append(where, "rating = ?")
		args = append(args, r)
	}
	if filter.ReleaseYear > 0 {
		where = append(where, "year(release_date) = ?")
		args = append(args, filter.ReleaseYear)
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	column, ok := titleSortColumns[sort.Key]
	if !ok {
		column = titleSortColumns[models.SortByName]
	}
	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}

	result := &models.TitlePage{Titles: []models.Title{}}
	err := db.withTx(ctx, "list_titles", func(ctx context.Context, tx *sql.Tx) error {
		var total int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM titles`+whereClause, args...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count titles: %w", err)
		}

		query := fmt.Sprintf(`SELECT %s FROM titles%s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`,
			titleColumns, whereClause, column, direction)
		rows, err := tx.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
		if err != nil {
			return fmt.Errorf("failed to query titles: %w", err)
		}
		defer closeWithLog(rows, "rows")

		for rows.Next() {
			t, err := scanTitle(rows)
			if err != nil {
				return fmt.Errorf("failed to scan title: %w", err)
			}
			result.Titles = append(result.Titles, *t)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		result.Pagination = models.NewPagination(page, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Genres returns the distinct catalog genres in ascending order.
func (db *DB) Genres(ctx context.Context) ([]string, error) {
	return db.distinctTitleValues(ctx, "genres", "genre")
}

// Ratings returns the distinct content ratings in ascending order.
func (db *DB) Ratings(ctx context.Context) ([]string, error) {
	return db.distinctTitleValues(ctx, "ratings", "rating")
}

func (db *DB) distinctTitleValues(ctx context.Context, op, column string) ([]string, error) {
	values := []string{}
	err := db.withTx(ctx, op, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT DISTINCT %[1]s FROM titles ORDER BY %[1]s`, column))
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", op, err)
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				return fmt.Errorf("failed to scan %s: %w", op, err)
			}
			values = append(values, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}
