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

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/credential"
	"github.com/tomtom215/easyflix/internal/models"
)

const accountColumns = `id, username, email, tier, total_spent, favourite_genre, marketing_consent`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a         models.Account
		tier      string
		spent     int64
		favourite sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &tier, &spent, &favourite, &a.MarketingConsent); err != nil {
		return nil, err
	}
	a.Tier = models.Tier(tier)
	a.TotalSpent = models.Money(spent)
	a.FavouriteGenre = stringPtr(favourite)
	a.OwnedTitles = []int64{}
	return &a, nil
}

// Register creates an account and charges the tier's subscription fee as
// its initial spend.
func (db *DB) Register(ctx context.Context, in models.NewAccount) (*models.Registration, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" {
		return nil, apperr.Validation("username and email are required")
	}
	if !in.Tier.Valid() {
		return nil, apperr.Validation("unknown subscription level %q", in.Tier)
	}

	cred, err := credential.New(in.Secret)
	if err != nil {
		return nil, apperr.Internal(err, "failed to derive credential")
	}

	var reg models.Registration
	err = db.withTx(ctx, "register", func(ctx context.Context, tx *sql.Tx) error {
		var sameUser, sameEmail sql.NullBool
		err := tx.QueryRowContext(ctx, `
			SELECT bool_or(username = ?), bool_or(email = ?)
			FROM accounts WHERE username = ? OR email = ?`,
			in.Username, in.Email, in.Username, in.Email,
		).Scan(&sameUser, &sameEmail)
		if err != nil {
			return fmt.Errorf("failed to check existing accounts: %w", err)
		}
		if sameUser.Bool {
			return apperr.Conflict("username %q is already taken", in.Username)
		}
		if sameEmail.Bool {
			return apperr.Conflict("email %q is already registered", in.Email)
		}

		charge := in.Tier.Fee()
		err = tx.QueryRowContext(ctx, `
			INSERT INTO accounts (username, email, salt, digest, tier, total_spent, marketing_consent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			in.Username, in.Email, cred.Salt, cred.Digest, string(in.Tier), int64(charge),
			in.MarketingConsent, db.now().UTC(),
		).Scan(&reg.ID)
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}
		reg.AmountCharged = charge
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Authenticate verifies a username and secret and returns the profile.
func (db *DB) Authenticate(ctx context.Context, username, secret string) (*models.Account, error) {
	var account *models.Account
	err := db.withTx(ctx, "authenticate", func(ctx context.Context, tx *sql.Tx) error {
		var cred credential.Credential
		row := tx.QueryRowContext(ctx,
			`SELECT `+accountColumns+`, salt, digest FROM accounts WHERE username = ?`, username)

		var (
			a         models.Account
			tier      string
			spent     int64
			favourite sql.NullString
		)
		err := row.Scan(&a.ID, &a.Username, &a.Email, &tier, &spent, &favourite, &a.MarketingConsent,
			&cred.Salt, &cred.Digest)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user %q not found", username)
		}
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if !cred.Matches(secret) {
			return apperr.InvalidCredential("invalid password")
		}

		a.Tier = models.Tier(tier)
		a.TotalSpent = models.Money(spent)
		a.FavouriteGenre = stringPtr(favourite)
		if a.OwnedTitles, err = ownedIDs(ctx, tx, a.ID); err != nil {
			return err
		}
		account = &a
		return nil
	})
	return account, err
}

// GetAccount returns the profile of accountID with its owned list.
func (db *DB) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	var account *models.Account
	err := db.withTx(ctx, "get_account", func(ctx context.Context, tx *sql.Tx) error {
		a, err := loadAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if a.OwnedTitles, err = ownedIDs(ctx, tx, a.ID); err != nil {
			return err
		}
		account = a
		return nil
	})
	return account, err
}

// ListAccounts returns every account summary ordered by id.
func (db *DB) ListAccounts(ctx context.Context) ([]models.AccountSummary, error) {
	accounts := []models.AccountSummary{}
	err := db.withTx(ctx, "list_accounts", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT a.id, a.username, a.email, a.tier, a.total_spent, a.favourite_genre,
			       a.marketing_consent, COUNT(o.title_id)
			FROM accounts a
			LEFT JOIN owned_titles o ON o.account_id = a.id
			GROUP BY a.id, a.username, a.email, a.tier, a.total_spent, a.favourite_genre, a.marketing_consent
			ORDER BY a.id`)
		if err != nil {
			return fmt.Errorf("failed to query accounts: %w", err)
		}
		defer closeWithLog(rows, "rows")

		for rows.Next() {
			var (
				s         models.AccountSummary
				tier      string
				spent     int64
				favourite sql.NullString
			)
			if err := rows.Scan(&s.ID, &s.Username, &s.Email, &tier, &spent, &favourite,
				&s.MarketingConsent, &s.OwnedCount); err != nil {
				return fmt.Errorf("failed to scan account: %w", err)
			}
			s.Tier = models.Tier(tier)
			s.TotalSpent = models.Money(spent)
			s.FavouriteGenre = stringPtr(favourite)
			accounts = append(accounts, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChangeTier moves an account to newTier. Only Basic to Premium is charged.
func (db *DB) ChangeTier(ctx context.Context, accountID int64, newTier models.Tier) (*models.TierChange, error) {
	if !newTier.Valid() {
		return nil, apperr.Validation("unknown subscription level %q", newTier)
	}

	var change models.TierChange
	err := db.withTx(ctx, "change_tier", func(ctx context.Context, tx *sql.Tx) error {
		a, err := loadAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		charge := a.Tier.ChangeCharge(newTier)
		spent := a.TotalSpent + charge

		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET tier = ?, total_spent = ? WHERE id = ?`,
			string(newTier), int64(spent), accountID); err != nil {
			return fmt.Errorf("failed to update tier: %w", err)
		}

		change = models.TierChange{
			ID:            accountID,
			PreviousTier:  a.Tier,
			Tier:          newTier,
			AmountCharged: charge,
			TotalSpent:    spent,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// ChangeSecret replaces the account credential with a freshly salted one.
func (db *DB) ChangeSecret(ctx context.Context, accountID int64, secret string) error {
	cred, err := credential.New(secret)
	if err != nil {
		return apperr.Internal(err, "failed to derive credential")
	}
	return db.withTx(ctx, "change_secret", func(ctx context.Context, tx *sql.Tx) error {
		return execOne(ctx, tx, accountNotFound(accountID),
			`UPDATE accounts SET salt = ?, digest = ? WHERE id = ?`, cred.Salt, cred.Digest, accountID)
	})
}

// ChangeMarketingConsent sets the marketing opt-in flag.
func (db *DB) ChangeMarketingConsent(ctx context.Context, accountID int64, consent bool) error {
	return db.withTx(ctx, "change_marketing_consent", func(ctx context.Context, tx *sql.Tx) error {
		return execOne(ctx, tx, accountNotFound(accountID),
			`UPDATE accounts SET marketing_consent = ? WHERE id = ?`, consent, accountID)
	})
}

// ChangeFavouriteGenre sets the favourite genre. A nil genre clears it.
func (db *DB) ChangeFavouriteGenre(ctx context.Context, accountID int64, genre *string) error {
	return db.withTx(ctx, "change_favourite_genre", func(ctx context.Context, tx *sql.Tx) error {
		return execOne(ctx, tx, accountNotFound(accountID),
			`UPDATE accounts SET favourite_genre = ? WHERE id = ?`, nullableString(genre), accountID)
	})
}

// DeleteAccount removes the account with its purchases and owned list.
func (db *DB) DeleteAccount(ctx context.Context, accountID int64) error {
	return db.withTx(ctx, "delete_account", func(ctx context.Context, tx *sql.Tx) error {
		if err := accountExists(ctx, tx, accountID); err != nil {
			return err
		}
		for _, q := range []string{
			`DELETE FROM purchases WHERE account_id = ?`,
			`DELETE FROM owned_titles WHERE account_id = ?`,
			`DELETE FROM accounts WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, accountID); err != nil {
				return fmt.Errorf("failed to delete account %d: %w", accountID, err)
			}
		}
		return nil
	})
}

func accountNotFound(accountID int64) *apperr.Error {
	return apperr.NotFound("account %d not found", accountID)
}

func loadAccount(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Account, error) {
	a, err := scanAccount(tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, accountNotFound(accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", accountID, err)
	}
	return a, nil
}

func accountExists(ctx context.Context, tx *sql.Tx, accountID int64) error {
	var n int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE id = ?`, accountID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check account %d: %w", accountID, err)
	}
	if n == 0 {
		return accountNotFound(accountID)
	}
	return nil
}

func ownedIDs(ctx context.Context, tx *sql.Tx, accountID int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT title_id FROM owned_titles WHERE account_id = ? ORDER BY position`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query owned titles: %w", err)
	}
	defer closeWithLog(rows, "rows")

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan owned title: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// execOne runs a single-row UPDATE or DELETE and returns notFound when no
// row matched.
func execOne(ctx context.Context, tx *sql.Tx, notFound error, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to execute update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
