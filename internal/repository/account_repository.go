package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/utils"
)

// AccountRepo provides persistence for the 'accounts' table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts an unverified credential account and returns its ID.
func (r *AccountRepo) Create(ctx context.Context, name, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (name, email, password_hash) VALUES (?,?,?)",
		name, email, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpsertGoogle inserts or updates an account derived from a Google profile.
// OAuth accounts are created verified; an existing credential account for
// the same email gets the google_id attached and is marked verified, since
// Google has already proven ownership of the address.
func (r *AccountRepo) UpsertGoogle(ctx context.Context, name, email, googleID string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO accounts (name, email, verified, google_id) VALUES (?,?,1,?)
		 ON DUPLICATE KEY UPDATE google_id = VALUES(google_id), verified = 1`,
		name, email, googleID)
	if err != nil {
		return model.Account{}, err
	}
	return r.GetByEmail(ctx, email)
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var a model.Account
	var hash, googleID sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,verified,google_id,created_at FROM accounts WHERE email=? LIMIT 1",
		email).Scan(&a.ID, &a.Name, &a.Email, &hash, &a.Verified, &googleID, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	if hash.Valid {
		h := hash.String
		a.PasswordHash = &h
	}
	if googleID.Valid {
		g := googleID.String
		a.GoogleID = &g
	}
	return a, nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	var a model.Account
	var hash, googleID sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,verified,google_id,created_at FROM accounts WHERE id=? LIMIT 1",
		id).Scan(&a.ID, &a.Name, &a.Email, &hash, &a.Verified, &googleID, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	if hash.Valid {
		h := hash.String
		a.PasswordHash = &h
	}
	if googleID.Valid {
		g := googleID.String
		a.GoogleID = &g
	}
	return a, nil
}

// MarkVerified flips the verified flag for an email.  Updating an email
// with no account row is a no-op, matching the verify-then-register flow
// where the code may be verified before any account exists.
func (r *AccountRepo) MarkVerified(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx, "UPDATE accounts SET verified=1 WHERE email=?", email)
	return err
}
