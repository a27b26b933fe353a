package repository

import (
	"context"
	"database/sql"
	"time"
)

// CodeRepo persists the single current verification code per email in the
// 'email_codes' table.  The email column is the primary key, so a reissue
// replaces the slot atomically and a superseded code can never match again.
type CodeRepo struct{ DB *sql.DB }

func NewCodeRepo(db *sql.DB) *CodeRepo { return &CodeRepo{DB: db} }

// Replace swaps the email's code slot with a fresh code and expiry.
func (r *CodeRepo) Replace(ctx context.Context, email, code string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO email_codes (email, code, expires_at) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE code = VALUES(code), expires_at = VALUES(expires_at),
		                         created_at = CURRENT_TIMESTAMP`,
		email, code, expiresAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// Verify checks a submitted code against the email's current slot.  It
// returns sql.ErrNoRows when no code exists for the email, ErrCodeExpired
// when the slot's expiry has passed, and ErrCodeMismatch when the codes
// differ.  Matching is case-sensitive exact string equality, performed in
// Go rather than SQL to sidestep collation case folding.
func (r *CodeRepo) Verify(ctx context.Context, email, code string) error {
	var stored string
	var expiresAt time.Time
	err := r.DB.QueryRowContext(ctx,
		"SELECT code, expires_at FROM email_codes WHERE email=? LIMIT 1",
		email).Scan(&stored, &expiresAt)
	if err != nil {
		return err
	}
	if time.Now().UTC().After(expiresAt) {
		return ErrCodeExpired
	}
	if stored != code {
		return ErrCodeMismatch
	}
	return nil
}
