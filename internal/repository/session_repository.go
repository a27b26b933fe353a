package repository

import (
	"context"
	"database/sql"
	"time"
)

// SessionRepo persists refresh-token sessions (single 'token_hash' column,
// SHA-256 of the raw token handed to the client).
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Store inserts a session row for an account.
func (r *SessionRepo) Store(ctx context.Context, accountID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (account_id, token_hash, expires_at) VALUES (?,?,?)",
		accountID, tokenHash, expiresAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// Validate returns the owning account ID if a live session exists for the
// hash.  Expiry and revocation are enforced in SQL; a dead or missing
// session yields sql.ErrNoRows either way.
func (r *SessionRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	var accountID uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT account_id FROM sessions
		 WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()
		 LIMIT 1`,
		tokenHash).Scan(&accountID)
	if err != nil {
		return 0, err
	}
	return accountID, nil
}

// Revoke marks a single session as revoked.
func (r *SessionRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAll revokes every live session of an account.
func (r *SessionRepo) RevokeAll(ctx context.Context, accountID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE account_id=? AND revoked_at IS NULL",
		accountID)
	return err
}
