package database

import (
	"context"
	"database/sql"
)

// Migrate creates the schema when it does not exist yet.  Statements are
// idempotent so the server can run them on every start.  The table_usage
// counter table is part of the schema but no operation writes or reads it.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			name          VARCHAR(255) NOT NULL,
			email         VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NULL,
			verified      TINYINT(1) NOT NULL DEFAULT 0,
			google_id     VARCHAR(64) NULL,
			created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_accounts_email (email)
		)`,
		// One current code per email: reissue replaces the row in place.
		`CREATE TABLE IF NOT EXISTS email_codes (
			email      VARCHAR(255) NOT NULL PRIMARY KEY,
			code       CHAR(6) NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			account_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_sessions_token_hash (token_hash),
			KEY idx_sessions_account (account_id)
		)`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_email VARCHAR(255) NOT NULL,
			branch     VARCHAR(64) NOT NULL,
			` + "`date`" + `     DATE NOT NULL,
			` + "`tables`" + `   TEXT NOT NULL,
			guests     INT NOT NULL,
			notes      TEXT NULL,
			menu_items TEXT NULL,
			status     VARCHAR(16) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_reservations_branch_date (branch, ` + "`date`" + `),
			KEY idx_reservations_user_email (user_email)
		)`,
		`CREATE TABLE IF NOT EXISTS table_usage (
			id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			table_id   VARCHAR(64) NOT NULL,
			branch     VARCHAR(64) NOT NULL,
			` + "`date`" + `     DATE NOT NULL,
			used_seats INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS menu_items (
			id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			name        VARCHAR(255) NOT NULL,
			category    VARCHAR(64) NOT NULL,
			price       INT NOT NULL,
			description TEXT NULL,
			img         VARCHAR(255) NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
