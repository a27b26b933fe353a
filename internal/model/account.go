package model

import "time"

// Account represents a registered user record as stored in the `accounts`
// table.  Each field corresponds to a column in the database.  The json
// tags are omitted here because these structs are primarily used internally
// by the repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// An account is created either from a credential registration (name, email,
// bcrypt password hash, unverified) or from a Google profile (google_id set,
// verified immediately, no password).  The verified flag flips to true only
// after a matching email code is presented.  Account rows are never deleted.
//
// Fields:
//
//	ID           – primary key identifier of the account.
//	Name         – display name.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password (nil for OAuth-only accounts).
//	Verified     – whether email ownership has been proven.
//	GoogleID     – external identity reference (nil for credential accounts).
//	CreatedAt    – timestamp of creation.
type Account struct {
	ID           uint64    // accounts.id
	Name         string    // accounts.name
	Email        string    // accounts.email
	PasswordHash *string   // accounts.password_hash (nullable)
	Verified     bool      // accounts.verified
	GoogleID     *string   // accounts.google_id (nullable)
	CreatedAt    time.Time // accounts.created_at
}
