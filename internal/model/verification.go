package model

import "time"

// VerificationCode is the single current email-ownership code for an
// address, stored in the `email_codes` table.  The email column is the
// primary key, so issuing a new code atomically replaces the previous one:
// a superseded code can never match again.  Codes also carry an explicit
// expiry.
//
// Fields:
//
//	Email     – address the code was issued for (primary key).
//	Code      – 6-digit numeric code as a string.
//	ExpiresAt – when the code stops being accepted.
//	CreatedAt – when the code was issued.
type VerificationCode struct {
	Email     string    // email_codes.email
	Code      string    // email_codes.code
	ExpiresAt time.Time // email_codes.expires_at
	CreatedAt time.Time // email_codes.created_at
}
