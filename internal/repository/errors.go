// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without string
// matching.  Absent rows are reported with sql.ErrNoRows as everywhere else
// in the codebase.
package repository

import "errors"

// ErrCodeMismatch is returned when a submitted verification code differs
// from the current code for the email.  Handlers should translate this
// into an HTTP 400 response.
var ErrCodeMismatch = errors.New("code mismatch")

// ErrCodeExpired is returned when the current code for the email exists
// but its expiry has passed.  Handlers should translate this into an
// HTTP 400 response.
var ErrCodeExpired = errors.New("code expired")

// ErrTableConflict is returned when a reservation requests a table that a
// non-cancelled reservation already claims for the same branch and date.
// Handlers should translate this into an HTTP 409 response.
var ErrTableConflict = errors.New("table already reserved")
