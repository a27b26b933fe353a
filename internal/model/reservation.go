package model

import "time"

// Reservation status values.  A reservation starts as pending and moves to
// confirmed or cancelled; both are terminal, although no transition guard
// is enforced (a cancelled reservation can technically be confirmed again).
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Reservation records a table booking at a branch for a given date.  The
// table identifiers are opaque strings scoped per branch (e.g. "L4-1");
// they are stored as a JSON array in a text column, as is the list of
// pre-selected menu item names.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserEmail – owner email (string reference, not a foreign key).
//	Branch    – restaurant location identifier.
//	Date      – reservation date, formatted YYYY-MM-DD.
//	Tables    – table identifiers claimed by this reservation.
//	Guests    – number of guests.
//	Notes     – free-text notes.
//	MenuItems – names of pre-ordered menu items.
//	Status    – pending, confirmed or cancelled.
//	CreatedAt – creation timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	UserEmail string    // reservations.user_email
	Branch    string    // reservations.branch
	Date      string    // reservations.date (YYYY-MM-DD)
	Tables    []string  // reservations.tables (JSON array)
	Guests    int       // reservations.guests
	Notes     string    // reservations.notes
	MenuItems []string  // reservations.menu_items (JSON array)
	Status    string    // reservations.status
	CreatedAt time.Time // reservations.created_at
}

// PendingBooking is a reservation draft staged by a guest session before
// authentication.  It has the shape of a Reservation minus identifier,
// owner and status.  Drafts live in Redis under the guest session id with
// an explicit TTL and are consumed exactly once by the claim operation.
// The json tags double as the wire format for both the HTTP body and the
// Redis value.
type PendingBooking struct {
	Branch    string   `json:"branch"`
	Date      string   `json:"date"`
	Tables    []string `json:"tables"`
	Guests    int      `json:"guests"`
	Notes     string   `json:"notes,omitempty"`
	MenuItems []string `json:"menu_items,omitempty"`
}
