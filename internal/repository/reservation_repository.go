package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ReservationRepo provides the reservation lifecycle over the
// 'reservations' table.  Table identifiers and menu item names are stored
// as JSON arrays in text columns.  All timestamp fields are assumed to be
// stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = "id, user_email, branch, `date`, `tables`, guests, notes, menu_items, status, created_at"

// Create inserts a new reservation with status 'pending' and returns its
// ID.  The insert runs in a transaction that first locks the non-cancelled
// rows for the same branch and date (SELECT ... FOR UPDATE) and rejects the
// request with ErrTableConflict when any requested table is already
// claimed.  Two concurrent creates for the same branch/date therefore
// serialize on the row lock instead of both succeeding.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock active rows for this branch/date and collect their tables.
	rows, err := tx.QueryContext(ctx,
		"SELECT `tables` FROM reservations WHERE branch = ? AND `date` = ? AND status != 'cancelled' FOR UPDATE",
		res.Branch, res.Date)
	if err != nil {
		return 0, err
	}
	occupied := make(map[string]struct{})
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			rows.Close()
			return 0, err
		}
		for _, t := range decodeList(raw) {
			occupied[t] = struct{}{}
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	for _, t := range res.Tables {
		if _, taken := occupied[t]; taken {
			return 0, ErrTableConflict
		}
	}

	tables, err := encodeList(res.Tables)
	if err != nil {
		return 0, err
	}
	menu, err := encodeList(res.MenuItems)
	if err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (user_email, branch, `date`, `tables`, guests, notes, menu_items, status) VALUES (?,?,?,?,?,?,?,?)",
		res.UserEmail, res.Branch, res.Date, tables, res.Guests, res.Notes, menu, model.StatusPending)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	res.ID = uint64(id)
	res.Status = model.StatusPending
	return res.ID, nil
}

// SetStatus updates a reservation's status unconditionally: there is no
// prior-state guard, so cancelling twice succeeds and a cancelled
// reservation can be confirmed again.  A missing identifier is reported as
// sql.ErrNoRows.  The existence check is separate from the UPDATE because
// MySQL reports zero affected rows for a same-value update, which would
// break the idempotent second cancel.
func (r *ReservationRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	var exists uint64
	if err := r.db.QueryRowContext(ctx,
		"SELECT id FROM reservations WHERE id=? LIMIT 1", id).Scan(&exists); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE reservations SET status=? WHERE id=?", status, id)
	return err
}

// GetByID returns a single reservation.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	var res model.Reservation
	var date time.Time
	var tables, notes, menu sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE id=? LIMIT 1", id).
		Scan(&res.ID, &res.UserEmail, &res.Branch, &date, &tables, &res.Guests, &notes, &menu, &res.Status, &res.CreatedAt)
	if err != nil {
		return res, err
	}
	res.Date = date.Format("2006-01-02")
	res.Tables = decodeList(tables)
	res.Notes = notes.String
	res.MenuItems = decodeList(menu)
	return res, nil
}

// ListByEmail returns all reservations for an owner email, newest date
// first.  When no reservations exist, an empty slice is returned.
func (r *ReservationRepo) ListByEmail(ctx context.Context, email string) ([]model.Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE user_email = ? ORDER BY `date` DESC, id DESC",
		email)
}

// ListAll returns every reservation ordered by creation time descending.
// This is the administrative view.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationCols+" FROM reservations ORDER BY created_at DESC, id DESC")
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		var date time.Time
		var tables, notes, menu sql.NullString
		if err := rows.Scan(&res.ID, &res.UserEmail, &res.Branch, &date, &tables, &res.Guests, &notes, &menu, &res.Status, &res.CreatedAt); err != nil {
			return nil, err
		}
		res.Date = date.Format("2006-01-02")
		res.Tables = decodeList(tables)
		res.Notes = notes.String
		res.MenuItems = decodeList(menu)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// OccupiedTables returns the union of table identifiers claimed by any
// reservation for the branch/date whose status is not 'cancelled' (pending
// and confirmed both count).  Order follows first appearance.  This is a
// derived read-side view for display; the write-side conflict check in
// Create is what actually prevents double booking.
func (r *ReservationRepo) OccupiedTables(ctx context.Context, branch, date string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT `tables` FROM reservations WHERE branch = ? AND `date` = ? AND status != 'cancelled'",
		branch, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	occupied := make([]string, 0)
	seen := make(map[string]struct{})
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, t := range decodeList(raw) {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				occupied = append(occupied, t)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return occupied, nil
}

// encodeList marshals a string list for storage in a JSON text column.
// A nil slice is stored as an empty array rather than SQL NULL.
func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeList unmarshals a JSON text column into a string list.  NULL,
// empty or malformed values decode to an empty slice.
func decodeList(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return []string{}
	}
	if out == nil {
		return []string{}
	}
	return out
}
