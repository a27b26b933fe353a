package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// ReservationStore is the reservation persistence surface the handlers
// use.  *repository.ReservationRepo satisfies it.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) (uint64, error)
	SetStatus(ctx context.Context, id uint64, status string) error
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	ListByEmail(ctx context.Context, email string) ([]model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
	OccupiedTables(ctx context.Context, branch, date string) ([]string, error)
}

// ReservationHandler serves the reservation lifecycle.  Publish, when
// set, emits a confirmation event to the message queue; it is best-effort
// and never fails the request.
type ReservationHandler struct {
	Store   ReservationStore
	Publish func(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

func NewReservationHandler(store ReservationStore) *ReservationHandler {
	return &ReservationHandler{Store: store}
}

// reservationResp is the wire form of a reservation.
type reservationResp struct {
	ID        uint64   `json:"id"`
	UserEmail string   `json:"user_email"`
	Branch    string   `json:"branch"`
	Date      string   `json:"date"`
	Tables    []string `json:"tables"`
	Guests    int      `json:"guests"`
	Notes     string   `json:"notes,omitempty"`
	MenuItems []string `json:"menu_items,omitempty"`
	Status    string   `json:"status"`
	CreatedAt string   `json:"created_at"`
}

func toReservationResp(r model.Reservation) reservationResp {
	return reservationResp{
		ID:        r.ID,
		UserEmail: r.UserEmail,
		Branch:    r.Branch,
		Date:      r.Date,
		Tables:    r.Tables,
		Guests:    r.Guests,
		Notes:     r.Notes,
		MenuItems: r.MenuItems,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// validateBooking checks the fields shared by direct creation and draft
// claiming.  It returns a client-facing message, or "" when valid.
func validateBooking(b model.PendingBooking) string {
	if b.Branch == "" {
		return "branch is required"
	}
	if _, err := time.Parse("2006-01-02", b.Date); err != nil {
		return "date must be formatted YYYY-MM-DD"
	}
	if len(b.Tables) == 0 {
		return "at least one table is required"
	}
	if b.Guests < 1 {
		return "guests must be at least 1"
	}
	return ""
}

// createReservation persists a booking for the owner email and maps the
// storage errors onto HTTP responses.  Shared by Create and the draft
// claim path.
func (h *ReservationHandler) createReservation(c echo.Context, ctx context.Context, email string, b model.PendingBooking) error {
	res := model.Reservation{
		UserEmail: email,
		Branch:    b.Branch,
		Date:      b.Date,
		Tables:    b.Tables,
		Guests:    b.Guests,
		Notes:     b.Notes,
		MenuItems: b.MenuItems,
	}
	id, err := h.Store.Create(ctx, &res)
	if errors.Is(err, repository.ErrTableConflict) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "one or more tables are already reserved for this date"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create reservation"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "reservation_id": id})
}

// Create books tables directly for the authenticated account.  The
// reservation starts as pending.
func (h *ReservationHandler) Create(c echo.Context) error {
	email, ok := c.Get("email").(string)
	if !ok || email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing identity"})
	}

	var b model.PendingBooking
	if err := c.Bind(&b); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := validateBooking(b); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	return h.createReservation(c, ctx, email, b)
}

type statusReq struct {
	ReservationID uint64 `json:"reservation_id"`
}

// Confirm moves a reservation to confirmed and emits a confirmation
// event.  There is no prior-state check: confirming twice, or confirming
// a cancelled reservation, succeeds.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil || req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.SetStatus(ctx, req.ReservationID, model.StatusConfirmed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update reservation"})
	}

	if h.Publish != nil {
		// Delivery failure is logged, not surfaced; the status change
		// already committed.
		if res, err := h.Store.GetByID(ctx, req.ReservationID); err == nil {
			ev := queue.ReservationConfirmedEvent{
				ReservationID: res.ID,
				UserEmail:     res.UserEmail,
				Branch:        res.Branch,
				Date:          res.Date,
				Tables:        res.Tables,
				Guests:        res.Guests,
				ConfirmedAt:   time.Now().UTC(),
			}
			if err := h.Publish(ctx, ev); err != nil {
				c.Logger().Warnf("confirm event publish failed for reservation %d: %v", res.ID, err)
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "reservation confirmed", "status": model.StatusConfirmed})
}

// Cancel moves a reservation to cancelled.  Cancelling an already
// cancelled reservation succeeds again with the same response.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil || req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.SetStatus(ctx, req.ReservationID, model.StatusCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled", "status": model.StatusCancelled})
}

// ListMine returns the authenticated account's reservations, newest date
// first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	email, ok := c.Get("email").(string)
	if !ok || email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing identity"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Store.ListByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load reservations"})
	}
	out := make([]reservationResp, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// ListAll returns every reservation, newest creation first.
func (h *ReservationHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Store.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load reservations"})
	}
	out := make([]reservationResp, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Occupied returns the table identifiers taken for a branch and date.
// Pending and confirmed reservations both count; cancelled ones do not.
func (h *ReservationHandler) Occupied(c echo.Context) error {
	branch := c.QueryParam("branch")
	date := c.QueryParam("date")
	if branch == "" || date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "branch and date query parameters are required"})
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be formatted YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	occupied, err := h.Store.OccupiedTables(ctx, branch, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load occupancy"})
	}
	return c.JSON(http.StatusOK, echo.Map{"occupied": occupied})
}
