package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/store"
)

// DraftStore stages pending bookings per guest session.
type DraftStore interface {
	Save(ctx context.Context, sid string, d model.PendingBooking) error
	Load(ctx context.Context, sid string) (*model.PendingBooking, error)
	Delete(ctx context.Context, sid string) error
}

// PendingHandler serves the draft flow: a guest stages a booking before
// logging in, then claims it as a real reservation once authenticated.
type PendingHandler struct {
	Drafts DraftStore
	Res    *ReservationHandler
}

func NewPendingHandler(drafts DraftStore, res *ReservationHandler) *PendingHandler {
	return &PendingHandler{Drafts: drafts, Res: res}
}

// Stage saves the request body as the session's draft, replacing any
// earlier draft and resetting its TTL.  Validation happens at claim
// time, not here, so a partially filled form can still be staged.
func (h *PendingHandler) Stage(c echo.Context) error {
	sid, ok := c.Get("session_id").(string)
	if !ok || sid == "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "missing session"})
	}

	var d model.PendingBooking
	if err := c.Bind(&d); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if d.Branch == "" && d.Date == "" && len(d.Tables) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no booking data"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Drafts.Save(ctx, sid, d); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "draft storage unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "pending saved"})
}

// Claim turns the session's staged draft into a reservation owned by the
// authenticated account.  A draft sent in the request body overrides the
// staged one.  The draft is consumed on success and on rejection (bad
// data or table conflict); it survives only internal errors, so the
// client can retry.
func (h *PendingHandler) Claim(c echo.Context) error {
	email, ok := c.Get("email").(string)
	if !ok || email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing identity"})
	}
	sid, _ := c.Get("session_id").(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var draft *model.PendingBooking
	var body struct {
		Pending *model.PendingBooking `json:"pending"`
	}
	if err := c.Bind(&body); err == nil && body.Pending != nil {
		draft = body.Pending
	} else if sid != "" {
		staged, err := h.Drafts.Load(ctx, sid)
		if err != nil && !errors.Is(err, store.ErrUnavailable) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load booking"})
		}
		draft = staged
	}
	if draft == nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "no pending booking"})
	}

	if msg := validateBooking(*draft); msg != "" {
		h.discard(ctx, sid)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	res := model.Reservation{
		UserEmail: email,
		Branch:    draft.Branch,
		Date:      draft.Date,
		Tables:    draft.Tables,
		Guests:    draft.Guests,
		Notes:     draft.Notes,
		MenuItems: draft.MenuItems,
	}
	id, err := h.Res.Store.Create(ctx, &res)
	if errors.Is(err, repository.ErrTableConflict) {
		h.discard(ctx, sid)
		return c.JSON(http.StatusConflict, echo.Map{"error": "one or more tables are already reserved for this date"})
	}
	if err != nil {
		// Keep the draft so the client can retry after a transient
		// failure.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create reservation"})
	}

	h.discard(ctx, sid)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "reservation_id": id})
}

func (h *PendingHandler) discard(ctx context.Context, sid string) {
	if sid != "" {
		_ = h.Drafts.Delete(ctx, sid)
	}
}
