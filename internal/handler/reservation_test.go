package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// fakeReservationStore is an in-memory ReservationStore with the same
// conflict semantics as the SQL implementation.
type fakeReservationStore struct {
	nextID     uint64
	items      map[uint64]*model.Reservation
	failCreate error
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{items: make(map[uint64]*model.Reservation)}
}

func (s *fakeReservationStore) Create(ctx context.Context, res *model.Reservation) (uint64, error) {
	if s.failCreate != nil {
		return 0, s.failCreate
	}
	taken := make(map[string]struct{})
	for _, r := range s.items {
		if r.Branch == res.Branch && r.Date == res.Date && r.Status != model.StatusCancelled {
			for _, t := range r.Tables {
				taken[t] = struct{}{}
			}
		}
	}
	for _, t := range res.Tables {
		if _, ok := taken[t]; ok {
			return 0, repository.ErrTableConflict
		}
	}
	s.nextID++
	res.ID = s.nextID
	res.Status = model.StatusPending
	res.CreatedAt = time.Now().UTC()
	cp := *res
	s.items[res.ID] = &cp
	return res.ID, nil
}

func (s *fakeReservationStore) SetStatus(ctx context.Context, id uint64, status string) error {
	r, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	return nil
}

func (s *fakeReservationStore) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	r, ok := s.items[id]
	if !ok {
		return model.Reservation{}, sql.ErrNoRows
	}
	return *r, nil
}

func (s *fakeReservationStore) ListByEmail(ctx context.Context, email string) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for _, r := range s.items {
		if r.UserEmail == email {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeReservationStore) ListAll(ctx context.Context) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for _, r := range s.items {
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeReservationStore) OccupiedTables(ctx context.Context, branch, date string) ([]string, error) {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, r := range s.items {
		if r.Branch != branch || r.Date != date || r.Status == model.StatusCancelled {
			continue
		}
		for _, t := range r.Tables {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateReservationStartsPending(t *testing.T) {
	store := newFakeReservationStore()
	h := NewReservationHandler(store)

	c, rec := newContext(t, http.MethodPost, "/reservation",
		`{"branch":"B1","date":"2024-01-01","tables":["T1","T2"],"guests":4,"notes":"window seat"}`)
	c.Set("email", "ana@example.com")

	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.EqualValues(t, 1, body["reservation_id"])

	got, err := store.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, got.Status)
	require.Equal(t, "ana@example.com", got.UserEmail)

	// The new reservation shows up in the owner's list.
	c2, rec2 := newContext(t, http.MethodGet, "/user/bookings", "")
	c2.Set("email", "ana@example.com")
	require.NoError(t, h.ListMine(c2))
	require.Equal(t, http.StatusOK, rec2.Code)
	list := decodeBody(t, rec2)["bookings"].([]interface{})
	require.Len(t, list, 1)
}

func TestCreateReservationValidation(t *testing.T) {
	h := NewReservationHandler(newFakeReservationStore())

	cases := []struct {
		name string
		body string
	}{
		{"missing branch", `{"date":"2024-01-01","tables":["T1"],"guests":2}`},
		{"bad date", `{"branch":"B1","date":"01.01.2024","tables":["T1"],"guests":2}`},
		{"no tables", `{"branch":"B1","date":"2024-01-01","tables":[],"guests":2}`},
		{"zero guests", `{"branch":"B1","date":"2024-01-01","tables":["T1"],"guests":0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(t, http.MethodPost, "/reservation", tc.body)
			c.Set("email", "ana@example.com")
			require.NoError(t, h.Create(c))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateReservationTableConflict(t *testing.T) {
	store := newFakeReservationStore()
	h := NewReservationHandler(store)

	c, rec := newContext(t, http.MethodPost, "/reservation",
		`{"branch":"B1","date":"2024-01-01","tables":["T1"],"guests":2}`)
	c.Set("email", "ana@example.com")
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// A second booking overlapping on T1 is rejected.
	c2, rec2 := newContext(t, http.MethodPost, "/reservation",
		`{"branch":"B1","date":"2024-01-01","tables":["T1","T3"],"guests":2}`)
	c2.Set("email", "ben@example.com")
	require.NoError(t, h.Create(c2))
	require.Equal(t, http.StatusConflict, rec2.Code)

	// Same tables on another date are fine.
	c3, rec3 := newContext(t, http.MethodPost, "/reservation",
		`{"branch":"B1","date":"2024-01-02","tables":["T1"],"guests":2}`)
	c3.Set("email", "ben@example.com")
	require.NoError(t, h.Create(c3))
	require.Equal(t, http.StatusCreated, rec3.Code)
}

func TestConfirmUnknownReservation(t *testing.T) {
	h := NewReservationHandler(newFakeReservationStore())

	c, rec := newContext(t, http.MethodPost, "/reservation/confirm", `{"reservation_id":42}`)
	require.NoError(t, h.Confirm(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	c2, rec2 := newContext(t, http.MethodPost, "/reservation/cancel", `{"reservation_id":42}`)
	require.NoError(t, h.Cancel(c2))
	require.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestCancelIsIdempotent(t *testing.T) {
	store := newFakeReservationStore()
	h := NewReservationHandler(store)

	c, _ := newContext(t, http.MethodPost, "/reservation",
		`{"branch":"B1","date":"2024-01-01","tables":["T1"],"guests":2}`)
	c.Set("email", "ana@example.com")
	require.NoError(t, h.Create(c))

	for i := 0; i < 2; i++ {
		cc, rec := newContext(t, http.MethodPost, "/reservation/cancel", `{"reservation_id":1}`)
		require.NoError(t, h.Cancel(cc))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, model.StatusCancelled, decodeBody(t, rec)["status"])
	}

	got, err := store.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, got.Status)
}

func TestConfirmPublishesEvent(t *testing.T) {
	store := newFakeReservationStore()
	h := NewReservationHandler(store)

	var got []queue.ReservationConfirmedEvent
	h.Publish = func(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
		got = append(got, ev)
		return nil
	}

	c, _ := newContext(t, http.MethodPost, "/reservation",
		`{"branch":"B2","date":"2024-03-05","tables":["T7"],"guests":3}`)
	c.Set("email", "ana@example.com")
	require.NoError(t, h.Create(c))

	cc, rec := newContext(t, http.MethodPost, "/reservation/confirm", `{"reservation_id":1}`)
	require.NoError(t, h.Confirm(cc))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, got, 1)
	require.EqualValues(t, 1, got[0].ReservationID)
	require.Equal(t, "ana@example.com", got[0].UserEmail)
	require.Equal(t, "B2", got[0].Branch)
	require.Equal(t, []string{"T7"}, got[0].Tables)
}

func TestOccupiedTables(t *testing.T) {
	store := newFakeReservationStore()
	h := NewReservationHandler(store)

	book := func(email, tables string) {
		c, rec := newContext(t, http.MethodPost, "/reservation",
			`{"branch":"B1","date":"2024-01-01","tables":`+tables+`,"guests":2}`)
		c.Set("email", email)
		require.NoError(t, h.Create(c))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	book("ana@example.com", `["T1"]`)
	book("ben@example.com", `["T2","T3"]`)

	// Confirm the first, cancel the second: only T1 stays occupied.
	cc, _ := newContext(t, http.MethodPost, "/reservation/confirm", `{"reservation_id":1}`)
	require.NoError(t, h.Confirm(cc))
	cx, _ := newContext(t, http.MethodPost, "/reservation/cancel", `{"reservation_id":2}`)
	require.NoError(t, h.Cancel(cx))

	c, rec := newContext(t, http.MethodGet, "/occupied?branch=B1&date=2024-01-01", "")
	require.NoError(t, h.Occupied(c))
	require.Equal(t, http.StatusOK, rec.Code)
	occ := decodeBody(t, rec)["occupied"].([]interface{})
	require.Equal(t, []interface{}{"T1"}, occ)
}

func TestOccupiedRequiresParams(t *testing.T) {
	h := NewReservationHandler(newFakeReservationStore())

	c, rec := newContext(t, http.MethodGet, "/occupied?branch=B1", "")
	require.NoError(t, h.Occupied(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	c2, rec2 := newContext(t, http.MethodGet, "/occupied?branch=B1&date=not-a-date", "")
	require.NoError(t, h.Occupied(c2))
	require.Equal(t, http.StatusBadRequest, rec2.Code)
}
