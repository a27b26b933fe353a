// Package store holds the Redis-backed staging area for pending bookings.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ErrUnavailable is returned when no Redis client is configured, meaning
// drafts cannot be staged.  Handlers should translate this into an HTTP
// 503 response.
var ErrUnavailable = errors.New("draft store unavailable")

// DraftStore keeps unauthenticated reservation drafts keyed by guest
// session id.  Each draft lives under "pending:<sid>" with an explicit TTL
// so abandoned drafts evict themselves; staging a new draft overwrites the
// previous one and resets the TTL.
type DraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDraftStore returns a DraftStore.  A nil client is allowed and makes
// every operation fail with ErrUnavailable.
func NewDraftStore(rdb *redis.Client, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}
	return &DraftStore{rdb: rdb, ttl: ttl}
}

func draftKey(sid string) string { return "pending:" + sid }

// Save stages a draft for the session, replacing any prior draft.
func (s *DraftStore) Save(ctx context.Context, sid string, d model.PendingBooking) error {
	if s.rdb == nil {
		return ErrUnavailable
	}
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, draftKey(sid), b, s.ttl).Err()
}

// Load returns the staged draft for the session, or (nil, nil) when
// nothing is staged or the draft has expired.
func (s *DraftStore) Load(ctx context.Context, sid string) (*model.PendingBooking, error) {
	if s.rdb == nil {
		return nil, ErrUnavailable
	}
	b, err := s.rdb.Get(ctx, draftKey(sid)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d model.PendingBooking
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Delete removes the staged draft for the session.  Deleting a missing
// draft is not an error.
func (s *DraftStore) Delete(ctx context.Context, sid string) error {
	if s.rdb == nil {
		return ErrUnavailable
	}
	return s.rdb.Del(ctx, draftKey(sid)).Err()
}
