package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/utils"
)

type fakeAccountStore struct {
	nextID   uint64
	byEmail  map[string]*model.Account
	accounts map[uint64]*model.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{byEmail: make(map[string]*model.Account), accounts: make(map[uint64]*model.Account)}
}

func (s *fakeAccountStore) Create(ctx context.Context, name, email, password string, cost int) (uint64, error) {
	if _, ok := s.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	s.nextID++
	a := &model.Account{ID: s.nextID, Name: name, Email: email, PasswordHash: &hash, CreatedAt: time.Now().UTC()}
	s.byEmail[email] = a
	s.accounts[a.ID] = a
	return a.ID, nil
}

func (s *fakeAccountStore) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	a, ok := s.byEmail[email]
	if !ok {
		return model.Account{}, sql.ErrNoRows
	}
	return *a, nil
}

func (s *fakeAccountStore) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, sql.ErrNoRows
	}
	return *a, nil
}

func (s *fakeAccountStore) MarkVerified(ctx context.Context, email string) error {
	if a, ok := s.byEmail[email]; ok {
		a.Verified = true
	}
	return nil
}

type codeSlot struct {
	code      string
	expiresAt time.Time
}

type fakeCodeStore struct {
	slots map[string]codeSlot
}

func newFakeCodeStore() *fakeCodeStore { return &fakeCodeStore{slots: make(map[string]codeSlot)} }

func (s *fakeCodeStore) Replace(ctx context.Context, email, code string, expiresAt time.Time) error {
	s.slots[email] = codeSlot{code: code, expiresAt: expiresAt}
	return nil
}

func (s *fakeCodeStore) Verify(ctx context.Context, email, code string) error {
	slot, ok := s.slots[email]
	if !ok {
		return sql.ErrNoRows
	}
	if time.Now().UTC().After(slot.expiresAt) {
		return repository.ErrCodeExpired
	}
	if slot.code != code {
		return repository.ErrCodeMismatch
	}
	return nil
}

type fakeSessionStore struct {
	sessions map[string]uint64
}

func newFakeSessionStore() *fakeSessionStore { return &fakeSessionStore{sessions: make(map[string]uint64)} }

func (s *fakeSessionStore) Store(ctx context.Context, accountID uint64, tokenHash string, expiresAt time.Time) error {
	s.sessions[tokenHash] = accountID
	return nil
}

func (s *fakeSessionStore) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	id, ok := s.sessions[tokenHash]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return id, nil
}

func (s *fakeSessionStore) Revoke(ctx context.Context, tokenHash string) error {
	delete(s.sessions, tokenHash)
	return nil
}

func (s *fakeSessionStore) RevokeAll(ctx context.Context, accountID uint64) error {
	for h, id := range s.sessions {
		if id == accountID {
			delete(s.sessions, h)
		}
	}
	return nil
}

type fakeMailer struct {
	sent []string // "email:code"
	fail error
}

func (m *fakeMailer) SendVerificationCode(to, code string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, to+":"+code)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
		CodeTTL:        time.Hour,
	}
}

func newAuthHandler() (*AuthHandler, *fakeAccountStore, *fakeCodeStore, *fakeSessionStore, *fakeMailer) {
	accounts := newFakeAccountStore()
	codes := newFakeCodeStore()
	sessions := newFakeSessionStore()
	mailer := &fakeMailer{}
	return NewAuthHandler(testConfig(), accounts, codes, sessions, mailer), accounts, codes, sessions, mailer
}

func TestRegisterCreatesAccountAndSendsCode(t *testing.T) {
	h, accounts, codes, _, mailer := newAuthHandler()

	c, rec := newContext(t, http.MethodPost, "/register",
		`{"name":"Ana","email":"Ana@Example.com","password":"hunter22"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Email is normalized to lower case before storage.
	acc, err := accounts.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.False(t, acc.Verified)

	require.Len(t, mailer.sent, 1)
	slot, ok := codes.slots["ana@example.com"]
	require.True(t, ok)
	require.Len(t, slot.code, 6)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _, _, _, _ := newAuthHandler()

	c, _ := newContext(t, http.MethodPost, "/register",
		`{"name":"Ana","email":"ana@example.com","password":"hunter22"}`)
	require.NoError(t, h.Register(c))

	c2, rec := newContext(t, http.MethodPost, "/register",
		`{"name":"Ana Again","email":"ana@example.com","password":"hunter22"}`)
	require.NoError(t, h.Register(c2))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterSucceedsWhenMailFails(t *testing.T) {
	h, accounts, _, _, mailer := newAuthHandler()
	mailer.fail = errors.New("smtp down")

	c, rec := newContext(t, http.MethodPost, "/register",
		`{"name":"Ana","email":"ana@example.com","password":"hunter22"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, decodeBody(t, rec)["warning"])

	_, err := accounts.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
}

func TestVerifyEmail(t *testing.T) {
	h, accounts, codes, _, _ := newAuthHandler()
	_, err := accounts.Create(context.Background(), "Ana", "ana@example.com", "hunter22", 4)
	require.NoError(t, err)

	// No code issued yet.
	c, rec := newContext(t, http.MethodPost, "/verify-email", `{"email":"ana@example.com","code":"123456"}`)
	require.NoError(t, h.VerifyEmail(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Wrong code.
	codes.slots["ana@example.com"] = codeSlot{code: "654321", expiresAt: time.Now().UTC().Add(time.Hour)}
	c2, rec2 := newContext(t, http.MethodPost, "/verify-email", `{"email":"ana@example.com","code":"123456"}`)
	require.NoError(t, h.VerifyEmail(c2))
	require.Equal(t, http.StatusBadRequest, rec2.Code)

	// Expired code.
	codes.slots["ana@example.com"] = codeSlot{code: "654321", expiresAt: time.Now().UTC().Add(-time.Minute)}
	c3, rec3 := newContext(t, http.MethodPost, "/verify-email", `{"email":"ana@example.com","code":"654321"}`)
	require.NoError(t, h.VerifyEmail(c3))
	require.Equal(t, http.StatusBadRequest, rec3.Code)

	// Fresh code verifies and marks the account.
	codes.slots["ana@example.com"] = codeSlot{code: "654321", expiresAt: time.Now().UTC().Add(time.Hour)}
	c4, rec4 := newContext(t, http.MethodPost, "/verify-email", `{"email":"ana@example.com","code":"654321"}`)
	require.NoError(t, h.VerifyEmail(c4))
	require.Equal(t, http.StatusOK, rec4.Code)

	acc, err := accounts.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.True(t, acc.Verified)
}

func TestReissueSupersedesOldCode(t *testing.T) {
	h, _, codes, _, _ := newAuthHandler()

	c, _ := newContext(t, http.MethodPost, "/register/email", `{"email":"ana@example.com"}`)
	require.NoError(t, h.SendCode(c))
	first := codes.slots["ana@example.com"].code

	c2, _ := newContext(t, http.MethodPost, "/register/email", `{"email":"ana@example.com"}`)
	require.NoError(t, h.SendCode(c2))
	second := codes.slots["ana@example.com"].code

	if first == second {
		t.Skip("codes collided, cannot distinguish slots")
	}

	// Only the latest code verifies.
	c3, rec3 := newContext(t, http.MethodPost, "/verify-email", `{"email":"ana@example.com","code":"`+first+`"}`)
	require.NoError(t, h.VerifyEmail(c3))
	require.Equal(t, http.StatusBadRequest, rec3.Code)
}

func TestLoginGates(t *testing.T) {
	h, accounts, _, sessions, _ := newAuthHandler()

	// Unknown account.
	c, rec := newContext(t, http.MethodPost, "/login/email", `{"email":"ana@example.com","password":"hunter22"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	_, err := accounts.Create(context.Background(), "Ana", "ana@example.com", "hunter22", 4)
	require.NoError(t, err)

	// Wrong password.
	c2, rec2 := newContext(t, http.MethodPost, "/login/email", `{"email":"ana@example.com","password":"wrong"}`)
	require.NoError(t, h.Login(c2))
	require.Equal(t, http.StatusUnauthorized, rec2.Code)

	// Unverified account.
	c3, rec3 := newContext(t, http.MethodPost, "/login/email", `{"email":"ana@example.com","password":"hunter22"}`)
	require.NoError(t, h.Login(c3))
	require.Equal(t, http.StatusForbidden, rec3.Code)

	// Verified account gets a token pair and a stored session.
	require.NoError(t, accounts.MarkVerified(context.Background(), "ana@example.com"))
	c4, rec4 := newContext(t, http.MethodPost, "/login/email", `{"email":"ana@example.com","password":"hunter22"}`)
	require.NoError(t, h.Login(c4))
	require.Equal(t, http.StatusOK, rec4.Code)
	body := decodeBody(t, rec4)
	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["refresh_token"])
	require.Len(t, sessions.sessions, 1)
}

func TestRefreshRotatesSession(t *testing.T) {
	h, accounts, _, sessions, _ := newAuthHandler()
	id, err := accounts.Create(context.Background(), "Ana", "ana@example.com", "hunter22", 4)
	require.NoError(t, err)
	require.NoError(t, accounts.MarkVerified(context.Background(), "ana@example.com"))

	refresh, err := utils.NewRefreshToken(7)
	require.NoError(t, err)
	require.NoError(t, sessions.Store(context.Background(), id, utils.HashRefreshRaw(refresh.Raw), refresh.Exp))

	c, rec := newContext(t, http.MethodPost, "/refresh", `{"refresh_token":"`+refresh.Raw+`"}`)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// The presented token is revoked and exactly one new session exists.
	_, err = sessions.Validate(context.Background(), utils.HashRefreshRaw(refresh.Raw))
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.Len(t, sessions.sessions, 1)

	// The old token cannot be used again.
	c2, rec2 := newContext(t, http.MethodPost, "/refresh", `{"refresh_token":"`+refresh.Raw+`"}`)
	require.NoError(t, h.Refresh(c2))
	require.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	h, accounts, _, sessions, _ := newAuthHandler()
	id, err := accounts.Create(context.Background(), "Ana", "ana@example.com", "hunter22", 4)
	require.NoError(t, err)

	refresh, err := utils.NewRefreshToken(7)
	require.NoError(t, err)
	require.NoError(t, sessions.Store(context.Background(), id, utils.HashRefreshRaw(refresh.Raw), refresh.Exp))

	c, rec := newContext(t, http.MethodPost, "/logout", `{"refresh_token":"`+refresh.Raw+`"}`)
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, sessions.sessions)
}

func TestAuthUserProbe(t *testing.T) {
	h, _, _, _, _ := newAuthHandler()

	// No token: authenticated=false, still 200.
	c, rec := newContext(t, http.MethodGet, "/auth/user", "")
	require.NoError(t, h.AuthUser(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, decodeBody(t, rec)["authenticated"])

	// Valid token: identity is echoed back.
	access, err := utils.NewAccessToken("test-secret", 1, "ana@example.com", "Ana", true, 15)
	require.NoError(t, err)
	c2, rec2 := newContext(t, http.MethodGet, "/auth/user", "")
	c2.Request().Header.Set("Authorization", "Bearer "+access.Token)
	require.NoError(t, h.AuthUser(c2))
	body := decodeBody(t, rec2)
	require.Equal(t, true, body["authenticated"])
	user := body["user"].(map[string]interface{})
	require.Equal(t, "ana@example.com", user["email"])

	// Garbage token behaves like no token.
	c3, rec3 := newContext(t, http.MethodGet, "/auth/user", "")
	c3.Request().Header.Set("Authorization", "Bearer not-a-jwt")
	require.NoError(t, h.AuthUser(c3))
	require.Equal(t, false, decodeBody(t, rec3)["authenticated"])
}
