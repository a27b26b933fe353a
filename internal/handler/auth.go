package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/utils"
)

// AccountStore is the slice of account persistence the auth handlers use.
// *repository.AccountRepo satisfies it; tests substitute an in-memory fake.
type AccountStore interface {
	Create(ctx context.Context, name, email, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
	MarkVerified(ctx context.Context, email string) error
}

// CodeStore persists the current verification code per email.
type CodeStore interface {
	Replace(ctx context.Context, email, code string, expiresAt time.Time) error
	Verify(ctx context.Context, email, code string) error
}

// SessionStore persists refresh-token sessions.
type SessionStore interface {
	Store(ctx context.Context, accountID uint64, tokenHash string, expiresAt time.Time) error
	Validate(ctx context.Context, tokenHash string) (uint64, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAll(ctx context.Context, accountID uint64) error
}

// CodeSender delivers verification codes.  *notify.Mailer satisfies it.
type CodeSender interface {
	SendVerificationCode(to, code string) error
}

// AuthHandler bundles the dependencies of the registration and login
// endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts AccountStore
	Codes    CodeStore
	Sessions SessionStore
	Mailer   CodeSender
}

func NewAuthHandler(cfg config.Config, accounts AccountStore, codes CodeStore, sessions SessionStore, mailer CodeSender) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts, Codes: codes, Sessions: sessions, Mailer: mailer}
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an unverified account and issues a verification code.
// A mail delivery failure is reported as a warning in the 201 response
// rather than failing the registration, so users behind a broken SMTP
// setup can still request a new code later.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and a password of at least 6 characters are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Accounts.Create(ctx, req.Name, req.Email, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create account"})
	}

	if err := h.issueCode(ctx, req.Email); err != nil {
		return c.JSON(http.StatusCreated, echo.Map{
			"message": "account created",
			"warning": "verification email could not be sent, request a new code",
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "account created, verification code sent"})
}

type emailReq struct {
	Email string `json:"email"`
}

// SendCode issues a fresh verification code for an email, replacing any
// code issued earlier.  Only the latest code can verify.
func (h *AuthHandler) SendCode(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.issueCode(ctx, req.Email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not send verification code"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent"})
}

// issueCode generates a code, stores it as the email's current slot and
// mails it.  The slot is written before sending so a retry after a mail
// failure reuses the normal path.
func (h *AuthHandler) issueCode(ctx context.Context, email string) error {
	code, err := utils.NewVerificationCode()
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(h.Cfg.CodeTTL)
	if err := h.Codes.Replace(ctx, email, code, expires); err != nil {
		return err
	}
	return h.Mailer.SendVerificationCode(email, code)
}

type verifyReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyEmail checks a submitted code against the email's current slot
// and, on success, marks the account verified.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and code are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Codes.Verify(ctx, req.Email, req.Code)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no verification code for this email"})
	case errors.Is(err, repository.ErrCodeExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification code expired"})
	case errors.Is(err, repository.ErrCodeMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid verification code"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify code"})
	}

	if err := h.Accounts.MarkVerified(ctx, req.Email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update account"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with email and password and returns an access and
// refresh token pair.  Unverified accounts are refused until they finish
// email verification.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load account"})
	}
	if acc.PasswordHash == nil || !utils.VerifyPassword(*acc.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !acc.Verified {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
	}

	return h.issueTokens(c, ctx, acc)
}

// issueTokens mints the access/refresh pair for an account and persists
// the refresh session.  Shared by password login, the OAuth callback and
// the refresh endpoint.
func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, acc model.Account) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, acc.ID, acc.Email, acc.Name, acc.Verified, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	if err := h.Sessions.Store(ctx, acc.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store session"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access.Token,
		"refresh_token": refresh.Raw,
		"expires_at":    access.Exp.Unix(),
		"user": echo.Map{
			"id":       acc.ID,
			"name":     acc.Name,
			"email":    acc.Email,
			"verified": acc.Verified,
		},
	})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashRefreshRaw(req.RefreshToken)
	accountID, err := h.Sessions.Validate(ctx, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not validate session"})
	}
	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load account"})
	}
	if err := h.Sessions.Revoke(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not rotate session"})
	}
	return h.issueTokens(c, ctx, acc)
}

// AuthUser reports whether the request carries a valid access token, and
// if so, who the caller is.  Unlike the JWT middleware it never returns
// 401, so frontends can probe login state with a single call.
func (h *AuthHandler) AuthUser(c echo.Context) error {
	claims, ok := h.bearerClaims(c)
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"authenticated": false})
	}
	verified, _ := claims["verified"].(bool)
	return c.JSON(http.StatusOK, echo.Map{
		"authenticated": true,
		"user": echo.Map{
			"name":     claims["name"],
			"email":    claims["email"],
			"verified": verified,
		},
	})
}

// Logout revokes the presented refresh token.  When no token is given
// but the request carries a valid access token, every session of that
// account is revoked instead.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req) // body is optional

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.RefreshToken != "" {
		if err := h.Sessions.Revoke(ctx, utils.HashRefreshRaw(req.RefreshToken)); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not revoke session"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
	}

	if claims, ok := h.bearerClaims(c); ok {
		if sub, ok := claims["sub"].(float64); ok {
			if err := h.Sessions.RevokeAll(ctx, uint64(sub)); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not revoke sessions"})
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// bearerClaims parses an optional Authorization header.  It returns the
// token claims and true only for a valid HS256 token signed with our
// secret.
func (h *AuthHandler) bearerClaims(c echo.Context) (jwt.MapClaims, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, false
	}
	tok, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(h.Cfg.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	return claims, ok
}
