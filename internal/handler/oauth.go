package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauthapi "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/utils"
)

// GoogleAccountStore is the account persistence the OAuth callback needs.
type GoogleAccountStore interface {
	UpsertGoogle(ctx context.Context, name, email, googleID string) (model.Account, error)
}

// OAuthHandler implements sign-in with Google.  The flow is the standard
// authorization-code dance: redirect to Google with a random state,
// exchange the returned code for a token, fetch the userinfo profile and
// upsert a verified account for it.
type OAuthHandler struct {
	Cfg      config.Config
	Accounts GoogleAccountStore
	Auth     *AuthHandler // reused for token issuance
	oauth    *oauth2.Config
}

func NewOAuthHandler(cfg config.Config, accounts GoogleAccountStore, auth *AuthHandler) *OAuthHandler {
	return &OAuthHandler{
		Cfg:      cfg,
		Accounts: accounts,
		Auth:     auth,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

const stateCookie = "oauth_state"

// Login starts the Google sign-in flow.  The random state parameter is
// mirrored into a short-lived cookie so the callback can detect forged
// requests.
func (h *OAuthHandler) Login(c echo.Context) error {
	if h.Cfg.GoogleClientID == "" {
		return c.JSON(http.StatusNotImplemented, echo.Map{"error": "google sign-in is not configured"})
	}
	state, err := utils.NewSessionID()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(state))
}

// Callback finishes the flow: it validates the state, exchanges the code,
// loads the Google profile and signs the user in.  When a frontend origin
// is configured the tokens are handed over via redirect; otherwise they
// are returned as JSON.
func (h *OAuthHandler) Callback(c echo.Context) error {
	if h.Cfg.GoogleClientID == "" {
		return c.JSON(http.StatusNotImplemented, echo.Map{"error": "google sign-in is not configured"})
	}

	ck, err := c.Cookie(stateCookie)
	if err != nil || ck.Value == "" || ck.Value != c.QueryParam("state") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid oauth state"})
	}
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing authorization code"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "code exchange failed"})
	}

	svc, err := oauthapi.NewService(ctx, option.WithTokenSource(h.oauth.TokenSource(ctx, tok)))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reach google"})
	}
	info, err := svc.Userinfo.Get().Do()
	if err != nil || info.Email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not load google profile"})
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	acc, err := h.Accounts.UpsertGoogle(ctx, name, info.Email, info.Id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create account"})
	}

	if h.Cfg.FrontendOrigin == "" {
		return h.Auth.issueTokens(c, ctx, acc)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, acc.ID, acc.Email, acc.Name, acc.Verified, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	if err := h.Auth.Sessions.Store(ctx, acc.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store session"})
	}

	q := url.Values{}
	q.Set("access_token", access.Token)
	q.Set("refresh_token", refresh.Raw)
	return c.Redirect(http.StatusFound, h.Cfg.FrontendOrigin+"/auth/callback#"+q.Encode())
}
