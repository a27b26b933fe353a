package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/utils"
)

const sessionCookie = "sid"

// GuestSession assigns a random session id cookie to clients that do not
// have one yet, so unauthenticated visitors can stage a reservation draft
// and pick it up again after logging in.  The id is stored in the context
// under "session_id" for handlers.
func GuestSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sid string
			if ck, err := c.Cookie(sessionCookie); err == nil && ck.Value != "" {
				sid = ck.Value
			} else {
				fresh, err := utils.NewSessionID()
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
				}
				sid = fresh
				c.SetCookie(&http.Cookie{
					Name:     sessionCookie,
					Value:    sid,
					Path:     "/",
					Expires:  time.Now().Add(30 * 24 * time.Hour),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set("session_id", sid)
			return next(c)
		}
	}
}
