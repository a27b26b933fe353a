package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireVerified blocks accounts that have not confirmed their email.
// It assumes JWTAuth already ran and stored the "verified" claim in the
// context; a missing or false claim yields 403.
func RequireVerified() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, ok := c.Get("verified").(bool)
			if !ok || !v {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
			}
			return next(c)
		}
	}
}
