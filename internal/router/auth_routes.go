package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
)

// RegisterAuth registers registration, verification and login endpoints.
// The rate limiter wraps the endpoints an anonymous client can hammer:
// registration, code issuance and both login flavors.
func RegisterAuth(e *echo.Echo, h *handler.AuthHandler, o *handler.OAuthHandler, rlMW echo.MiddlewareFunc) {
	e.POST("/register", h.Register, rlMW)
	e.POST("/register/email", h.SendCode, rlMW)
	e.POST("/verify-email", h.VerifyEmail, rlMW)
	e.POST("/login/email", h.Login, rlMW)
	e.POST("/refresh", h.Refresh, rlMW)

	e.GET("/login/google", o.Login, rlMW)
	e.GET("/authorize", o.Callback)

	e.GET("/auth/user", h.AuthUser)
	e.POST("/logout", h.Logout)
	e.GET("/logout", h.Logout) // alias for logout links
}
