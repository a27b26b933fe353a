// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
)

// RegisterRoutes registers the unauthenticated service endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterMenu registers the public menu catalog.  The catalog is static
// so both routes sit behind the response cache when one is configured.
// /api/menu is an alias kept for older frontend builds.
func RegisterMenu(e *echo.Echo, h *handler.MenuHandler, cacheMW echo.MiddlewareFunc) {
	e.GET("/menu", h.GetMenu, cacheMW)
	e.GET("/api/menu", h.GetMenu, cacheMW)
}
