// Package handler contains the HTTP handlers of the API.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness.  It carries no dependencies so load balancers
// can probe it even when the database is down.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
