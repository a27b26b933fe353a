package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
)

// RegisterReservations registers the reservation endpoints.
//
// Occupancy and draft staging are public: guests browse availability and
// stage a booking before they have an account.  Listing requires a valid
// JWT, and the write operations additionally require a verified email.
func RegisterReservations(e *echo.Echo, res *handler.ReservationHandler, pending *handler.PendingHandler, jwtSecret string, cacheMW echo.MiddlewareFunc) {
	e.GET("/occupied", res.Occupied, cacheMW)
	e.POST("/pending", pending.Stage, middleware.GuestSession())

	auth := e.Group("", middleware.JWTAuth(jwtSecret))
	auth.GET("/user/bookings", res.ListMine)
	auth.GET("/bookings", res.ListAll)
	auth.POST("/pending/claim", pending.Claim, middleware.GuestSession())

	verified := e.Group("", middleware.JWTAuth(jwtSecret), middleware.RequireVerified())
	verified.POST("/reservation", res.Create)
	verified.POST("/reservation/confirm", res.Confirm)
	verified.POST("/reservation/cancel", res.Cancel)
}
