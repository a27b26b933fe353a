package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// MenuStore exposes the read side of the menu catalog.
type MenuStore interface {
	ListGrouped(ctx context.Context) ([]repository.MenuCategory, error)
}

// MenuHandler serves the static menu catalog.
type MenuHandler struct {
	Store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler { return &MenuHandler{Store: store} }

// GetMenu returns the catalog grouped by category.
func (h *MenuHandler) GetMenu(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	menu, err := h.Store.ListGrouped(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load menu"})
	}
	return c.JSON(http.StatusOK, echo.Map{"menu": menu})
}
