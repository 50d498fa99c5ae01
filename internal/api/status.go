package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetStatus returns every restaurant's projection row, sorted by restaurant
// ascending.
func (c *Controller) GetStatus(ctx echo.Context) error {
	statuses, err := c.statuses.List(ctx.Request().Context())
	if err != nil {
		return c.serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, statuses)
}
