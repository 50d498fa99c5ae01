package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// CreateSubscription registers an opaque push endpoint descriptor. The
// descriptor must be a JSON object; its internal shape is not validated —
// it is handed verbatim to the transport at send time.
func (c *Controller) CreateSubscription(ctx echo.Context) error {
	var body struct {
		Sub json.RawMessage `json:"sub"`
	}
	if err := ctx.Bind(&body); err != nil {
		return c.errorJSON(ctx, http.StatusBadRequest, "validation-malformed-body")
	}

	var descriptor map[string]any
	if len(body.Sub) == 0 || json.Unmarshal(body.Sub, &descriptor) != nil || descriptor == nil {
		return c.errorJSON(ctx, http.StatusBadRequest, "validation-missing-sub")
	}

	id, err := c.subs.Create(ctx.Request().Context(), string(body.Sub))
	if err != nil {
		return c.serviceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{"ok": true, "id": id})
}

// DeleteSubscription removes a subscription on explicit device opt-out.
func (c *Controller) DeleteSubscription(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return c.errorJSON(ctx, http.StatusBadRequest, "validation-invalid-id")
	}

	if err := c.subs.Delete(ctx.Request().Context(), uint(id)); err != nil {
		return c.serviceError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CountSubscriptions returns the registry size.
func (c *Controller) CountSubscriptions(ctx echo.Context) error {
	count, err := c.subs.Count(ctx.Request().Context())
	if err != nil {
		return c.serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"ok": true, "count": count})
}
