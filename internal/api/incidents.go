package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fleetops/sysmgmt/internal/datastore/repository"
	"github.com/fleetops/sysmgmt/internal/incident"
)

// CreateIncident ingests one observed error occurrence and fans out push
// notifications. Requires the admin token header.
func (c *Controller) CreateIncident(ctx echo.Context) error {
	var req incident.IngestRequest
	if err := ctx.Bind(&req); err != nil {
		return c.errorJSON(ctx, http.StatusBadRequest, "validation-malformed-body")
	}

	result, err := c.ingest.Ingest(ctx.Request().Context(), &req)
	if err != nil {
		return c.serviceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"ok":               true,
		"incident_id":      result.IncidentID,
		"subscriber_count": result.Subscribers,
		"sent":             result.Sent,
		"failed":           result.Failed,
	})
}

// RecordIncidentEvent records an operator ACK or FIX.
func (c *Controller) RecordIncidentEvent(ctx echo.Context) error {
	var req incident.ResolveRequest
	if err := ctx.Bind(&req); err != nil {
		return c.errorJSON(ctx, http.StatusBadRequest, "validation-malformed-body")
	}

	if err := c.resolve.Resolve(ctx.Request().Context(), &req); err != nil {
		return c.serviceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// ListIncidents returns recent incidents, optionally filtered by restaurant
// or to open incidents only.
func (c *Controller) ListIncidents(ctx echo.Context) error {
	filter := repository.IncidentFilter{
		Restaurant: ctx.QueryParam("restaurant"),
		OpenOnly:   ctx.QueryParam("open") == "true",
	}

	incidents, err := c.incidents.List(ctx.Request().Context(), filter)
	if err != nil {
		return c.serviceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"incidents": incidents,
		"count":     len(incidents),
	})
}
