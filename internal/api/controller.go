// Package api exposes the incident pipeline over HTTP: ingestion,
// resolution, the status projection, and the subscription registry.
package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fleetops/sysmgmt/internal/datastore/repository"
	"github.com/fleetops/sysmgmt/internal/errors"
	"github.com/fleetops/sysmgmt/internal/incident"
	"github.com/fleetops/sysmgmt/internal/logger"
)

// AdminTokenHeader carries the shared admin credential for the ingestion
// endpoint.
const AdminTokenHeader = "X-Admin-Token"

// Controller wires HTTP routes to the incident services and repositories.
type Controller struct {
	ingest     *incident.IngestService
	resolve    *incident.ResolveService
	incidents  repository.IncidentRepository
	statuses   repository.StatusRepository
	subs       repository.SubscriptionRepository
	adminToken string
	log        logger.Logger
}

// NewController creates a Controller and registers all routes on e.
func NewController(
	e *echo.Echo,
	ingest *incident.IngestService,
	resolve *incident.ResolveService,
	incidents repository.IncidentRepository,
	statuses repository.StatusRepository,
	subs repository.SubscriptionRepository,
	adminToken string,
	log logger.Logger,
) *Controller {
	c := &Controller{
		ingest:     ingest,
		resolve:    resolve,
		incidents:  incidents,
		statuses:   statuses,
		subs:       subs,
		adminToken: adminToken,
		log:        log,
	}
	c.initRoutes(e)
	return c
}

// NewServer builds an echo instance with the standard middleware stack.
func NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	return e
}

func (c *Controller) initRoutes(e *echo.Echo) {
	e.POST("/incidents", c.CreateIncident, c.adminMiddleware)
	e.GET("/incidents", c.ListIncidents)
	e.POST("/incidents/events", c.RecordIncidentEvent)
	e.GET("/status", c.GetStatus)
	e.POST("/subscriptions", c.CreateSubscription)
	e.DELETE("/subscriptions/:id", c.DeleteSubscription)
	e.GET("/subscriptions/count", c.CountSubscriptions)
	e.GET("/healthz", c.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// adminMiddleware rejects requests whose admin token header does not match
// the configured secret.
func (c *Controller) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := ctx.Request().Header.Get(AdminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(c.adminToken)) != 1 {
			return c.errorJSON(ctx, http.StatusForbidden, "auth-invalid-token")
		}
		return next(ctx)
	}
}

// errorJSON writes the uniform machine-readable error body.
func (c *Controller) errorJSON(ctx echo.Context, status int, code string) error {
	return ctx.JSON(status, map[string]string{"error": code})
}

// serviceError maps a coded service error onto an HTTP response, logging
// server-side failures.
func (c *Controller) serviceError(ctx echo.Context, err error) error {
	code := errors.CodeOf(err)
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return c.errorJSON(ctx, http.StatusBadRequest, code)
	case errors.CategoryAuth:
		return c.errorJSON(ctx, http.StatusForbidden, code)
	default:
		c.log.Error("request failed", logger.String("code", code), logger.Error(err))
		return c.errorJSON(ctx, http.StatusInternalServerError, code)
	}
}

// Healthz reports liveness.
func (c *Controller) Healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]bool{"ok": true})
}
