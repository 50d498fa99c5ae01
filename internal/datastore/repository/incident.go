package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
)

// ErrIncidentNotFound is returned by Get when no incident has the given id.
var ErrIncidentNotFound = errors.New("incident not found")

// IncidentRepository handles incident rows and their append-only event
// trail.
type IncidentRepository interface {
	// Incidents
	Create(ctx context.Context, inc *entities.Incident) error
	Get(ctx context.Context, id string) (*entities.Incident, error)
	// Resolve stamps ResolvedAt on an unresolved incident. Resolving an
	// already-resolved incident is a no-op so the timestamp is set at most
	// once.
	Resolve(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter IncidentFilter) ([]entities.Incident, error)

	// Events
	AppendEvent(ctx context.Context, ev *entities.IncidentEvent) error
	ListEvents(ctx context.Context, incidentID string) ([]entities.IncidentEvent, error)
}

// IncidentFilter controls incident listing queries.
type IncidentFilter struct {
	Restaurant string
	OpenOnly   bool
	Limit      int
}
