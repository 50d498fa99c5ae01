package repository

import (
	"context"
	"time"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
)

// StatusRepository maintains the per-restaurant open-incident projection.
type StatusRepository interface {
	// List returns all projection rows ordered by restaurant ascending.
	List(ctx context.Context) ([]entities.RestaurantStatus, error)
	// SetOpen unconditionally points the projection at the given incident.
	// Used on the creation path, where the newest incident always wins.
	SetOpen(ctx context.Context, restaurant, incidentID, severity string, at time.Time) error
	// ClearIfOpen clears the projection only if it still points at the given
	// incident. Returns false when the guard did not match, which is the
	// correct outcome for a stale resolution and not an error. Implemented
	// as a single conditional UPDATE, never read-then-write.
	ClearIfOpen(ctx context.Context, restaurant, incidentID string, at time.Time) (bool, error)
	// Seed inserts missing rows for the fixed restaurant set and returns how
	// many it created.
	Seed(ctx context.Context, restaurants []string) (int, error)
}
