package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
	"github.com/fleetops/sysmgmt/internal/errors"
)

// incidentRepository implements IncidentRepository.
type incidentRepository struct {
	db *gorm.DB
}

// NewIncidentRepository creates a new IncidentRepository.
func NewIncidentRepository(db *gorm.DB) IncidentRepository {
	return &incidentRepository{db: db}
}

// Create inserts a new incident row.
func (r *incidentRepository) Create(ctx context.Context, inc *entities.Incident) error {
	if err := r.db.WithContext(ctx).Create(inc).Error; err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// Get returns a single incident by id. Returns ErrIncidentNotFound if the
// incident does not exist.
func (r *incidentRepository) Get(ctx context.Context, id string) (*entities.Incident, error) {
	var inc entities.Incident
	if err := r.db.WithContext(ctx).First(&inc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to get incident %s: %w", id, err)
	}
	return &inc, nil
}

// Resolve stamps ResolvedAt on an unresolved incident. The resolved_at guard
// makes the write idempotent: a second FIX never moves the timestamp.
func (r *incidentRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.Incident{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Update("resolved_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to resolve incident %s: %w", id, result.Error)
	}
	return nil
}

// List returns incidents matching the filter, newest first.
func (r *incidentRepository) List(ctx context.Context, filter IncidentFilter) ([]entities.Incident, error) {
	var incidents []entities.Incident
	query := r.db.WithContext(ctx)

	if filter.Restaurant != "" {
		query = query.Where("restaurant = ?", filter.Restaurant)
	}
	if filter.OpenOnly {
		query = query.Where("resolved_at IS NULL")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if err := query.Order("created_at DESC").Limit(limit).Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	return incidents, nil
}

// AppendEvent inserts an operator event row.
func (r *incidentRepository) AppendEvent(ctx context.Context, ev *entities.IncidentEvent) error {
	if err := r.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to append incident event: %w", err)
	}
	return nil
}

// ListEvents returns the event trail for an incident in insertion order.
func (r *incidentRepository) ListEvents(ctx context.Context, incidentID string) ([]entities.IncidentEvent, error) {
	var events []entities.IncidentEvent
	if err := r.db.WithContext(ctx).
		Where("incident_id = ?", incidentID).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list incident events: %w", err)
	}
	return events, nil
}
