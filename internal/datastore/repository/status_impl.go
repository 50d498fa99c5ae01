package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
)

// statusRepository implements StatusRepository.
type statusRepository struct {
	db *gorm.DB
}

// NewStatusRepository creates a new StatusRepository.
func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &statusRepository{db: db}
}

// List returns all projection rows ordered by restaurant ascending.
func (r *statusRepository) List(ctx context.Context) ([]entities.RestaurantStatus, error) {
	var statuses []entities.RestaurantStatus
	if err := r.db.WithContext(ctx).Order("restaurant ASC").Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to list restaurant statuses: %w", err)
	}
	return statuses, nil
}

// SetOpen unconditionally points the projection at the given incident.
func (r *statusRepository) SetOpen(ctx context.Context, restaurant, incidentID, severity string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.RestaurantStatus{}).
		Where("restaurant = ?", restaurant).
		Updates(map[string]any{
			"open_incident_id": incidentID,
			"open_severity":    severity,
			"updated_at":       at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set open incident for %s: %w", restaurant, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to set open incident: no status row for restaurant %s", restaurant)
	}
	return nil
}

// ClearIfOpen clears the projection in a single conditional UPDATE. The
// open_incident_id guard in the WHERE clause is the race protection: a
// resolution for an old incident finds zero rows once a newer incident has
// taken the projection, and leaves it untouched.
func (r *statusRepository) ClearIfOpen(ctx context.Context, restaurant, incidentID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.RestaurantStatus{}).
		Where("restaurant = ? AND open_incident_id = ?", restaurant, incidentID).
		Updates(map[string]any{
			"open_incident_id": nil,
			"open_severity":    nil,
			"updated_at":       at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to clear status for %s: %w", restaurant, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Seed inserts missing projection rows for the fixed restaurant set.
// Existing rows are left untouched.
func (r *statusRepository) Seed(ctx context.Context, restaurants []string) (int, error) {
	var created int
	now := time.Now()
	for _, restaurant := range restaurants {
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entities.RestaurantStatus{Restaurant: restaurant, UpdatedAt: now})
		if result.Error != nil {
			return created, fmt.Errorf("failed to seed status row for %s: %w", restaurant, result.Error)
		}
		created += int(result.RowsAffected)
	}
	return created, nil
}
