package entities

import "time"

// RestaurantStatus is the per-restaurant projection of the currently open
// incident. One row per restaurant, seeded at startup and never created or
// deleted by request paths. A non-null OpenIncidentID references an
// incident that was unresolved at the time of the last write; the guarantee
// is maintained by the conditional-clear protocol, not a database
// constraint, because opens and stale resolutions race.
type RestaurantStatus struct {
	Restaurant     string    `gorm:"primaryKey;size:32" json:"restaurant"`
	OpenIncidentID *string   `gorm:"size:36" json:"open_incident_id"`
	OpenSeverity   *string   `gorm:"size:16" json:"open_severity"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (RestaurantStatus) TableName() string {
	return "restaurant_status"
}
