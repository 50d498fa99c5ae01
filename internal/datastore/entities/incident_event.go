package entities

import "time"

// IncidentEvent is one operator action (ACK or FIX) recorded against an
// incident. Append-only audit trail; the incident reference is not owning
// and carries no foreign-key constraint because events must survive even
// when they reference an id the store has never seen.
type IncidentEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	IncidentID string    `gorm:"size:36;not null;index" json:"incident_id"`
	EventType  string    `gorm:"size:8;not null" json:"event_type"`
	ActorID    string    `gorm:"size:64;not null" json:"actor_id"`
	ActorLabel string    `gorm:"size:128;default:''" json:"actor_label"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (IncidentEvent) TableName() string {
	return "incident_events"
}
