package entities

import "time"

// Incident is one detected fault occurrence on a restaurant node. Created
// by ingestion with a null ResolvedAt; the only mutation ever applied is the
// resolution service setting ResolvedAt exactly once. Rows are never deleted.
type Incident struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Restaurant string     `gorm:"size:32;not null;index" json:"restaurant"`
	Severity   string     `gorm:"size:16;not null" json:"severity"`
	CodeType   string     `gorm:"size:64;not null" json:"code_type"`
	CodeValue  string     `gorm:"size:64;not null" json:"code_value"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// TableName returns the table name for GORM.
func (Incident) TableName() string {
	return "incidents"
}
