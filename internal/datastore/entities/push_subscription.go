package entities

import "time"

// PushSubscription stores one opaque push endpoint descriptor exactly as
// the device registered it. The application never interprets the payload;
// it is handed verbatim to the delivery transport. Rows are removed when
// the transport reports the endpoint permanently gone, or on explicit
// opt-out.
type PushSubscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Subscription string    `gorm:"type:text;not null" json:"subscription"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
