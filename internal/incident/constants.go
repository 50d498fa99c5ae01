// Package incident implements the incident lifecycle: ingestion of observed
// errors, push fan-out, and the acknowledge/resolve flow with its
// projection race guard.
package incident

// Severity levels, ordered by urgency.
const (
	SeverityInfo     = "INFO"
	SeverityWarn     = "WARN"
	SeverityCritical = "CRITICAL"
)

// Operator event types.
const (
	EventTypeAck = "ACK"
	EventTypeFix = "FIX"
)

// NotificationTitle is the fixed title of every push notification.
const NotificationTitle = "SYS-MGMT: ERROR"

// restaurants is the fixed fleet of restaurant nodes.
var restaurants = []string{"R1", "R2", "R3", "R4", "R5"}

// Restaurants returns the fixed restaurant node identifiers.
func Restaurants() []string {
	out := make([]string, len(restaurants))
	copy(out, restaurants)
	return out
}

// ValidSeverity reports whether s is one of the three severity levels.
func ValidSeverity(s string) bool {
	return s == SeverityInfo || s == SeverityWarn || s == SeverityCritical
}

// ValidEventType reports whether t is exactly ACK or FIX.
func ValidEventType(t string) bool {
	return t == EventTypeAck || t == EventTypeFix
}
