// Package push delivers incident notifications to registered device
// endpoints and prunes endpoints the push service reports permanently dead.
package push

import "context"

// Result classifies the outcome of a single delivery attempt.
type Result int

const (
	// ResultDelivered means the push service accepted the notification.
	ResultDelivered Result = iota
	// ResultTransientFailure is any failure that carries no proof the
	// endpoint is dead. The endpoint is kept; no retry is attempted within
	// the fan-out pass.
	ResultTransientFailure
	// ResultPermanentFailure means the push service reported the endpoint
	// gone or invalid (410 Gone, 404 Not Found). The endpoint should be
	// removed from the registry.
	ResultPermanentFailure
)

// String returns the metrics label for the result.
func (r Result) String() string {
	switch r {
	case ResultDelivered:
		return "delivered"
	case ResultPermanentFailure:
		return "permanent"
	default:
		return "transient"
	}
}

// Transport sends one payload to one opaque subscription descriptor.
// Implementations own the per-send timeout.
type Transport interface {
	Send(ctx context.Context, subscription string, message []byte) (Result, error)
}

// Message is the JSON document delivered to devices; the service worker on
// the receiving side reads exactly these two fields.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
