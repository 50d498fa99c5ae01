package incident

import (
	"fmt"
	"regexp"
)

// The wire payload is the pipe-delimited body every delivery channel
// carries:
//
//	E|I=<incident-id>|R=<restaurant>|S=<severity>|C=<code-type>|V=<code-value>
//
// Receivers extract fields by regex, so the format must stay bit-exact.
// A field absent from the string is unknown, never an error; the simulated
// local alerts, for example, carry no I= field.

// Payload holds the fields a receiver could extract from a wire body.
type Payload struct {
	IncidentID string
	Restaurant string
	Severity   string
}

var (
	incidentIDRe = regexp.MustCompile(`\bI=([0-9a-fA-F-]{36})\b`)
	restaurantRe = regexp.MustCompile(`\bR=(R[1-5])\b`)
	severityRe   = regexp.MustCompile(`\bS=(INFO|WARN|CRITICAL)\b`)
)

// EncodeBody builds the wire payload body for an incident.
func EncodeBody(incidentID, restaurant, severity, codeType, codeValue string) string {
	return fmt.Sprintf("E|I=%s|R=%s|S=%s|C=%s|V=%s", incidentID, restaurant, severity, codeType, codeValue)
}

// EncodeScheduledBody builds the wire body used by locally scheduled
// simulated alerts, which have no incident behind them.
func EncodeScheduledBody(restaurant, severity, dateKey string) string {
	return fmt.Sprintf("E|R=%s|S=%s|D=%s", restaurant, severity, dateKey)
}

// ParseBody extracts whatever fields are present in a wire body. Unmatched
// fields are left empty.
func ParseBody(body string) Payload {
	var p Payload
	if m := incidentIDRe.FindStringSubmatch(body); m != nil {
		p.IncidentID = m[1]
	}
	if m := restaurantRe.FindStringSubmatch(body); m != nil {
		p.Restaurant = m[1]
	}
	if m := severityRe.FindStringSubmatch(body); m != nil {
		p.Severity = m[1]
	}
	return p
}
