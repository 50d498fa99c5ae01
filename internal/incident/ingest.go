package incident

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
	"github.com/fleetops/sysmgmt/internal/datastore/repository"
	"github.com/fleetops/sysmgmt/internal/errors"
	"github.com/fleetops/sysmgmt/internal/logger"
	"github.com/fleetops/sysmgmt/internal/observability/metrics"
)

// PushBroadcaster fans one notification out to every registered device and
// reports exact counts. Abstracted for testability.
type PushBroadcaster interface {
	Broadcast(ctx context.Context, title, body string) (subscribers, sent, failed int)
}

// Escalator forwards critical incidents to external operator channels.
// Best-effort: implementations never fail the caller.
type Escalator interface {
	EscalateIncident(ctx context.Context, inc *entities.Incident)
}

// IngestService orchestrates incident creation: validate, insert the
// incident row, update the projection, fan out notifications.
type IngestService struct {
	incidents repository.IncidentRepository
	statuses  repository.StatusRepository
	push      PushBroadcaster
	escalator Escalator // optional
	log       logger.Logger
}

// NewIngestService creates a new IngestService. escalator may be nil.
func NewIngestService(
	incidents repository.IncidentRepository,
	statuses repository.StatusRepository,
	push PushBroadcaster,
	escalator Escalator,
	log logger.Logger,
) *IngestService {
	return &IngestService{
		incidents: incidents,
		statuses:  statuses,
		push:      push,
		escalator: escalator,
		log:       log,
	}
}

// IngestRequest is one observed error occurrence. CodeValue is decoded as
// raw JSON so a present-but-zero value is distinguishable from an absent
// one.
type IngestRequest struct {
	Restaurant string `json:"restaurant"`
	Severity   string `json:"severity"`
	CodeType   string `json:"code_type"`
	CodeValue  any    `json:"code_value"`
}

// IngestResult reports the created incident and exact fan-out counts.
type IngestResult struct {
	IncidentID  string `json:"incident_id"`
	Subscribers int    `json:"subscriber_count"`
	Sent        int    `json:"sent"`
	Failed      int    `json:"failed"`
}

// Validation errors carry stable codes so clients branch without string
// matching.
var (
	ErrMissingField    = errors.NewCoded(errors.CategoryValidation, "validation-missing-field")
	ErrInvalidSeverity = errors.NewCoded(errors.CategoryValidation, "validation-invalid-severity")
)

// normalizeCodeValue renders the free-form code value as a string. Returns
// false when the value is absent: JSON null and a missing field are both
// "missing", but zero is a real value and must be kept.
func normalizeCodeValue(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", false
	case string:
		if value == "" {
			return "", false
		}
		return value, true
	case float64:
		// encoding/json decodes all numbers as float64; render integral
		// values without a fractional part so 503 stays "503".
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10), true
		}
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(value), true
	default:
		return "", false
	}
}

// Validate checks field presence and the severity enum.
func (r *IngestRequest) Validate() (codeValue string, err error) {
	if r.Restaurant == "" || r.Severity == "" || r.CodeType == "" {
		return "", ErrMissingField
	}
	codeValue, ok := normalizeCodeValue(r.CodeValue)
	if !ok {
		return "", ErrMissingField
	}
	if !ValidSeverity(r.Severity) {
		return "", ErrInvalidSeverity
	}
	return codeValue, nil
}

// Ingest records a new incident and notifies every subscribed device.
//
// The incident insert is the only fatal step. The projection update is
// best-effort: the incident already exists, so notifications still go out
// even when the projection write fails. Fan-out failures are aggregated
// into counters, never raised.
func (s *IngestService) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	codeValue, err := req.Validate()
	if err != nil {
		return nil, err
	}

	inc := &entities.Incident{
		ID:         uuid.NewString(),
		Restaurant: req.Restaurant,
		Severity:   req.Severity,
		CodeType:   req.CodeType,
		CodeValue:  codeValue,
	}
	if err := s.incidents.Create(ctx, inc); err != nil {
		return nil, errors.WithCode(errors.CategoryStore, "incident-create-failed", err)
	}
	metrics.IncidentsCreated.Inc()

	// Creation path: the newest incident always wins the projection, so no
	// compare step here. Failure is logged, not returned.
	if err := s.statuses.SetOpen(ctx, inc.Restaurant, inc.ID, inc.Severity, time.Now()); err != nil {
		s.log.Error("failed to update restaurant status projection",
			logger.String("incident_id", inc.ID),
			logger.String("restaurant", inc.Restaurant),
			logger.Error(err))
	}

	body := EncodeBody(inc.ID, inc.Restaurant, inc.Severity, inc.CodeType, inc.CodeValue)
	subscribers, sent, failed := s.push.Broadcast(ctx, NotificationTitle, body)

	if s.escalator != nil && inc.Severity == SeverityCritical {
		s.escalator.EscalateIncident(ctx, inc)
	}

	s.log.Info("incident ingested",
		logger.String("incident_id", inc.ID),
		logger.String("restaurant", inc.Restaurant),
		logger.String("severity", inc.Severity),
		logger.Int("subscribers", subscribers),
		logger.Int("sent", sent),
		logger.Int("failed", failed))

	return &IngestResult{
		IncidentID:  inc.ID,
		Subscribers: subscribers,
		Sent:        sent,
		Failed:      failed,
	}, nil
}
