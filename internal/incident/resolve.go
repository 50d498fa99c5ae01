package incident

import (
	"context"
	"time"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
	"github.com/fleetops/sysmgmt/internal/datastore/repository"
	"github.com/fleetops/sysmgmt/internal/errors"
	"github.com/fleetops/sysmgmt/internal/logger"
	"github.com/fleetops/sysmgmt/internal/observability/metrics"
)

// ResolveService records operator actions and applies resolution effects.
type ResolveService struct {
	incidents repository.IncidentRepository
	statuses  repository.StatusRepository
	log       logger.Logger
}

// NewResolveService creates a new ResolveService.
func NewResolveService(
	incidents repository.IncidentRepository,
	statuses repository.StatusRepository,
	log logger.Logger,
) *ResolveService {
	return &ResolveService{incidents: incidents, statuses: statuses, log: log}
}

// ResolveRequest is one operator action against an incident.
type ResolveRequest struct {
	IncidentID string `json:"incident_id"`
	EventType  string `json:"event_type"`
	ActorID    string `json:"actor_id"`
	ActorLabel string `json:"actor_label"`
}

// ErrInvalidEventType rejects event types outside {ACK, FIX}.
var ErrInvalidEventType = errors.NewCoded(errors.CategoryValidation, "validation-invalid-event-type")

// Validate checks field presence and the event type enum.
func (r *ResolveRequest) Validate() error {
	if r.IncidentID == "" || r.EventType == "" || r.ActorID == "" {
		return ErrMissingField
	}
	if !ValidEventType(r.EventType) {
		return ErrInvalidEventType
	}
	return nil
}

// Resolve records the operator event and, for FIX, resolves the incident
// and conditionally clears the projection.
//
// The event insert is the durable record of the action and is the only
// fatal step: if it fails nothing else happens. Everything after it is
// best-effort tail work — the incident lookup, the resolved_at stamp, and
// the conditional projection clear are each logged on failure but never
// fail the request. The conditional clear only applies while the
// projection still points at this incident; a zero-row outcome means a
// newer incident owns the projection and is correct behavior, not an
// error.
func (s *ResolveService) Resolve(ctx context.Context, req *ResolveRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	ev := &entities.IncidentEvent{
		IncidentID: req.IncidentID,
		EventType:  req.EventType,
		ActorID:    req.ActorID,
		ActorLabel: req.ActorLabel,
	}
	if err := s.incidents.AppendEvent(ctx, ev); err != nil {
		return errors.WithCode(errors.CategoryStore, "event-insert-failed", err)
	}
	metrics.EventsRecorded.WithLabelValues(req.EventType).Inc()

	// ACK is purely informational.
	if req.EventType != EventTypeFix {
		return nil
	}

	inc, err := s.incidents.Get(ctx, req.IncidentID)
	if err != nil {
		if errors.Is(err, repository.ErrIncidentNotFound) {
			// A FIX for an incident this store never saw: the event is
			// recorded, nothing else to do.
			s.log.Warn("fix event references unknown incident",
				logger.String("incident_id", req.IncidentID),
				logger.String("actor_id", req.ActorID))
			return nil
		}
		s.log.Error("failed to look up incident for fix",
			logger.String("incident_id", req.IncidentID),
			logger.Error(err))
		return nil
	}

	now := time.Now()
	if err := s.incidents.Resolve(ctx, inc.ID, now); err != nil {
		s.log.Error("failed to stamp incident resolved",
			logger.String("incident_id", inc.ID),
			logger.Error(err))
	}

	cleared, err := s.statuses.ClearIfOpen(ctx, inc.Restaurant, inc.ID, now)
	switch {
	case err != nil:
		s.log.Error("failed to clear restaurant status projection",
			logger.String("incident_id", inc.ID),
			logger.String("restaurant", inc.Restaurant),
			logger.Error(err))
	case !cleared:
		// A newer incident has taken the projection since this one opened.
		s.log.Debug("projection no longer points at fixed incident, leaving untouched",
			logger.String("incident_id", inc.ID),
			logger.String("restaurant", inc.Restaurant))
	}

	s.log.Info("incident fixed",
		logger.String("incident_id", inc.ID),
		logger.String("restaurant", inc.Restaurant),
		logger.String("actor_id", req.ActorID),
		logger.Bool("projection_cleared", cleared))

	return nil
}
