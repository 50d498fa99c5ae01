package incident

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
	"github.com/fleetops/sysmgmt/internal/datastore/repository"
	"github.com/fleetops/sysmgmt/internal/errors"
	"github.com/fleetops/sysmgmt/internal/logger"
)

// fakeIncidentRepo is an in-memory IncidentRepository with optional error
// injection.
type fakeIncidentRepo struct {
	mu        sync.Mutex
	incidents map[string]*entities.Incident
	events    []entities.IncidentEvent
	createErr error
	eventErr  error
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{incidents: make(map[string]*entities.Incident)}
}

func (f *fakeIncidentRepo) Create(_ context.Context, inc *entities.Incident) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	inc.CreatedAt = time.Now()
	clone := *inc
	f.incidents[inc.ID] = &clone
	return nil
}

func (f *fakeIncidentRepo) Get(_ context.Context, id string) (*entities.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inc, ok := f.incidents[id]
	if !ok {
		return nil, repository.ErrIncidentNotFound
	}
	clone := *inc
	return &clone, nil
}

func (f *fakeIncidentRepo) Resolve(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inc, ok := f.incidents[id]; ok && inc.ResolvedAt == nil {
		inc.ResolvedAt = &at
	}
	return nil
}

func (f *fakeIncidentRepo) List(_ context.Context, _ repository.IncidentFilter) ([]entities.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Incident, 0, len(f.incidents))
	for _, inc := range f.incidents {
		out = append(out, *inc)
	}
	return out, nil
}

func (f *fakeIncidentRepo) AppendEvent(_ context.Context, ev *entities.IncidentEvent) error {
	if f.eventErr != nil {
		return f.eventErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ev.ID = uint(len(f.events) + 1)
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeIncidentRepo) ListEvents(_ context.Context, incidentID string) ([]entities.IncidentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.IncidentEvent
	for _, ev := range f.events {
		if ev.IncidentID == incidentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// fakeStatusRepo mirrors the conditional-update semantics of the real
// projection store: ClearIfOpen only clears when the guard matches.
type fakeStatusRepo struct {
	mu     sync.Mutex
	open   map[string]string // restaurant -> open incident id
	setErr error
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{open: make(map[string]string)}
}

func (f *fakeStatusRepo) List(_ context.Context) ([]entities.RestaurantStatus, error) {
	return nil, nil
}

func (f *fakeStatusRepo) SetOpen(_ context.Context, restaurant, incidentID, _ string, _ time.Time) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open[restaurant] = incidentID
	return nil
}

func (f *fakeStatusRepo) ClearIfOpen(_ context.Context, restaurant, incidentID string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open[restaurant] != incidentID {
		return false, nil
	}
	delete(f.open, restaurant)
	return true, nil
}

func (f *fakeStatusRepo) Seed(_ context.Context, _ []string) (int, error) {
	return 0, nil
}

func (f *fakeStatusRepo) openIncident(restaurant string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.open[restaurant]
	return id, ok
}

// fakeBroadcaster captures the last broadcast and returns fixed counts.
type fakeBroadcaster struct {
	calls int
	title string
	body  string

	subscribers int
	sent        int
	failed      int
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, title, body string) (int, int, int) {
	f.calls++
	f.title = title
	f.body = body
	return f.subscribers, f.sent, f.failed
}

type fakeEscalator struct {
	incidents []*entities.Incident
}

func (f *fakeEscalator) EscalateIncident(_ context.Context, inc *entities.Incident) {
	f.incidents = append(f.incidents, inc)
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func TestIngest(t *testing.T) {
	incidents := newFakeIncidentRepo()
	statuses := newFakeStatusRepo()
	push := &fakeBroadcaster{subscribers: 3, sent: 2, failed: 1}
	svc := NewIngestService(incidents, statuses, push, nil, testLogger())

	result, err := svc.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R3",
		Severity:   "CRITICAL",
		CodeType:   "HTTP",
		CodeValue:  float64(503),
	})
	require.NoError(t, err)

	_, err = uuid.Parse(result.IncidentID)
	require.NoError(t, err, "incident id must be a uuid")
	assert.Equal(t, 3, result.Subscribers)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)

	stored, err := incidents.Get(t.Context(), result.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, "503", stored.CodeValue)
	assert.Nil(t, stored.ResolvedAt)

	openID, ok := statuses.openIncident("R3")
	require.True(t, ok)
	assert.Equal(t, result.IncidentID, openID)

	assert.Equal(t, 1, push.calls)
	assert.Equal(t, NotificationTitle, push.title)
	assert.Equal(t, "E|I="+result.IncidentID+"|R=R3|S=CRITICAL|C=HTTP|V=503", push.body)
}

func TestIngestZeroCodeValue(t *testing.T) {
	incidents := newFakeIncidentRepo()
	statuses := newFakeStatusRepo()
	push := &fakeBroadcaster{}
	svc := NewIngestService(incidents, statuses, push, nil, testLogger())

	// 0 is a real value (a clean-exit code, say), not an absent one.
	result, err := svc.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R1",
		Severity:   "WARN",
		CodeType:   "EXIT",
		CodeValue:  float64(0),
	})
	require.NoError(t, err)

	stored, err := incidents.Get(t.Context(), result.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, "0", stored.CodeValue)
}

func TestIngestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     IngestRequest
		wantErr error
	}{
		{"missing restaurant", IngestRequest{Severity: "WARN", CodeType: "HTTP", CodeValue: float64(1)}, ErrMissingField},
		{"missing severity", IngestRequest{Restaurant: "R1", CodeType: "HTTP", CodeValue: float64(1)}, ErrMissingField},
		{"missing code type", IngestRequest{Restaurant: "R1", Severity: "WARN", CodeValue: float64(1)}, ErrMissingField},
		{"missing code value", IngestRequest{Restaurant: "R1", Severity: "WARN", CodeType: "HTTP"}, ErrMissingField},
		{"empty string code value", IngestRequest{Restaurant: "R1", Severity: "WARN", CodeType: "HTTP", CodeValue: ""}, ErrMissingField},
		{"invalid severity", IngestRequest{Restaurant: "R1", Severity: "FATAL", CodeType: "HTTP", CodeValue: float64(1)}, ErrInvalidSeverity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			incidents := newFakeIncidentRepo()
			statuses := newFakeStatusRepo()
			push := &fakeBroadcaster{}
			svc := NewIngestService(incidents, statuses, push, nil, testLogger())

			_, err := svc.Ingest(t.Context(), &tt.req)
			require.ErrorIs(t, err, tt.wantErr)

			// Validation failures must leave no trace.
			assert.Empty(t, incidents.incidents)
			assert.Zero(t, push.calls)
		})
	}
}

func TestIngestCreateFailureIsFatal(t *testing.T) {
	incidents := newFakeIncidentRepo()
	incidents.createErr = errors.New("disk full")
	statuses := newFakeStatusRepo()
	push := &fakeBroadcaster{}
	svc := NewIngestService(incidents, statuses, push, nil, testLogger())

	_, err := svc.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R1", Severity: "WARN", CodeType: "HTTP", CodeValue: float64(500),
	})
	require.Error(t, err)
	assert.Equal(t, "incident-create-failed", errors.CodeOf(err))
	assert.Zero(t, push.calls, "no notification for an incident that was never recorded")
}

func TestIngestProjectionFailureStillNotifies(t *testing.T) {
	incidents := newFakeIncidentRepo()
	statuses := newFakeStatusRepo()
	statuses.setErr = errors.New("lock timeout")
	push := &fakeBroadcaster{subscribers: 1, sent: 1}
	svc := NewIngestService(incidents, statuses, push, nil, testLogger())

	result, err := svc.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R2", Severity: "WARN", CodeType: "HTTP", CodeValue: float64(502),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, push.calls)
	assert.Equal(t, 1, result.Sent)
}

func TestIngestEscalatesCriticalOnly(t *testing.T) {
	incidents := newFakeIncidentRepo()
	statuses := newFakeStatusRepo()
	escalator := &fakeEscalator{}
	svc := NewIngestService(incidents, statuses, &fakeBroadcaster{}, escalator, testLogger())

	_, err := svc.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R1", Severity: "WARN", CodeType: "HTTP", CodeValue: float64(500),
	})
	require.NoError(t, err)
	assert.Empty(t, escalator.incidents)

	result, err := svc.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R1", Severity: "CRITICAL", CodeType: "HTTP", CodeValue: float64(500),
	})
	require.NoError(t, err)
	require.Len(t, escalator.incidents, 1)
	assert.Equal(t, result.IncidentID, escalator.incidents[0].ID)
}

func TestResolveAck(t *testing.T) {
	incidents := newFakeIncidentRepo()
	statuses := newFakeStatusRepo()
	ingest := NewIngestService(incidents, statuses, &fakeBroadcaster{}, nil, testLogger())
	resolve := NewResolveService(incidents, statuses, testLogger())

	created, err := ingest.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R4", Severity: "WARN", CodeType: "HTTP", CodeValue: float64(500),
	})
	require.NoError(t, err)

	err = resolve.Resolve(t.Context(), &ResolveRequest{
		IncidentID: created.IncidentID, EventType: "ACK", ActorID: "op-1",
	})
	require.NoError(t, err)

	// ACK records the event and changes nothing else.
	events, err := incidents.ListEvents(t.Context(), created.IncidentID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ACK", events[0].EventType)

	inc, err := incidents.Get(t.Context(), created.IncidentID)
	require.NoError(t, err)
	assert.Nil(t, inc.ResolvedAt)

	openID, ok := statuses.openIncident("R4")
	require.True(t, ok)
	assert.Equal(t, created.IncidentID, openID)
}

func TestResolveFix(t *testing.T) {
	incidents := newFakeIncidentRepo()
	statuses := newFakeStatusRepo()
	ingest := NewIngestService(incidents, statuses, &fakeBroadcaster{}, nil, testLogger())
	resolve := NewResolveService(incidents, statuses, testLogger())

	created, err := ingest.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R4", Severity: "CRITICAL", CodeType: "HTTP", CodeValue: float64(503),
	})
	require.NoError(t, err)

	err = resolve.Resolve(t.Context(), &ResolveRequest{
		IncidentID: created.IncidentID, EventType: "FIX", ActorID: "op-1", ActorLabel: "Night shift",
	})
	require.NoError(t, err)

	inc, err := incidents.Get(t.Context(), created.IncidentID)
	require.NoError(t, err)
	assert.NotNil(t, inc.ResolvedAt)

	_, ok := statuses.openIncident("R4")
	assert.False(t, ok, "projection must be cleared")
}

// Fixing an older incident after a newer one opened must leave the
// projection pointing at the newer incident.
func TestResolveStaleFixKeepsNewerIncident(t *testing.T) {
	incidents := newFakeIncidentRepo()
	statuses := newFakeStatusRepo()
	ingest := NewIngestService(incidents, statuses, &fakeBroadcaster{}, nil, testLogger())
	resolve := NewResolveService(incidents, statuses, testLogger())

	older, err := ingest.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R5", Severity: "WARN", CodeType: "HTTP", CodeValue: float64(500),
	})
	require.NoError(t, err)

	newer, err := ingest.Ingest(t.Context(), &IngestRequest{
		Restaurant: "R5", Severity: "CRITICAL", CodeType: "HTTP", CodeValue: float64(503),
	})
	require.NoError(t, err)

	err = resolve.Resolve(t.Context(), &ResolveRequest{
		IncidentID: older.IncidentID, EventType: "FIX", ActorID: "op-2",
	})
	require.NoError(t, err)

	// The older incident is resolved, but the projection stays on the newer.
	inc, err := incidents.Get(t.Context(), older.IncidentID)
	require.NoError(t, err)
	assert.NotNil(t, inc.ResolvedAt)

	openID, ok := statuses.openIncident("R5")
	require.True(t, ok)
	assert.Equal(t, newer.IncidentID, openID)

	err = resolve.Resolve(t.Context(), &ResolveRequest{
		IncidentID: newer.IncidentID, EventType: "FIX", ActorID: "op-2",
	})
	require.NoError(t, err)

	_, ok = statuses.openIncident("R5")
	assert.False(t, ok)
}

func TestResolveUnknownIncident(t *testing.T) {
	incidents := newFakeIncidentRepo()
	statuses := newFakeStatusRepo()
	resolve := NewResolveService(incidents, statuses, testLogger())

	unknown := uuid.NewString()
	err := resolve.Resolve(t.Context(), &ResolveRequest{
		IncidentID: unknown, EventType: "FIX", ActorID: "op-9",
	})
	require.NoError(t, err)

	// The event is still the durable record of the action.
	events, err := incidents.ListEvents(t.Context(), unknown)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     ResolveRequest
		wantErr error
	}{
		{"missing incident id", ResolveRequest{EventType: "ACK", ActorID: "op-1"}, ErrMissingField},
		{"missing event type", ResolveRequest{IncidentID: "x", ActorID: "op-1"}, ErrMissingField},
		{"missing actor", ResolveRequest{IncidentID: "x", EventType: "ACK"}, ErrMissingField},
		{"invalid event type", ResolveRequest{IncidentID: "x", EventType: "CLOSE", ActorID: "op-1"}, ErrInvalidEventType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			incidents := newFakeIncidentRepo()
			resolve := NewResolveService(incidents, newFakeStatusRepo(), testLogger())

			err := resolve.Resolve(t.Context(), &tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, incidents.events)
		})
	}
}

func TestResolveEventInsertFailureIsFatal(t *testing.T) {
	incidents := newFakeIncidentRepo()
	incidents.eventErr = errors.New("disk full")
	resolve := NewResolveService(incidents, newFakeStatusRepo(), testLogger())

	err := resolve.Resolve(t.Context(), &ResolveRequest{
		IncidentID: uuid.NewString(), EventType: "FIX", ActorID: "op-1",
	})
	require.Error(t, err)
	assert.Equal(t, "event-insert-failed", errors.CodeOf(err))
}
