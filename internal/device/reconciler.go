package device

import (
	"context"
	"time"

	"github.com/fleetops/sysmgmt/internal/incident"
	"github.com/fleetops/sysmgmt/internal/logger"
)

// Delivery channel names, recorded for diagnostics only; no channel has
// priority over another.
const (
	ChannelWebPush        = "web_push"
	ChannelNativeDelivery = "native_delivery"
	ChannelNativeTap      = "native_tap"
	ChannelScheduled      = "scheduled"
)

// DefaultPollInterval is how often readers poll the slot when the config
// leaves it unset.
const DefaultPollInterval = time.Second

// Reconciler merges incoming error signals from the independent delivery
// channels into the one persisted active-error slot. Every qualifying
// notification overwrites the slot; whichever write lands last wins, which
// is acceptable because all writers publish the same logical fact: an
// error occurred.
type Reconciler struct {
	slot *Slot
	log  logger.Logger
	now  func() time.Time
}

// NewReconciler creates a Reconciler over the given slot.
func NewReconciler(slot *Slot, log logger.Logger) *Reconciler {
	return &Reconciler{slot: slot, log: log, now: time.Now}
}

// HandleWebPush processes a push message forwarded by the foreground web
// channel.
func (r *Reconciler) HandleWebPush(title, body string) {
	r.handle(ChannelWebPush, title, body)
}

// HandleNativeDelivery processes a native push or local notification
// delivered while the app runs.
func (r *Reconciler) HandleNativeDelivery(title, body string) {
	r.handle(ChannelNativeDelivery, title, body)
}

// HandleNativeTap processes the operator tapping a native notification.
func (r *Reconciler) HandleNativeTap(title, body string) {
	r.handle(ChannelNativeTap, title, body)
}

// HandleScheduled processes a locally scheduled simulated alert firing.
func (r *Reconciler) HandleScheduled(title, body string) {
	r.handle(ChannelScheduled, title, body)
}

func (r *Reconciler) handle(channel, title, body string) {
	payload := incident.ParseBody(body)
	if title == "" {
		title = "ERROR"
	}
	record := &ActiveError{
		TS:         r.now().UnixMilli(),
		Title:      title,
		Body:       body,
		Restaurant: payload.Restaurant,
		Severity:   payload.Severity,
		IncidentID: payload.IncidentID,
	}
	if err := r.slot.Set(record); err != nil {
		r.log.Error("failed to persist active error",
			logger.String("channel", channel),
			logger.Error(err))
		return
	}
	r.log.Info("active error updated",
		logger.String("channel", channel),
		logger.String("restaurant", record.Restaurant),
		logger.String("severity", record.Severity),
		logger.String("incident_id", record.IncidentID))
}

// Clear empties the slot on an explicit operator clear action.
func (r *Reconciler) Clear() {
	if err := r.slot.Clear(); err != nil {
		r.log.Error("failed to clear active error", logger.Error(err))
		return
	}
	r.log.Info("active error cleared")
}

// Snapshot returns the current record, or nil when no error is active.
func (r *Reconciler) Snapshot() *ActiveError {
	return r.slot.Get()
}

// Watch polls the slot at the given interval and invokes fn whenever the
// record changes (including to empty). Polling unifies the delivery
// channels behind one read path; the UI layer never subscribes to storage
// directly. Blocks until ctx is done.
func (r *Reconciler) Watch(ctx context.Context, interval time.Duration, fn func(*ActiveError)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastTS int64 = -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			record := r.slot.Get()
			var ts int64
			if record != nil {
				ts = record.TS
			}
			if ts != lastTS {
				lastTS = ts
				fn(record)
			}
		}
	}
}
