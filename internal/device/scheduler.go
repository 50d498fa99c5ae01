package device

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/fleetops/sysmgmt/internal/incident"
	"github.com/fleetops/sysmgmt/internal/logger"
)

// dateKeyLayout formats the per-day schedule key.
const dateKeyLayout = "2006-01-02"

// checkInterval is how often the scheduler looks for due alerts.
const checkInterval = 30 * time.Second

// scheduledAlert is one planned simulated alert. A nil At marks a silent
// INFO entry: planned, counted, never delivered.
type scheduledAlert struct {
	Restaurant string     `json:"restaurant"`
	Severity   string     `json:"severity"`
	At         *time.Time `json:"at"`
	Delivered  bool       `json:"delivered,omitempty"`
}

type daySchedule struct {
	Count int              `json:"count"`
	Items []scheduledAlert `json:"items"`
}

type schedule struct {
	GeneratedFor string                  `json:"generated_for"`
	Days         int                     `json:"days"`
	MaxPerDay    int                     `json:"max_per_day"`
	Plan         map[string]*daySchedule `json:"plan"`
}

// Scheduler plans randomized simulated alerts for the next N days and
// delivers due ones to the reconciler. The plan is persisted under the
// generation date so a day is planned at most once; regenerating drops any
// pending alerts, mirroring a cancel-then-reschedule.
type Scheduler struct {
	path      string
	days      int
	maxPerDay int
	rec       *Reconciler
	log       logger.Logger
	now       func() time.Time
	rng       *rand.Rand
}

// NewScheduler creates a Scheduler persisting its plan at path.
func NewScheduler(path string, days, maxPerDay int, rec *Reconciler, log logger.Logger) *Scheduler {
	return &Scheduler{
		path:      path,
		days:      days,
		maxPerDay: maxPerDay,
		rec:       rec,
		log:       log,
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Plan generates the alert plan for the next N days unless today's plan
// with the same parameters already exists.
func (s *Scheduler) Plan() error {
	today := s.now()
	todayKey := today.Format(dateKeyLayout)

	if existing := s.load(); existing != nil &&
		existing.GeneratedFor == todayKey &&
		existing.Days == s.days &&
		existing.MaxPerDay == s.maxPerDay {
		return nil
	}

	plan := &schedule{
		GeneratedFor: todayKey,
		Days:         s.days,
		MaxPerDay:    s.maxPerDay,
		Plan:         make(map[string]*daySchedule, s.days),
	}

	var planned int
	for i := 0; i < s.days; i++ {
		day := today.AddDate(0, 0, i)
		dayKey := day.Format(dateKeyLayout)
		count := s.pickDailyCount()
		ds := &daySchedule{Count: count}

		for k := 0; k < count; k++ {
			alert := scheduledAlert{
				Restaurant: s.pickRestaurant(),
				Severity:   s.pickSeverity(),
			}
			// INFO is silent: planned but never scheduled for delivery.
			if alert.Severity != incident.SeverityInfo {
				at := s.randomTimeForDay(day)
				alert.At = &at
				planned++
			}
			ds.Items = append(ds.Items, alert)
		}
		plan.Plan[dayKey] = ds
	}

	if err := s.save(plan); err != nil {
		return err
	}
	s.log.Info("simulated alert plan generated",
		logger.String("generated_for", todayKey),
		logger.Int("days", s.days),
		logger.Int("alerts", planned))
	return nil
}

// Run plans and then delivers due alerts until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Plan(); err != nil {
		return err
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	s.deliverDue()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.deliverDue()
		}
	}
}

// deliverDue fires every planned alert whose time has passed and marks it
// delivered in the persisted plan.
func (s *Scheduler) deliverDue() {
	plan := s.load()
	if plan == nil {
		return
	}

	now := s.now()
	var dirty bool
	for dayKey, day := range plan.Plan {
		for i := range day.Items {
			item := &day.Items[i]
			if item.At == nil || item.Delivered || item.At.After(now) {
				continue
			}
			body := incident.EncodeScheduledBody(item.Restaurant, item.Severity, dayKey)
			s.rec.HandleScheduled(incident.NotificationTitle, body)
			item.Delivered = true
			dirty = true
		}
	}
	if dirty {
		if err := s.save(plan); err != nil {
			s.log.Error("failed to persist alert plan", logger.Error(err))
		}
	}
}

func (s *Scheduler) load() *schedule {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var plan schedule
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil
	}
	return &plan
}

func (s *Scheduler) save(plan *schedule) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal alert plan: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write alert plan: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace alert plan: %w", err)
	}
	return nil
}

// pickDailyCount draws the number of alerts for a day: 55% none, 35% one,
// 10% two, capped by the configured maximum.
func (s *Scheduler) pickDailyCount() int {
	r := s.rng.Float64()
	n := 0
	switch {
	case r < 0.55:
		n = 0
	case r < 0.9:
		n = 1
	default:
		n = 2
	}
	return min(n, s.maxPerDay)
}

// pickSeverity draws a severity: 55% WARN, 25% INFO, 20% CRITICAL.
func (s *Scheduler) pickSeverity() string {
	r := s.rng.Float64()
	switch {
	case r < 0.55:
		return incident.SeverityWarn
	case r < 0.8:
		return incident.SeverityInfo
	default:
		return incident.SeverityCritical
	}
}

func (s *Scheduler) pickRestaurant() string {
	nodes := incident.Restaurants()
	return nodes[s.rng.IntN(len(nodes))]
}

// randomTimeForDay picks a delivery time between 10:00 and 21:59 local.
func (s *Scheduler) randomTimeForDay(day time.Time) time.Time {
	hour := 10 + s.rng.IntN(12)
	minute := s.rng.IntN(60)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}
