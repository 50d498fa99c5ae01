// Package metrics exposes prometheus counters for the incident pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IncidentsCreated counts incidents accepted by the ingestion service.
	IncidentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sysmgmt_incidents_created_total",
		Help: "Number of incidents created via ingestion.",
	})

	// EventsRecorded counts operator events by type (ACK, FIX).
	EventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sysmgmt_incident_events_total",
		Help: "Number of operator incident events recorded.",
	}, []string{"type"})

	// Deliveries counts per-endpoint push delivery outcomes by result
	// (delivered, transient, permanent).
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sysmgmt_push_deliveries_total",
		Help: "Number of per-endpoint push delivery attempts by outcome.",
	}, []string{"result"})

	// SubscriptionsPruned counts endpoints removed after permanent delivery
	// failures.
	SubscriptionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sysmgmt_push_subscriptions_pruned_total",
		Help: "Number of push subscriptions deleted after permanent delivery failures.",
	})
)
