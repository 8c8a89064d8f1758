// Package metrics holds the Prometheus collectors of the booking service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "equipment_booking"

// Metrics holds Prometheus metrics for booking sessions.
type Metrics struct {
	// Toggles counts slot toggles by result (selected, deselected, rejected).
	Toggles *prometheus.CounterVec

	// Submissions counts submit attempts by result (accepted, invalid, backend_error).
	Submissions *prometheus.CounterVec

	// SnapshotLoads counts unavailability loads by result (ok, error).
	SnapshotLoads *prometheus.CounterVec

	// SnapshotLoadDuration is the time to load a week of unavailability.
	SnapshotLoadDuration prometheus.Histogram

	// ActiveSessions is the number of open booking sessions.
	ActiveSessions prometheus.Gauge

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Toggles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slot_toggles_total",
				Help:      "Slot toggles by result.",
			},
			[]string{"result"},
		),

		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Booking submissions by result.",
			},
			[]string{"result"},
		),

		SnapshotLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_loads_total",
				Help:      "Unavailability snapshot loads by result.",
			},
			[]string{"result"},
		),

		SnapshotLoadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "snapshot_load_duration_seconds",
				Help:      "Time to load a week of unavailability.",
				Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2, 5},
			},
		),

		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of open booking sessions.",
			},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "API requests by route and status code.",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// NewNop returns collectors registered with a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveSnapshotLoad records the outcome and latency of one snapshot load.
func (m *Metrics) ObserveSnapshotLoad(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SnapshotLoads.WithLabelValues(result).Inc()
	m.SnapshotLoadDuration.Observe(time.Since(start).Seconds())
}
