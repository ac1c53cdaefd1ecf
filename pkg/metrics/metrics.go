package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all engine metrics
type Metrics struct {
	// Catalog resolution
	ResolutionGaps prometheus.Counter

	// Calendar views
	StaleResponses prometheus.Counter
	ViewRefreshes  *prometheus.CounterVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec

	// Orchestrator
	Saves *prometheus.CounterVec

	// Event bridge
	EventsForwarded *prometheus.CounterVec

	// Mailer
	NoticesSent *prometheus.CounterVec
}

// NewMetrics creates and registers all engine metrics with the default registry.
func NewMetrics(namespace, subsystem string) *Metrics {
	f := promauto.With(prometheus.DefaultRegisterer)
	return build(f, namespace, subsystem)
}

// New creates unregistered metrics, useful in tests and for the CLI.
func New(namespace string) *Metrics {
	return build(promauto.With(nil), namespace, "")
}

func build(f promauto.Factory, namespace, subsystem string) *Metrics {
	return &Metrics{
		ResolutionGaps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "resolution_gaps_total",
			Help:      "Selections referencing a service missing from the catalog",
		}),
		StaleResponses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stale_responses_total",
			Help:      "Fetch results discarded because the view moved on",
		}),
		ViewRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "view_refreshes_total",
			Help:      "Calendar view refreshes by trigger",
		}, []string{"trigger"}),
		StoreOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_operations_total",
			Help:      "Total number of collaborator store operations",
		}, []string{"operation", "status"}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of collaborator store operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		Saves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointment_saves_total",
			Help:      "Appointment save attempts by outcome",
		}, []string{"outcome"}),
		EventsForwarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_forwarded_total",
			Help:      "Change events mirrored to the message broker",
		}, []string{"event_type", "status"}),
		NoticesSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointment_notices_total",
			Help:      "Appointment notice emails by status",
		}, []string{"status"}),
	}
}
