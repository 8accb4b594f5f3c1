package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seismic_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the map service.
type Metrics struct {
	// Reconciliation metrics.
	ReconcileEvents   *prometheus.CounterVec // labels: layer, kind={enter,update,restyle,exit}
	DuplicateFeatures *prometheus.CounterVec // labels: layer
	RenderedElements  *prometheus.GaugeVec   // labels: layer

	// View metrics.
	TransformChanges  *prometheus.CounterVec // labels: gesture
	ViewScale         prometheus.Gauge
	VisibilityToggles *prometheus.CounterVec // labels: layer, state

	// Feed metrics.
	FeedRequests        *prometheus.CounterVec // labels: outcome={success,error,invalid}
	FeedFetchDuration   prometheus.Histogram
	FeedCache           *prometheus.CounterVec // labels: result={hit,miss}
	FeedDroppedFeatures prometheus.Counter

	// Change publishing metrics.
	ChangesPublished *prometheus.CounterVec // labels: outcome={success,error,dropped}

	Ready prometheus.Gauge
}

// NewMetrics creates and registers all map metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReconcileEvents,
		m.DuplicateFeatures,
		m.RenderedElements,
		m.TransformChanges,
		m.ViewScale,
		m.VisibilityToggles,
		m.FeedRequests,
		m.FeedFetchDuration,
		m.FeedCache,
		m.FeedDroppedFeatures,
		m.ChangesPublished,
		m.Ready,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReconcileEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_events_total",
			Help:      "Elements entered, updated, restyled, or exited by layer reconciliation.",
		}, []string{"layer", "kind"}),
		DuplicateFeatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_features_total",
			Help:      "Features dropped because a later feature reused their key.",
		}, []string{"layer"}),
		RenderedElements: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rendered_elements",
			Help:      "Elements currently attached to each layer group, exiting ones included.",
		}, []string{"layer"}),
		TransformChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_changes_total",
			Help:      "View transform changes by gesture type.",
		}, []string{"gesture"}),
		ViewScale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "view_scale",
			Help:      "Current zoom scale of the shared view transform.",
		}),
		VisibilityToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visibility_transitions_total",
			Help:      "Layer visibility state transitions by target state.",
		}, []string{"layer", "state"}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Seismic feed refreshes by outcome.",
		}, []string{"outcome"}),
		FeedFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Seismic feed HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_cache_total",
			Help:      "Feed cache lookups by result.",
		}, []string{"result"}),
		FeedDroppedFeatures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_dropped_features_total",
			Help:      "Feed features dropped during normalization (no key or no point geometry).",
		}),
		ChangesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_published_total",
			Help:      "Layer change notifications by publish outcome.",
		}, []string{"outcome"}),
		Ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ready",
			Help:      "1 once the initial map render is complete.",
		}),
	}
}
