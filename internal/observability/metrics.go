package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "city_distance"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: provider, outcome={success,empty,error}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: provider

	// Autocomplete metrics.
	AutocompleteCache  *prometheus.CounterVec // labels: result={hit,miss}
	AutocompleteStale  prometheus.Counter
	AutocompleteSearch prometheus.Counter

	// Distance metrics.
	DistanceCalculations *prometheus.CounterVec // labels: algorithm, outcome={success,fallback,error}

	SessionsActive  prometheus.Gauge
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
		m.AutocompleteCache,
		m.AutocompleteStale,
		m.AutocompleteSearch,
		m.DistanceCalculations,
		m.SessionsActive,
		m.EventsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
		AutocompleteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autocomplete_cache_total",
			Help:      "Autocomplete query cache lookups by result.",
		}, []string{"result"}),
		AutocompleteStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autocomplete_stale_responses_total",
			Help:      "Search responses discarded because newer input superseded them.",
		}),
		AutocompleteSearch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autocomplete_searches_total",
			Help:      "Searches issued after the debounce window elapsed.",
		}),
		DistanceCalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "distance_calculations_total",
			Help:      "Distance calculations by algorithm and outcome.",
		}, []string{"algorithm", "outcome"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Autocomplete sessions currently held in memory.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Distance events published to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
