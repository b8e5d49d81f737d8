package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Court outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeEmpty    = "empty"
	OutcomeFailure  = "failure"
	OutcomeCacheHit = "cache_hit"
)

// Metrics provides observability for the search fan-out.
type Metrics struct {
	// Backend latency per court, cache hits excluded
	CourtQueryLatency *prometheus.HistogramVec

	// Per-court outcome of each search
	CourtOutcome *prometheus.CounterVec

	// Cache lookups by result (hit, miss)
	CacheLookups *prometheus.CounterVec

	// Whole fan-out latency
	SearchLatency prometheus.Histogram
}

// New registers the search metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		CourtQueryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jurisearch_court_query_duration_seconds",
			Help:    "Duration of backend queries by court",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"court"}),

		CourtOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jurisearch_court_outcomes_total",
			Help: "Per-court search outcomes",
		}, []string{"court", "outcome"}), // outcome: success, empty, failure, cache_hit

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jurisearch_cache_lookups_total",
			Help: "Result cache lookups by result",
		}, []string{"result"}),

		SearchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jurisearch_search_duration_seconds",
			Help:    "Duration of a full multi-court search",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// ObserveCourtQuery records the duration of one backend query.
func (m *Metrics) ObserveCourtQuery(court string, d time.Duration) {
	if m != nil {
		m.CourtQueryLatency.WithLabelValues(court).Observe(d.Seconds())
	}
}

// IncrementOutcome records a court outcome.
func (m *Metrics) IncrementOutcome(court, outcome string) {
	if m != nil {
		m.CourtOutcome.WithLabelValues(court, outcome).Inc()
	}
}

// IncrementCacheLookup records a cache hit or miss.
func (m *Metrics) IncrementCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveSearch records the total fan-out duration.
func (m *Metrics) ObserveSearch(d time.Duration) {
	if m != nil {
		m.SearchLatency.Observe(d.Seconds())
	}
}
