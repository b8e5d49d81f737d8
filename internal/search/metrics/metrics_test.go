package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementOutcome("trf1", OutcomeSuccess)
	m.IncrementOutcome("trf1", OutcomeSuccess)
	m.IncrementOutcome("stj", OutcomeFailure)
	m.IncrementCacheLookup(true)
	m.IncrementCacheLookup(false)
	m.IncrementCacheLookup(false)
	m.ObserveCourtQuery("trf1", 120*time.Millisecond)
	m.ObserveSearch(time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CourtOutcome.WithLabelValues("trf1", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CourtOutcome.WithLabelValues("stj", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CourtQueryLatency))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementOutcome("trf1", OutcomeSuccess)
		m.IncrementCacheLookup(true)
		m.ObserveCourtQuery("trf1", time.Second)
		m.ObserveSearch(time.Second)
	})
}
