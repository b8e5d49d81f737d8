package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jurisearch/internal/ratelimit/metrics"
	"jurisearch/pkg/testutil"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStoreReserve(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	s := NewStore(1, 2, WithClock(c.Now))

	ok, _ := s.Reserve("a")
	assert.True(t, ok)
	ok, _ = s.Reserve("a")
	assert.True(t, ok)

	ok, wait := s.Reserve("a")
	assert.False(t, ok, "burst exhausted")
	assert.InDelta(t, time.Second, wait, float64(10*time.Millisecond))

	ok, _ = s.Reserve("b")
	assert.True(t, ok, "keys are independent")

	c.Advance(time.Second)
	ok, _ = s.Reserve("a")
	assert.True(t, ok, "token refilled")
}

func TestStoreCleanup(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	s := NewStore(1, 1, WithClock(c.Now), WithIdleTTL(time.Minute))

	s.Reserve("old")
	c.Advance(2 * time.Minute)
	s.Reserve("fresh")
	s.Cleanup()

	assert.Equal(t, 1, s.Len())
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	m := metrics.New(prometheus.NewRegistry(), "test")
	mw := New(NewStore(1, 1, WithClock(c.Now)), logger, WithMetrics(m))

	h := mw.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	call := func(ip string) *httptest.ResponseRecorder {
		req := testutil.WithClient(httptest.NewRequest(http.MethodPost, "/", nil), ip, "")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1").Code)

	w := call("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2").Code)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Rejected))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.TrackedKeys))
}

func TestMiddlewareDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := New(NewStore(0, 0), logger, WithDisabled(true))
	h := mw.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for range 3 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}
