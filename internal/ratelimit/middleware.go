package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"jurisearch/internal/ratelimit/metrics"
	"jurisearch/pkg/platform/httputil"
	"jurisearch/pkg/requestcontext"
)

// RejectFunc writes the response for a throttled request.
type RejectFunc func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)

// RateLimitExceededResponse is the default body for a throttled request.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

type Middleware struct {
	store    *Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	reject   RejectFunc
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns rate limiting off entirely.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// WithRejectFunc replaces the default 429 body.
func WithRejectFunc(fn RejectFunc) Option {
	return func(m *Middleware) {
		m.reject = fn
	}
}

func New(store *Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		logger: logger,
		reject: writeRateLimitExceeded,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit throttles by the client IP set by the metadata middleware.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := requestcontext.ClientIP(ctx)
		if key == "" {
			key = "unknown"
		}

		allowed, retryAfter := m.store.Reserve(key)
		m.metrics.SetTrackedKeys(m.store.Len())
		if !allowed {
			m.metrics.IncrementRejected()
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"retry_after_ms", retryAfter.Milliseconds(),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(retryAfter)))
			m.reject(w, r, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retrySeconds(d time.Duration) int {
	return int(math.Max(1, math.Ceil(d.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, _ *http.Request, retryAfter time.Duration) {
	httputil.WriteJSON(w, http.StatusTooManyRequests, &RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests from this IP address. Please try again later.",
		RetryAfter: retrySeconds(retryAfter),
	})
}
