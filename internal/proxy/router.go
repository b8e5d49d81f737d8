package proxy

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"jurisearch/internal/platform/metrics"
	"jurisearch/internal/platform/middleware"
	"jurisearch/internal/ratelimit"
	"jurisearch/internal/search/transport"
	metadata "jurisearch/pkg/platform/middleware/metadata"
	"jurisearch/pkg/platform/middleware/requesttime"
)

// Path is where the proxy listens.
const Path = "/api/datajud-proxy"

// NewRouter wires the proxy behind the shared middleware chain and the
// per-client limiter. limiter may be nil.
func NewRouter(h *Handler, limiter *ratelimit.Middleware, logger *slog.Logger, m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.LatencyMiddleware(m))

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.RateLimit)
		}
		r.Handle(Path, h)
	})
	return r
}

// RejectRateLimited writes a throttled request in the proxy's error format.
func RejectRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	WriteError(w, r, http.StatusTooManyRequests, transport.ErrLabelRateLimited,
		"too many requests, retry later", "retry after "+retryAfter.String())
}
