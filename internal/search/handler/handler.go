package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"jurisearch/internal/court"
	"jurisearch/internal/platform/metrics"
	"jurisearch/internal/platform/middleware"
	"jurisearch/internal/search"
	"jurisearch/internal/search/cache"
	"jurisearch/internal/search/models"
	"jurisearch/pkg/domain"
	dErrors "jurisearch/pkg/domain-errors"
	"jurisearch/pkg/platform/httputil"
	"jurisearch/pkg/platform/middleware/requesttime"
)

// Service is the search orchestration consumed by the HTTP layer.
type Service interface {
	Search(ctx context.Context, req search.SearchRequest) (*models.SearchOutcome, error)
	ProcessDetails(ctx context.Context, number, alias string) (*models.Process, error)
	TestConnectivity(ctx context.Context) models.ConnectivityResult
	ClearCache(ctx context.Context) error
	CacheStats(ctx context.Context) (cache.Stats, error)
	Courts() []court.Court
}

// Handler serves the search API.
type Handler struct {
	search         Service
	logger         *slog.Logger
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

// New creates a Handler. requestTimeout bounds each request and should exceed
// the backend timeout.
func New(svc Service, logger *slog.Logger, m *metrics.Metrics, requestTimeout time.Duration) *Handler {
	return &Handler{
		search:         svc,
		logger:         logger,
		metrics:        m,
		requestTimeout: requestTimeout,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(requesttime.Middleware)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(h.requestTimeout))
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.LatencyMiddleware(h.metrics))

	api.Post("/search", h.handleSearch)
	api.Get("/processes/{tribunal}/{numero}", h.handleProcessDetails)
	api.Get("/status", h.handleStatus)
	api.Get("/courts", h.handleCourts)
	api.Delete("/cache", h.handleClearCache)
	api.Get("/cache/stats", h.handleCacheStats)

	r.Mount("/api/v1", api)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	out, err := h.search.Search(ctx, search.SearchRequest{
		Term:   req.parsed.Number,
		Courts: req.Tribunais,
		Cursor: req.SearchAfter,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "search failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toSearchResponse(req.parsed, out))
}

func (h *Handler) handleProcessDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	alias := chi.URLParam(r, "tribunal")
	number := domain.StripNonDigits(chi.URLParam(r, "numero"))
	if number == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "process number is required"))
		return
	}

	p, err := h.search.ProcessDetails(ctx, number, alias)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "process lookup failed",
				"request_id", requestID,
				"court", alias,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	if p == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "process not found"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	res := h.search.TestConnectivity(r.Context())
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	httputil.WriteJSON(w, status, res)
}

func (h *Handler) handleCourts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, CourtsResponse{Tribunais: h.search.Courts()})
}

func (h *Handler) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.search.ClearCache(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to clear cache",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.search.CacheStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
