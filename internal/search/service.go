// Package search runs a party-document search across the selected courts and
// merges every court's outcome into one aggregate.
package search

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"jurisearch/internal/court"
	"jurisearch/internal/search/cache"
	"jurisearch/internal/search/metrics"
	"jurisearch/internal/search/models"
	"jurisearch/internal/search/query"
	"jurisearch/internal/search/transport"
	dErrors "jurisearch/pkg/domain-errors"
	"jurisearch/pkg/platform/sentinel"
)

const (
	// DefaultPageSize is the number of records requested per court.
	DefaultPageSize = 50

	// probeCourt is the court the connectivity probe queries.
	probeCourt = "trf1"

	tracerName = "jurisearch/search"
)

// SearchRequest is one fan-out over the selected courts.
type SearchRequest struct {
	// Term is the normalized document number.
	Term string
	// Courts are court aliases; empty means all courts. Unknown aliases are ignored.
	Courts []string
	// Cursor continues a previous page. It is applied to every selected court.
	Cursor models.Cursor
}

// Service orchestrates the court fan-out, the result cache and the transport.
type Service struct {
	registry       *court.Registry
	transport      transport.Client
	cache          cache.Cache
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	pageSize       int
	maxConcurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithPageSize sets the per-court page size. Values < 1 are ignored.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithMaxConcurrency bounds how many courts are queried at once. 0 means no bound.
func WithMaxConcurrency(n int) Option {
	return func(s *Service) {
		s.maxConcurrency = n
	}
}

// New constructs a Service.
func New(registry *court.Registry, client transport.Client, c cache.Cache, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		transport: client,
		cache:     c,
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// courtOutcome is the tagged result of one court task. Exactly one of
// result and failure is set.
type courtOutcome struct {
	result  *models.CourtResult
	failure string
	settled int64
}

// Search queries every selected court concurrently and waits for all of them.
// Per-court failures are reported in the outcome's Errors; the returned error
// is reserved for requests that cannot be dispatched at all.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*models.SearchOutcome, error) {
	term := strings.TrimSpace(req.Term)
	if term == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "search term is required")
	}

	targets := s.registry.Select(req.Courts)
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.Int("search.courts", len(targets)),
		attribute.Bool("search.continuation", len(req.Cursor) > 0),
	))
	defer span.End()

	s.logger.InfoContext(ctx, "search started",
		"term", maskTerm(term),
		"courts", aliases(targets),
	)

	outcomes := make([]courtOutcome, len(targets))
	var seq atomic.Int64

	var g errgroup.Group
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}
	for i, c := range targets {
		g.Go(func() error {
			outcomes[i] = s.searchCourt(ctx, c, term, req.Cursor)
			outcomes[i].settled = seq.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(outcomes, func(a, b courtOutcome) int {
		return int(a.settled - b.settled)
	})

	out := &models.SearchOutcome{
		Results: []models.CourtResult{},
		Errors:  []string{},
	}
	for _, o := range outcomes {
		if o.result != nil {
			out.Results = append(out.Results, *o.result)
			continue
		}
		out.Errors = append(out.Errors, o.failure)
	}
	out.Summary = models.Summarize(out.Results)

	elapsed := time.Since(start)
	s.metrics.ObserveSearch(elapsed)
	span.SetAttributes(
		attribute.Int("search.records", out.Summary.TotalProcessos),
		attribute.Int("search.failures", len(out.Errors)),
	)
	s.logger.InfoContext(ctx, "search finished",
		"records", out.Summary.TotalProcessos,
		"courts_ok", len(out.Results),
		"courts_failed", len(out.Errors),
		"duration_ms", elapsed.Milliseconds(),
	)
	return out, nil
}

// searchCourt produces one court's tagged outcome. It never returns an error.
func (s *Service) searchCourt(ctx context.Context, c court.Court, term string, cursor models.Cursor) courtOutcome {
	ctx, span := s.tracer.Start(ctx, "search.court", trace.WithAttributes(
		attribute.String("court.alias", c.Alias),
	))
	defer span.End()

	key := cache.Key{Term: term, Court: c.Alias, Page: cache.PageMarker(cursor)}
	if page, ok := s.cached(ctx, key); ok {
		s.logger.DebugContext(ctx, "cache hit", "court", c.Alias)
		s.metrics.IncrementOutcome(c.Alias, metrics.OutcomeCacheHit)
		span.SetAttributes(attribute.String("court.outcome", metrics.OutcomeCacheHit))
		return courtOutcome{result: page}
	}

	start := time.Now()
	resp, err := s.transport.Search(ctx, c.Endpoint, query.Build(term, cursor, s.pageSize))
	s.metrics.ObserveCourtQuery(c.Alias, time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "court search failed",
			"court", c.Alias,
			"category", transport.CategoryOf(err),
			"error", err,
		)
		s.metrics.IncrementOutcome(c.Alias, metrics.OutcomeFailure)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(transport.CategoryOf(err)))
		span.SetAttributes(attribute.String("court.outcome", metrics.OutcomeFailure))
		return courtOutcome{failure: c.Name + ": " + err.Error()}
	}

	page := s.normalize(c, resp)
	if err := s.cache.Put(ctx, key, page); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "court", c.Alias, "error", err)
	}

	outcome := metrics.OutcomeSuccess
	if len(page.Processos) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.IncrementOutcome(c.Alias, outcome)
	span.SetAttributes(
		attribute.String("court.outcome", outcome),
		attribute.Int("court.records", len(page.Processos)),
	)
	s.logger.InfoContext(ctx, "court search succeeded",
		"court", c.Alias,
		"records", len(page.Processos),
		"total", page.TotalProcessos,
	)
	return courtOutcome{result: page}
}

// cached returns a fresh cached page marked as cached. Cache backend failures
// are treated as misses.
func (s *Service) cached(ctx context.Context, key cache.Key) (*models.CourtResult, bool) {
	page, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "cache read failed", "key", key.String(), "error", err)
		}
		s.metrics.IncrementCacheLookup(false)
		return nil, false
	}
	s.metrics.IncrementCacheLookup(true)
	hit := *page
	hit.Cached = true
	return &hit, true
}

// normalize turns backend hits into a court page.
func (s *Service) normalize(c court.Court, resp *transport.SearchResponse) *models.CourtResult {
	hits := resp.Hits.Hits
	page := &models.CourtResult{
		Processos:      make([]models.Process, 0, len(hits)),
		TotalProcessos: resp.Hits.Total.Value,
		Tribunal:       c.Name,
		Alias:          c.Alias,
		HasMore:        len(hits) == s.pageSize,
	}
	for _, h := range hits {
		p := h.Source
		p.Tribunal = c.Alias
		if len(h.Highlight) > 0 {
			p.Highlight = h.Highlight
		}
		page.Processos = append(page.Processos, p)
	}
	if len(hits) > 0 {
		page.NextSearchAfter = hits[len(hits)-1].Sort
	}
	return page
}

// ProcessDetails fetches one process by number from one court. It returns
// (nil, nil) when the court has no such process.
func (s *Service) ProcessDetails(ctx context.Context, number, alias string) (*models.Process, error) {
	c, ok := s.registry.Resolve(alias)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "court not found")
	}

	ctx, span := s.tracer.Start(ctx, "search.ProcessDetails", trace.WithAttributes(
		attribute.String("court.alias", c.Alias),
	))
	defer span.End()

	resp, err := s.transport.Search(ctx, c.Endpoint, query.ByProcessNumber(number))
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "process lookup failed", "court", c.Alias, "error", err)
		return nil, translateTransport(err, c.Name)
	}
	if len(resp.Hits.Hits) == 0 {
		return nil, nil
	}
	p := resp.Hits.Hits[0].Source
	p.Tribunal = c.Alias
	return &p, nil
}

// TestConnectivity issues a one-record match-all query to probe the backend.
func (s *Service) TestConnectivity(ctx context.Context) models.ConnectivityResult {
	endpoint := "api_publica_" + probeCourt
	if c, ok := s.registry.Resolve(probeCourt); ok {
		endpoint = c.Endpoint
	}

	if _, err := s.transport.Search(ctx, endpoint, query.MatchAll(1)); err != nil {
		s.logger.WarnContext(ctx, "connectivity probe failed", "error", err)
		return models.ConnectivityResult{
			Success: false,
			Message: "DataJud connection failed: " + err.Error(),
		}
	}
	return models.ConnectivityResult{
		Success: true,
		Message: "DataJud connection established",
	}
}

// ClearCache drops every cached page.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear cache")
	}
	s.logger.InfoContext(ctx, "result cache cleared")
	return nil
}

// CacheStats reports the cache's current entries, stale ones included.
func (s *Service) CacheStats(ctx context.Context) (cache.Stats, error) {
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return cache.Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read cache stats")
	}
	return stats, nil
}

// Courts lists the registry.
func (s *Service) Courts() []court.Court {
	return s.registry.All()
}

// translateTransport keeps the transport error in the chain under a domain code.
func translateTransport(err error, courtName string) error {
	code := dErrors.CodeUnavailable
	if transport.CategoryOf(err) == transport.CategoryTimeout {
		code = dErrors.CodeTimeout
	}
	return dErrors.Wrap(err, code, courtName+" lookup failed")
}

func maskTerm(term string) string {
	r := []rune(term)
	if len(r) > 5 {
		r = r[:5]
	}
	return string(r) + "***"
}

func aliases(courts []court.Court) []string {
	out := make([]string, len(courts))
	for i, c := range courts {
		out[i] = c.Alias
	}
	return out
}
