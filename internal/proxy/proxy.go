// Package proxy forwards search queries to DataJud on behalf of clients that
// must never hold the API credential.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jurisearch/internal/search/transport"
	"jurisearch/pkg/requestcontext"
)

const (
	maxRequestBytes  = 1 << 20
	maxUpstreamBytes = 32 << 20
	detailExcerptLen = 200
)

// Config describes the upstream the proxy may reach.
type Config struct {
	// BaseURL is the DataJud root; request URLs must share its scheme and host.
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
}

// request is the client envelope. Body stays raw; the proxy does not interpret
// the query.
type request struct {
	URL    string          `json:"url"`
	Body   json.RawMessage `json:"body"`
	Method string          `json:"method"`
}

// Handler serves POST /api/datajud-proxy.
type Handler struct {
	cfg     Config
	allowed *url.URL
	client  *http.Client
	logger  *slog.Logger
}

type Option func(*Handler)

// WithHTTPClient replaces the upstream client. Its timeout is left as given.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Handler) {
		h.client = c
	}
}

// New validates cfg and builds a Handler.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Handler, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid upstream base URL %q", cfg.BaseURL)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("upstream API key is required")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "jurisearch-proxy/1.0"
	}
	h := &Handler{
		cfg:     cfg,
		allowed: base,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		h.fail(w, r, http.StatusMethodNotAllowed, transport.ErrLabelMethod,
			"only POST requests are accepted", "")
		return
	}

	var req request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.fail(w, r, http.StatusBadRequest, transport.ErrLabelInvalidJSON,
			"request body must be valid JSON", err.Error())
		return
	}
	target, ok := h.validate(req)
	if !ok {
		h.fail(w, r, http.StatusBadRequest, transport.ErrLabelInvalidRequest,
			"request must carry url (a DataJud URL) and body (a query object)", "")
		return
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodPost
	}

	ctx := r.Context()
	h.logger.InfoContext(ctx, "proxy request",
		"request_id", requestcontext.RequestID(ctx),
		"url", SanitizeURL(target.String()),
		"method", method,
		"body_bytes", len(req.Body),
	)

	h.forward(w, r, target, method, req.Body)
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, target *url.URL, method string, body []byte) {
	ctx := r.Context()
	up, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(body))
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, transport.ErrLabelInvalidRequest, "could not build upstream request", err.Error())
		return
	}
	up.Header.Set("Authorization", "APIKey "+h.cfg.APIKey)
	up.Header.Set("Content-Type", "application/json")
	up.Header.Set("Accept", "application/json")
	up.Header.Set("User-Agent", h.cfg.UserAgent)
	up.Header.Set("Cache-Control", "no-cache")

	resp, err := h.client.Do(up)
	if err != nil {
		if isTimeout(ctx, err) {
			h.fail(w, r, http.StatusGatewayTimeout, transport.ErrLabelTimeout,
				fmt.Sprintf("DataJud did not answer within %s", h.cfg.Timeout), "")
			return
		}
		h.fail(w, r, http.StatusBadGateway, transport.ErrLabelConnection,
			"could not reach DataJud", err.Error())
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			h.fail(w, r, http.StatusGatewayTimeout, transport.ErrLabelTimeout, "DataJud response timed out", "")
			return
		}
		h.fail(w, r, http.StatusBadGateway, transport.ErrLabelConnection, "failed reading DataJud response", err.Error())
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.ErrorContext(ctx, "upstream error",
			"request_id", requestcontext.RequestID(ctx),
			"status", resp.StatusCode,
			"url", SanitizeURL(target.String()),
			"body", excerpt(raw, 500),
		)
		h.upstreamFailure(w, r, resp, raw)
		return
	}

	if !json.Valid(raw) {
		h.fail(w, r, http.StatusBadGateway, transport.ErrLabelInvalidResponse,
			"DataJud returned a body that is not valid JSON", excerpt(raw, 100))
		return
	}
	parsed, err := transport.ParseResponse(SanitizeURL(target.String()), raw)
	if err != nil {
		h.fail(w, r, http.StatusBadGateway, transport.ErrLabelInvalidResponse,
			"DataJud returned a body without a hits list", excerpt(raw, 100))
		return
	}
	h.logger.InfoContext(ctx, "proxy success",
		"request_id", requestcontext.RequestID(ctx),
		"url", SanitizeURL(target.String()),
		"returned_hits", len(parsed.Hits.Hits),
		"took_ms", parsed.Took,
	)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(raw)
}

func (h *Handler) upstreamFailure(w http.ResponseWriter, r *http.Request, resp *http.Response, raw []byte) {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		h.fail(w, r, http.StatusUnauthorized, transport.ErrLabelAuth,
			"the DataJud API key may be invalid or expired", "see https://wiki-publica.cnj.jus.br/")
	case resp.StatusCode == http.StatusForbidden:
		h.fail(w, r, http.StatusForbidden, transport.ErrLabelForbidden,
			"no permission to access this DataJud resource", "")
	case resp.StatusCode == http.StatusNotFound:
		h.fail(w, r, http.StatusNotFound, transport.ErrLabelNotFound,
			"DataJud endpoint not found; check the court alias", "")
	case resp.StatusCode >= 500:
		h.fail(w, r, http.StatusBadGateway, transport.ErrLabelUnavailable,
			"DataJud is temporarily unavailable", fmt.Sprintf("status: %s", resp.Status))
	default:
		h.fail(w, r, resp.StatusCode, transport.ErrLabelUpstream,
			fmt.Sprintf("DataJud returned status %d", resp.StatusCode), excerpt(raw, detailExcerptLen))
	}
}

// validate checks the envelope and pins the target to the configured upstream.
func (h *Handler) validate(req request) (*url.URL, bool) {
	if req.URL == "" {
		return nil, false
	}
	target, err := url.Parse(req.URL)
	if err != nil || target.Host != h.allowed.Host || target.Scheme != h.allowed.Scheme {
		return nil, false
	}
	if target.User != nil {
		return nil, false
	}
	body := bytes.TrimSpace(req.Body)
	if len(body) == 0 || body[0] != '{' {
		return nil, false
	}
	return target, true
}

// fail writes the error envelope and logs it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, label, message, details string) {
	WriteError(w, r, status, label, message, details)
	h.logger.WarnContext(r.Context(), "proxy error",
		"request_id", requestcontext.RequestID(r.Context()),
		"status", status,
		"error", label,
		"details", details,
	)
}

// WriteError writes the proxy's JSON error envelope with CORS headers.
func WriteError(w http.ResponseWriter, r *http.Request, status int, label, message, details string) {
	setCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(transport.ProxyError{
		Error:     label,
		Message:   message,
		Status:    status,
		Timestamp: requestcontext.Now(r.Context()).UTC().Format(time.RFC3339Nano),
		Details:   details,
	})
}

func setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
}

// SanitizeURL masks the index segment (which names the court) for logs.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	segs := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(segs) > 0 && segs[0] != "" {
		segs[0] = "****"
	}
	return u.Scheme + "://" + u.Host + "/" + strings.Join(segs, "/")
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func excerpt(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
