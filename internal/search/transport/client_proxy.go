package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"jurisearch/internal/search/query"
)

// ProxyRequest is the envelope the credential proxy accepts.
type ProxyRequest struct {
	URL    string      `json:"url"`
	Body   query.Query `json:"body"`
	Method string      `json:"method,omitempty"`
}

// ProxyError is the proxy's error body.
type ProxyError struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"details,omitempty"`
}

// ProxyClient sends queries through the credential proxy. It never holds the
// API key.
type ProxyClient struct {
	proxyURL string
	baseURL  string
	http     *http.Client
}

// NewProxyClient creates a client posting to proxyURL. baseURL is the backend
// root the proxy is allowed to reach.
func NewProxyClient(proxyURL, baseURL string, timeout time.Duration) *ProxyClient {
	return &ProxyClient{
		proxyURL: proxyURL,
		baseURL:  strings.TrimRight(baseURL, "/"),
		// Leave headroom above the proxy's own upstream timeout so its 504
		// reaches us instead of a local deadline.
		http: &http.Client{Timeout: timeout + 5*time.Second},
	}
}

// Search forwards q for endpoint through the proxy.
func (p *ProxyClient) Search(ctx context.Context, endpoint string, q query.Query) (*SearchResponse, error) {
	body, err := json.Marshal(ProxyRequest{URL: SearchURL(p.baseURL, endpoint), Body: q, Method: http.MethodPost})
	if err != nil {
		return nil, NewError(CategoryNetwork, endpoint, "encode proxy request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.proxyURL, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(CategoryNetwork, endpoint, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, NewError(categorizeDoError(ctx, err), endpoint, "proxy request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewError(categorizeDoError(ctx, err), endpoint, "read proxy response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, proxyFailure(endpoint, resp.StatusCode, raw)
	}
	return ParseResponse(endpoint, raw)
}

// proxyFailure maps a proxy error answer back into the taxonomy. The proxy
// folds several upstream failures into 502, so its error label decides.
func proxyFailure(endpoint string, status int, raw []byte) *Error {
	var pe ProxyError
	message := strings.TrimSpace(excerpt(raw, errorExcerptLen))
	if err := json.Unmarshal(raw, &pe); err == nil && pe.Message != "" {
		message = pe.Message
	}

	category := categorizeStatus(status)
	if status == http.StatusBadGateway {
		switch pe.Error {
		case ErrLabelConnection:
			category = CategoryNetwork
		case ErrLabelInvalidResponse:
			category = CategoryMalformed
		default:
			category = CategoryUnavailable
		}
	}
	return &Error{Category: category, Endpoint: endpoint, Status: status, Message: message}
}

// Error labels written by the proxy. Shared so both sides agree.
const (
	ErrLabelMethod          = "method_not_allowed"
	ErrLabelInvalidJSON     = "invalid_json"
	ErrLabelInvalidRequest  = "invalid_request"
	ErrLabelTimeout         = "upstream_timeout"
	ErrLabelConnection      = "connection_error"
	ErrLabelAuth            = "authentication_error"
	ErrLabelForbidden       = "access_denied"
	ErrLabelNotFound        = "not_found"
	ErrLabelUnavailable     = "upstream_unavailable"
	ErrLabelUpstream        = "upstream_error"
	ErrLabelInvalidResponse = "invalid_upstream_response"
	ErrLabelRateLimited     = "rate_limited"
)
