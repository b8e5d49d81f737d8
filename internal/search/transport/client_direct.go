package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jurisearch/internal/search/query"
)

const (
	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 32 << 20
	errorExcerptLen  = 200
)

// DirectClient calls the backend itself, adding the API credential to every
// request.
type DirectClient struct {
	baseURL   string
	apiKey    string
	userAgent string
	http      *http.Client
}

// DirectOption configures a DirectClient.
type DirectOption func(*DirectClient)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) DirectOption {
	return func(d *DirectClient) {
		d.http = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) DirectOption {
	return func(d *DirectClient) {
		d.userAgent = ua
	}
}

// NewDirectClient creates a client for baseURL. timeout bounds each call.
func NewDirectClient(baseURL, apiKey string, timeout time.Duration, opts ...DirectOption) *DirectClient {
	d := &DirectClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		userAgent: "jurisearch/1.0",
		http:      &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SearchURL is the _search URL of an endpoint.
func SearchURL(baseURL, endpoint string) string {
	return strings.TrimRight(baseURL, "/") + "/" + endpoint + "/_search"
}

// Search posts q to the endpoint's _search URL.
func (d *DirectClient) Search(ctx context.Context, endpoint string, q query.Query) (*SearchResponse, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, NewError(CategoryNetwork, endpoint, "encode query", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, SearchURL(d.baseURL, endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, NewError(CategoryNetwork, endpoint, "build request", err)
	}
	req.Header.Set("Authorization", "APIKey "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, NewError(categorizeDoError(ctx, err), endpoint, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewError(categorizeDoError(ctx, err), endpoint, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Category: categorizeStatus(resp.StatusCode),
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("backend returned %s", strings.TrimSpace(excerpt(raw, errorExcerptLen))),
		}
	}

	return ParseResponse(endpoint, raw)
}
