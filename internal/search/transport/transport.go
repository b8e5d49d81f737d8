// Package transport talks to the court search backend, either directly with
// the API credential or through the credential-injecting proxy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"

	"jurisearch/internal/search/models"
	"jurisearch/internal/search/query"
)

// Client runs one query against one court endpoint.
type Client interface {
	Search(ctx context.Context, endpoint string, q query.Query) (*SearchResponse, error)
}

// SearchResponse is the subset of the backend's response this system reads.
type SearchResponse struct {
	Took int  `json:"took"`
	Hits Hits `json:"hits"`
}

// Hits wraps the matched documents.
type Hits struct {
	Total Total `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Total is the backend's hit count; Relation is "eq" or "gte".
type Total struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

// Hit is one matched document.
type Hit struct {
	ID        string              `json:"_id"`
	Score     *float64            `json:"_score"`
	Source    models.Process      `json:"_source"`
	Sort      models.Cursor       `json:"sort,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// envelope mirrors SearchResponse with a pointer so a missing hits object is
// distinguishable from an empty one.
type envelope struct {
	Took int `json:"took"`
	Hits *struct {
		Total *Total          `json:"total"`
		Hits  json.RawMessage `json:"hits"`
	} `json:"hits"`
}

// ParseResponse decodes a backend body, rejecting anything without the
// hits envelope as malformed.
func ParseResponse(endpoint string, body []byte) (*SearchResponse, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, NewError(CategoryMalformed, endpoint, "response is not valid JSON", err)
	}
	if env.Hits == nil || env.Hits.Hits == nil {
		return nil, NewError(CategoryMalformed, endpoint, "response has no hits envelope", nil)
	}
	if bytes.Equal(bytes.TrimSpace(env.Hits.Hits), []byte("null")) {
		return nil, NewError(CategoryMalformed, endpoint, "hits list is null", nil)
	}

	var hits []Hit
	if err := json.Unmarshal(env.Hits.Hits, &hits); err != nil {
		return nil, NewError(CategoryMalformed, endpoint, "hits have an unexpected shape", err)
	}

	resp := &SearchResponse{Took: env.Took, Hits: Hits{Hits: hits}}
	if env.Hits.Total != nil {
		resp.Hits.Total = *env.Hits.Total
	} else {
		resp.Hits.Total = Total{Value: len(hits), Relation: "eq"}
	}
	if resp.Hits.Hits == nil {
		resp.Hits.Hits = []Hit{}
	}
	return resp, nil
}

// categorizeStatus maps a backend status to the taxonomy.
func categorizeStatus(status int) Category {
	switch {
	case status == http.StatusUnauthorized:
		return CategoryAuth
	case status == http.StatusForbidden:
		return CategoryForbidden
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusGatewayTimeout:
		return CategoryTimeout
	case status >= 500:
		return CategoryUnavailable
	default:
		return CategoryUpstream
	}
}

// categorizeDoError classifies an error returned by http.Client.Do.
func categorizeDoError(ctx context.Context, err error) Category {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return CategoryTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return CategoryTimeout
	}
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return CategoryTimeout
	}
	return CategoryNetwork
}

// excerpt trims an upstream body for error messages.
func excerpt(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
