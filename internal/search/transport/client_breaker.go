package transport

import (
	"context"
	"log/slog"
	"sync"

	"jurisearch/internal/search/query"
	"jurisearch/pkg/platform/circuit"
	"jurisearch/pkg/platform/sentinel"
)

// BreakerClient keeps one circuit per endpoint so a court that keeps timing
// out stops costing a full timeout on every search.
type BreakerClient struct {
	next   Client
	logger *slog.Logger
	opts   []circuit.Option

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

// NewBreakerClient wraps next. opts configure every per-endpoint breaker.
func NewBreakerClient(next Client, logger *slog.Logger, opts ...circuit.Option) *BreakerClient {
	return &BreakerClient{
		next:     next,
		logger:   logger,
		opts:     opts,
		breakers: make(map[string]*circuit.Breaker),
	}
}

func (b *BreakerClient) Search(ctx context.Context, endpoint string, q query.Query) (*SearchResponse, error) {
	br := b.breaker(endpoint)
	if !br.Allow() {
		return nil, NewError(CategoryUnavailable, endpoint, "skipped after repeated failures", sentinel.ErrUnavailable)
	}

	resp, err := b.next.Search(ctx, endpoint, q)
	switch {
	case err == nil:
		if br.RecordSuccess().Closed {
			b.logger.InfoContext(ctx, "court circuit closed", "endpoint", endpoint)
		}
	case trips(err):
		if br.RecordFailure().Opened {
			b.logger.WarnContext(ctx, "court circuit opened",
				"endpoint", endpoint,
				"category", string(CategoryOf(err)),
			)
		}
	}
	return resp, err
}

// State reports the circuit state for endpoint.
func (b *BreakerClient) State(endpoint string) circuit.State {
	return b.breaker(endpoint).State()
}

func (b *BreakerClient) breaker(endpoint string) *circuit.Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	br, ok := b.breakers[endpoint]
	if !ok {
		br = circuit.New(endpoint, b.opts...)
		b.breakers[endpoint] = br
	}
	return br
}

// trips reports whether err says the endpoint itself is unhealthy. Credential
// and request problems do not count.
func trips(err error) bool {
	switch CategoryOf(err) {
	case CategoryUnavailable, CategoryTimeout, CategoryNetwork:
		return true
	}
	return false
}
