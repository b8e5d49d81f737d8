package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"jurisearch/internal/search/models"
	"jurisearch/pkg/platform/sentinel"
)

type cachedPage struct {
	page       models.CourtResult
	insertedAt time.Time
}

// InMemoryCache keeps pages in a map guarded by a RWMutex. It is scoped to one
// running instance.
type InMemoryCache struct {
	mu    sync.RWMutex
	pages map[string]cachedPage
	ttl   time.Duration
	now   func() time.Time
}

// Option configures an InMemoryCache.
type Option func(*InMemoryCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *InMemoryCache) {
		c.now = now
	}
}

// NewInMemoryCache creates an empty cache with the given TTL.
func NewInMemoryCache(ttl time.Duration, opts ...Option) *InMemoryCache {
	c := &InMemoryCache{
		pages: make(map[string]cachedPage),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of a fresh page.
func (c *InMemoryCache) Get(_ context.Context, key Key) (*models.CourtResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.pages[key.String()]
	if !ok || c.now().Sub(cached.insertedAt) >= c.ttl {
		return nil, sentinel.ErrNotFound
	}
	page := cached.page
	return &page, nil
}

// Put stores page under key, replacing any previous entry. A nil page is a no-op.
func (c *InMemoryCache) Put(_ context.Context, key Key, page *models.CourtResult) error {
	if page == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key.String()] = cachedPage{page: *page, insertedAt: c.now()}
	return nil
}

// Clear drops every entry.
func (c *InMemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = make(map[string]cachedPage)
	return nil
}

// Stats reports stored keys in sorted order.
func (c *InMemoryCache) Stats(_ context.Context) (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.pages))
	for k := range c.pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Stats{Size: len(keys), Keys: keys}, nil
}
