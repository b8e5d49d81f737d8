// Package cache stores court result pages keyed by (term, court, page marker).
//
// Entries expire lazily: a lookup older than the TTL is reported as a miss but
// the entry stays in storage until Clear. Only successful fetches are stored,
// so a court that failed is queried again on the next identical search.
package cache

import (
	"context"
	"fmt"

	"jurisearch/internal/search/models"
)

// Key identifies a cached court page.
type Key struct {
	Term  string
	Court string
	Page  int
}

// String renders the key as term_court_page.
func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%d", k.Term, k.Court, k.Page)
}

// PageMarker is 1 when a cursor was supplied and 0 otherwise. Distinct pages
// beyond the first therefore share a marker.
func PageMarker(cursor models.Cursor) int {
	if len(cursor) > 0 {
		return 1
	}
	return 0
}

// Stats lists what is in storage, stale entries included.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// Cache is the result cache used by the search service.
type Cache interface {
	// Get returns sentinel.ErrNotFound when the key is absent or stale.
	Get(ctx context.Context, key Key) (*models.CourtResult, error)
	Put(ctx context.Context, key Key, page *models.CourtResult) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}
