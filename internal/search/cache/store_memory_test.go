package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jurisearch/internal/search/models"
	"jurisearch/pkg/platform/sentinel"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "11144477735_trf1_0", Key{Term: "11144477735", Court: "trf1", Page: 0}.String())
	assert.Equal(t, 0, PageMarker(nil))
	assert.Equal(t, 1, PageMarker(models.Cursor{"a"}))
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	key := Key{Term: "11144477735", Court: "trf1"}
	page := &models.CourtResult{Alias: "trf1", Tribunal: "TRF1", TotalProcessos: 2}

	t.Run("miss on empty cache", func(t *testing.T) {
		c := NewInMemoryCache(5*time.Minute, WithClock(clock.Now))
		_, err := c.Get(ctx, key)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("hit within ttl", func(t *testing.T) {
		c := NewInMemoryCache(5*time.Minute, WithClock(clock.Now))
		require.NoError(t, c.Put(ctx, key, page))

		clock.Advance(4 * time.Minute)
		got, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 2, got.TotalProcessos)
	})

	t.Run("stale entry is a miss but stays stored", func(t *testing.T) {
		c := NewInMemoryCache(5*time.Minute, WithClock(clock.Now))
		require.NoError(t, c.Put(ctx, key, page))

		clock.Advance(5 * time.Minute)
		_, err := c.Get(ctx, key)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Size)
		assert.Equal(t, []string{"11144477735_trf1_0"}, stats.Keys)
	})

	t.Run("put refreshes insertion time", func(t *testing.T) {
		c := NewInMemoryCache(5*time.Minute, WithClock(clock.Now))
		require.NoError(t, c.Put(ctx, key, page))
		clock.Advance(10 * time.Minute)
		require.NoError(t, c.Put(ctx, key, page))

		_, err := c.Get(ctx, key)
		assert.NoError(t, err)
	})

	t.Run("returned page is a copy", func(t *testing.T) {
		c := NewInMemoryCache(5*time.Minute, WithClock(clock.Now))
		require.NoError(t, c.Put(ctx, key, page))

		got, err := c.Get(ctx, key)
		require.NoError(t, err)
		got.Cached = true

		again, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, again.Cached)
	})

	t.Run("nil page is ignored", func(t *testing.T) {
		c := NewInMemoryCache(5*time.Minute)
		require.NoError(t, c.Put(ctx, key, nil))
		stats, _ := c.Stats(ctx)
		assert.Zero(t, stats.Size)
	})

	t.Run("clear empties storage", func(t *testing.T) {
		c := NewInMemoryCache(5*time.Minute, WithClock(clock.Now))
		require.NoError(t, c.Put(ctx, key, page))
		require.NoError(t, c.Put(ctx, Key{Term: "x", Court: "stj", Page: 1}, page))

		require.NoError(t, c.Clear(ctx))
		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Size)
		assert.Empty(t, stats.Keys)
	})
}

func TestInMemoryCacheConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(time.Minute)

	var wg sync.WaitGroup
	for _, court := range []string{"trf1", "trf2", "trf3", "trf4", "trf5", "trf6", "stj", "stf", "tst", "tse"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := Key{Term: "t", Court: court}
			_ = c.Put(ctx, key, &models.CourtResult{Alias: court})
			_, _ = c.Get(ctx, key)
		}()
	}
	wg.Wait()

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Size)
}
