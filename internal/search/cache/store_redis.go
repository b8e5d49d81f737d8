package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"jurisearch/internal/search/models"
	"jurisearch/pkg/platform/sentinel"
)

const defaultRedisPrefix = "jurisearch:page:"

type redisEntry struct {
	Page       models.CourtResult `json:"page"`
	InsertedAt time.Time          `json:"inserted_at"`
}

// RedisCache stores pages in Redis under a key prefix. Freshness is checked on
// read against inserted_at, matching InMemoryCache; keys carry no Redis TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithPrefix namespaces keys, so several deployments can share one Redis.
func WithPrefix(prefix string) RedisOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// WithRedisClock replaces time.Now, for tests.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(c *RedisCache) {
		c.now = now
	}
}

// NewRedisCache wraps client.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, opts ...RedisOption) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: defaultRedisPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) redisKey(key Key) string {
	return c.prefix + key.String()
}

func (c *RedisCache) Get(ctx context.Context, key Key) (*models.CourtResult, error) {
	raw, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cached page %s: %w", key, err)
	}
	if c.now().Sub(entry.InsertedAt) >= c.ttl {
		return nil, sentinel.ErrNotFound
	}
	return &entry.Page, nil
}

func (c *RedisCache) Put(ctx context.Context, key Key, page *models.CourtResult) error {
	if page == nil {
		return nil
	}
	raw, err := json.Marshal(redisEntry{Page: *page, InsertedAt: c.now()})
	if err != nil {
		return fmt.Errorf("encode page %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.redisKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	keys, err := c.scan(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *RedisCache) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.scan(ctx)
	if err != nil {
		return Stats{}, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, c.prefix))
	}
	sort.Strings(out)
	return Stats{Size: len(out), Keys: out}, nil
}

func (c *RedisCache) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
