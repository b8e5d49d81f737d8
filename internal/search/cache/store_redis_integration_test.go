//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"jurisearch/internal/search/cache"
	"jurisearch/internal/search/models"
	"jurisearch/pkg/platform/sentinel"
	"jurisearch/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	now   time.Time
	cache *cache.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = cache.NewRedisCache(s.redis.Client, 5*time.Minute,
		cache.WithPrefix("test:"),
		cache.WithRedisClock(func() time.Time { return s.now }),
	)
}

func (s *RedisCacheSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	key := cache.Key{Term: "11144477735", Court: "stj"}
	page := &models.CourtResult{
		Alias:           "stj",
		Tribunal:        "Superior Tribunal de Justiça",
		TotalProcessos:  1,
		Processos:       []models.Process{{NumeroProcesso: "00012345620234013400", Tribunal: "stj"}},
		HasMore:         false,
		NextSearchAfter: models.Cursor{float64(1700000000000), 2.5, "abc"},
	}

	s.Require().NoError(s.cache.Put(ctx, key, page))

	found, err := s.cache.Get(ctx, key)
	s.Require().NoError(err)
	s.Equal(page.Tribunal, found.Tribunal)
	s.Equal(page.Processos, found.Processos)
	s.Equal(page.NextSearchAfter, found.NextSearchAfter)
}

func (s *RedisCacheSuite) TestStaleEntryIsMissButListed() {
	ctx := context.Background()
	key := cache.Key{Term: "t", Court: "trf1"}
	s.Require().NoError(s.cache.Put(ctx, key, &models.CourtResult{Alias: "trf1"}))

	s.now = s.now.Add(6 * time.Minute)
	_, err := s.cache.Get(ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)

	stats, err := s.cache.Stats(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"t_trf1_0"}, stats.Keys)
}

func (s *RedisCacheSuite) TestClearOnlyTouchesPrefix() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.Set(ctx, "other:key", "v", 0).Err())
	s.Require().NoError(s.cache.Put(ctx, cache.Key{Term: "t", Court: "trf1"}, &models.CourtResult{}))
	s.Require().NoError(s.cache.Put(ctx, cache.Key{Term: "t", Court: "trf2", Page: 1}, &models.CourtResult{}))

	s.Require().NoError(s.cache.Clear(ctx))

	stats, err := s.cache.Stats(ctx)
	s.Require().NoError(err)
	s.Zero(stats.Size)

	v, err := s.redis.Client.Get(ctx, "other:key").Result()
	s.Require().NoError(err)
	s.Equal("v", v)
}

func (s *RedisCacheSuite) TestMissReturnsErrNotFound() {
	_, err := s.cache.Get(context.Background(), cache.Key{Term: "missing", Court: "tse"})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
