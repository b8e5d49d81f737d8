// Package app assembles the search service from configuration. The server and
// the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"jurisearch/internal/court"
	"jurisearch/internal/platform/config"
	platformredis "jurisearch/internal/platform/redis"
	"jurisearch/internal/search"
	"jurisearch/internal/search/cache"
	"jurisearch/internal/search/metrics"
	"jurisearch/internal/search/transport"
	"jurisearch/pkg/platform/circuit"
)

// App owns the service and the resources behind it.
type App struct {
	Service *search.Service
	Metrics *metrics.Metrics
	Redis   *platformredis.Client
}

// New builds the service. reg may be nil, in which case search metrics are
// not collected.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	client, err := NewTransport(cfg.DataJud, logger)
	if err != nil {
		return nil, err
	}

	a := &App{}
	c, err := a.newCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []search.Option{
		search.WithLogger(logger),
		search.WithPageSize(cfg.Search.PageSize),
		search.WithMaxConcurrency(cfg.Search.MaxConcurrency),
	}
	if reg != nil {
		a.Metrics = metrics.New(reg)
		opts = append(opts, search.WithMetrics(a.Metrics))
	}
	a.Service = search.New(court.Default(), client, c, opts...)
	return a, nil
}

// NewTransport picks the proxy client when a proxy URL is configured and the
// direct client otherwise. The direct client needs the API key. Either is
// wrapped in per-court circuit breakers unless the threshold is zero.
func NewTransport(cfg config.DataJudConfig, logger *slog.Logger) (transport.Client, error) {
	var client transport.Client
	switch {
	case cfg.ProxyURL != "":
		client = transport.NewProxyClient(cfg.ProxyURL, cfg.BaseURL, cfg.Timeout)
	case cfg.APIKey == "":
		return nil, errors.New("DATAJUD_API_KEY is required unless DATAJUD_PROXY_URL is set")
	default:
		client = transport.NewDirectClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout,
			transport.WithUserAgent(cfg.UserAgent))
	}
	if cfg.BreakerThreshold == 0 {
		return client, nil
	}
	return transport.NewBreakerClient(client, logger,
		circuit.WithFailureThreshold(cfg.BreakerThreshold),
		circuit.WithCooldown(cfg.BreakerCooldown),
	), nil
}

func (a *App) newCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (cache.Cache, error) {
	if cfg.Cache.Backend != config.CacheRedis {
		return cache.NewInMemoryCache(cfg.Cache.TTL), nil
	}
	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis cache: %w", err)
	}
	if rc == nil {
		return nil, errors.New("redis cache selected without REDIS_URL")
	}
	a.Redis = rc
	logger.Info("search cache backed by redis", "ttl", cfg.Cache.TTL.String())
	return cache.NewRedisCache(rc.Client, cfg.Cache.TTL), nil
}

// Close releases the redis connection, if any.
func (a *App) Close() error {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Close()
}
