package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jurisearch/internal/platform/config"
	"jurisearch/internal/platform/httpserver"
	"jurisearch/internal/platform/logger"
	"jurisearch/internal/platform/metrics"
	"jurisearch/internal/proxy"
	"jurisearch/internal/ratelimit"
	rlmetrics "jurisearch/internal/ratelimit/metrics"
)

// main runs the credential proxy: the only process that holds the DataJud key.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	h, err := proxy.New(proxy.Config{
		BaseURL:   cfg.DataJud.BaseURL,
		APIKey:    cfg.DataJud.APIKey,
		UserAgent: cfg.DataJud.UserAgent,
		Timeout:   cfg.DataJud.Timeout,
	}, log)
	if err != nil {
		log.Error("invalid proxy configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := ratelimit.NewStore(cfg.Proxy.RateRPS, cfg.Proxy.RateBurst)
	go store.Run(ctx)
	limiter := ratelimit.New(store, log,
		ratelimit.WithDisabled(cfg.Proxy.RateRPS <= 0),
		ratelimit.WithMetrics(rlmetrics.New(reg, "jurisearch_proxy")),
		ratelimit.WithRejectFunc(proxy.RejectRateLimited),
	)

	r := proxy.NewRouter(h, limiter, log, metrics.New(reg, "jurisearch_proxy"))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := httpserver.New(cfg.Proxy.Addr, r, cfg.DataJud.Timeout+5*time.Second)

	log.Info("starting datajud proxy",
		"addr", cfg.Proxy.Addr,
		"upstream", cfg.DataJud.BaseURL,
		"rate_rps", cfg.Proxy.RateRPS,
		"rate_burst", cfg.Proxy.RateBurst,
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
