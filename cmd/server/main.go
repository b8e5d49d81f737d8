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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jurisearch/internal/app"
	"jurisearch/internal/platform/config"
	"jurisearch/internal/platform/httpserver"
	"jurisearch/internal/platform/logger"
	"jurisearch/internal/platform/metrics"
	"jurisearch/internal/search/handler"
	"jurisearch/pkg/platform/httputil"
)

// main wires the search service behind the HTTP API and keeps the server
// lifecycle small. Business logic lives in internal/search.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := app.New(ctx, cfg, log, reg)
	if err != nil {
		log.Error("failed to build search service", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// A fan-out waits for the slowest court, so the request budget sits above
	// the backend timeout.
	requestTimeout := cfg.DataJud.Timeout + 5*time.Second

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if a.Redis != nil {
			if err := a.Redis.Health(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	handler.New(a.Service, log, metrics.New(reg, "jurisearch"), requestTimeout).Register(r)

	srv := httpserver.New(cfg.Addr, r, requestTimeout+5*time.Second)

	log.Info("starting jurisearch",
		"addr", cfg.Addr,
		"cache_backend", cfg.Cache.Backend,
		"via_proxy", cfg.DataJud.ProxyURL != "",
		"courts", len(a.Service.Courts()),
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
