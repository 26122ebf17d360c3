// Package server provides HTTP server functionality for the Sesame exporter.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ucdmkt/sesame-exporter/internal/config"
	"github.com/ucdmkt/sesame-exporter/internal/health"
	"github.com/ucdmkt/sesame-exporter/internal/metrics"
)

// createHTTPServer creates a configured HTTP server with standard timeouts.
func createHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// SetupRoutes configures and returns the main HTTP router with metrics
// and health endpoints.
func SetupRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", DetailedHealthHandler)
	mux.HandleFunc("/livez", LivenessHandler)
	mux.HandleFunc("/readyz", ReadinessHandler)

	return securityHeadersMiddleware(mux)
}

// securityHeadersMiddleware sets conservative response headers on every route.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// initializeHealthChecker registers the collector with a fresh health checker.
func initializeHealthChecker(collector *metrics.Collector) {
	hc := health.NewHealthChecker()
	hc.RegisterComponent(collector)
	SetHealthChecker(hc)
}

// RunStandalone starts the HTTP server and background poller and blocks
// until the context is cancelled.
func RunStandalone(ctx context.Context, cfg config.Config, collector *metrics.Collector) error {
	env := strings.ToLower(os.Getenv("ENV"))
	host := "127.0.0.1"
	if env == "production" || env == "prod" {
		host = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%s", host, cfg.Port)

	srv := createHTTPServer(addr, SetupRoutes())

	initializeHealthChecker(collector)
	StartBackgroundPoller(ctx, cfg, collector)

	slog.Info("server ready", "bind", addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// StartBackgroundPoller runs polling cycles on the configured interval
// until the context is cancelled. Cycles never overlap: a tick fires
// only after the previous UpdateMetrics call has returned, and every
// cycle runs all devices to a terminal state.
func StartBackgroundPoller(ctx context.Context, cfg config.Config, collector *metrics.Collector) {
	go func() {
		collector.UpdateMetrics(ctx)

		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collector.UpdateMetrics(ctx)
			}
		}
	}()
}
