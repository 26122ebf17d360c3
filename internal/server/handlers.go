package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ucdmkt/sesame-exporter/internal/health"
)

var (
	healthChecker   *health.HealthChecker
	healthCheckerMu sync.RWMutex
)

// SetHealthChecker sets the health checker used by the handlers.
func SetHealthChecker(hc *health.HealthChecker) {
	healthCheckerMu.Lock()
	defer healthCheckerMu.Unlock()
	healthChecker = hc
}

func getHealthChecker() *health.HealthChecker {
	healthCheckerMu.RLock()
	defer healthCheckerMu.RUnlock()
	return healthChecker
}

// LivenessHandler provides the liveness probe endpoint.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	hc := getHealthChecker()
	if hc == nil {
		writeJSON(w, http.StatusOK, `{"status":"ok"}`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := hc.LivenessCheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, `{"status":"unhealthy","error":"`+err.Error()+`"}`)
		return
	}

	writeJSON(w, http.StatusOK, `{"status":"ok"}`)
}

// ReadinessHandler provides the readiness probe endpoint.
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hc := getHealthChecker()
	if hc == nil {
		writeJSON(w, http.StatusOK, `{"status":"not configured"}`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := hc.ReadinessCheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, `{"status":"not ready","error":"`+err.Error()+`"}`)
		return
	}

	writeJSON(w, http.StatusOK, `{"status":"ready"}`)
}

// DetailedHealthHandler reports per-component health as JSON.
func DetailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	hc := getHealthChecker()
	if hc == nil {
		writeJSON(w, http.StatusServiceUnavailable, `{"status":"not configured"}`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	status := hc.GetHealthStatus(ctx)
	health.WriteHealthResponse(w, status, health.DetermineHTTPStatus(status.Overall))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
