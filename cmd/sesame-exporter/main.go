// Package main provides the Sesame exporter application entry point.
// The exporter polls the Sesame web API for lock battery telemetry and
// exposes it as Prometheus metrics.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ucdmkt/sesame-exporter/internal/config"
	"github.com/ucdmkt/sesame-exporter/internal/metrics"
	"github.com/ucdmkt/sesame-exporter/internal/server"
	"github.com/ucdmkt/sesame-exporter/pkg/device"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func setupLogger(cfg config.Config) {
	var handler slog.Handler
	level := slog.LevelInfo

	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		slog.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	devices, err := device.FromMap(cfg.Devices)
	if err != nil {
		slog.Error("invalid device configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("starting sesame-exporter",
		"version", version,
		"build_time", buildTime,
		"devices", len(devices),
		"once", cfg.Once,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(cfg, devices)

	if cfg.Once {
		collector.UpdateMetrics(ctx)
		return
	}

	slog.Info("starting metrics server", "port", cfg.Port, "poll_interval", cfg.PollInterval)
	if err := server.RunStandalone(ctx, cfg, collector); err != nil {
		slog.Error("shutdown with error", "error", err)
		return
	}
	slog.Info("shutdown complete")
}
