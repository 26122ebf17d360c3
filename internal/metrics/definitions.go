// Package metrics provides Prometheus metrics definitions and the
// per-device reconciliation pipeline for the Sesame exporter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatteryVoltage exposes the last observed battery voltage per device.
	BatteryVoltage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sesame_battery_voltage",
			Help: "Battery Voltage",
		},
		[]string{"device"},
	)

	// BatteryPercent exposes the last observed battery percentage per device.
	BatteryPercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sesame_battery_percent",
			Help: "Battery Percentage",
		},
		[]string{"device"},
	)

	// ReconcileDuration tracks the time spent reconciling one device,
	// including backoff sleeps.
	ReconcileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sesame_exporter_reconcile_duration_seconds",
			Help:    "Time spent reconciling a device",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"device"},
	)

	// RetryAttempts tracks backoff retries by device and reason.
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sesame_exporter_retry_attempts_total",
			Help: "Number of retry attempts",
		},
		[]string{"device", "reason"},
	)

	// DeviceErrors tracks terminal per-device failures.
	DeviceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sesame_exporter_device_errors_total",
			Help: "Device errors by type and device",
		},
		[]string{"device", "error_type"},
	)

	// LastCycleTime records the Unix timestamp of the last completed
	// polling cycle.
	LastCycleTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sesame_exporter_last_cycle_timestamp_seconds",
			Help: "Unix timestamp of last completed polling cycle",
		},
	)
)
