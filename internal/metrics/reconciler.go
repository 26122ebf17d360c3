package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/ucdmkt/sesame-exporter/internal/cache"
	"github.com/ucdmkt/sesame-exporter/internal/errors"
	"github.com/ucdmkt/sesame-exporter/pkg/device"
)

// Outcome is the terminal state of one device reconciliation.
type Outcome int

const (
	// OutcomeSuccess means every gauge reflects the most recent payload,
	// or a cache hit proved nothing changed since the prior cycle.
	OutcomeSuccess Outcome = iota
	// OutcomeGaveUp means the attempt ceiling was exhausted without a
	// fully successful update.
	OutcomeGaveUp
)

// Reconciler runs the per-device fetch/retry/backoff state machine and
// keeps the gauge table consistent with the vendor's answers. One
// reconciliation runs per device per polling cycle, independently of and
// concurrently with other devices.
type Reconciler struct {
	cache  *cache.StatusCache
	table  *GaugeTable
	apiKey string
	retry  errors.RetryConfig

	sleep func(time.Duration)
}

// NewReconciler creates a reconciler over the shared cache and gauge table.
func NewReconciler(statusCache *cache.StatusCache, table *GaugeTable, apiKey string, retry errors.RetryConfig) *Reconciler {
	return &Reconciler{
		cache:  statusCache,
		table:  table,
		apiKey: apiKey,
		retry:  retry,
		sleep:  time.Sleep,
	}
}

// Reconcile brings the gauge table up to date for one device. A cache hit
// terminates immediately with zero gauge writes. Any failure clears the
// affected gauges, sleeps the backoff delay for the current attempt, and
// retries with the cache bypassed, up to the attempt ceiling. Exhausting
// the ceiling is logged and reported in the outcome but never raised: one
// device giving up must not affect its siblings.
func (r *Reconciler) Reconcile(ctx context.Context, dev device.Device) Outcome {
	start := time.Now()
	defer func() {
		ReconcileDuration.WithLabelValues(dev.Name.String()).Observe(time.Since(start).Seconds())
	}()

	key := cache.Key{Name: dev.Name, UUID: dev.UUID, APIKey: r.apiKey}

	attempt := 1
	bypass := false

	for attempt <= r.retry.MaxAttempts {
		payload, cached, err := r.cache.GetOrFetch(ctx, key, bypass)
		if err != nil {
			slog.Error("failed to fetch status", "device", dev.Name.String(), "error", err)
			r.table.ClearDevice(dev.Name)
			r.backoff(dev, &attempt, "fetch_failed")
			bypass = true
			continue
		}

		if cached {
			// Nothing new happened; gauges already hold the values from
			// the prior successful cycle.
			return OutcomeSuccess
		}

		slog.Info("fetched new status", "device", dev.Name.String(), "payload", payload)

		// Undocumented API response on failure
		if v, ok := payload["success"]; ok {
			if success, isBool := v.(bool); isBool && !success {
				upErr := &errors.UpstreamError{DeviceName: dev.Name.String()}
				slog.Error("upstream reported failure", "error", upErr, "payload", payload)
				r.table.ClearDevice(dev.Name)
				r.backoff(dev, &attempt, "upstream_failure")
				bypass = true
				continue
			}
		}

		var missing []string
		for _, metricKey := range r.table.Keys() {
			value, ok := numericValue(payload[metricKey.String()])
			if !ok {
				slog.Warn("metric key missing from payload", "device", dev.Name.String(), "key", metricKey.String())
				r.table.Clear(metricKey, dev.Name)
				missing = append(missing, metricKey.String())
				continue
			}

			r.table.Set(metricKey, dev.Name, value)
			slog.Info("updated metric", "device", dev.Name.String(), "key", metricKey.String(), "value", value)
		}

		if len(missing) == 0 {
			return OutcomeSuccess
		}

		missErr := &errors.MissingMetricError{DeviceName: dev.Name.String(), MissingKeys: missing}
		slog.Error("failed to update some metrics", "error", missErr)
		r.backoff(dev, &attempt, "missing_metrics")
		bypass = true
	}

	slog.Error("giving up on device after exhausting retries",
		"device", dev.Name.String(), "max_attempts", r.retry.MaxAttempts)
	DeviceErrors.WithLabelValues(dev.Name.String(), "gave_up").Inc()
	return OutcomeGaveUp
}

// backoff sleeps the delay for the current attempt and advances the
// attempt counter. The delay is computed from the attempt number, not
// elapsed time, and runs even on the final attempt.
func (r *Reconciler) backoff(dev device.Device, attempt *int, reason string) {
	delay := r.retry.Delay(*attempt)
	slog.Info("retrying device",
		"device", dev.Name.String(),
		"delay", delay,
		"attempt", *attempt,
		"max_attempts", r.retry.MaxAttempts)
	RetryAttempts.WithLabelValues(dev.Name.String(), reason).Inc()
	r.sleep(delay)
	*attempt++
}

// numericValue extracts a float from a decoded JSON payload value. A
// missing or non-numeric value is treated the same as an absent key.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
