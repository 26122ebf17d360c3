package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ucdmkt/sesame-exporter/internal/types"
)

// Metric keys as defined by the Sesame API's contract.
// See: https://document.candyhouse.co/demo/webapi-en#1get-the-status-of-sesame
const (
	KeyBatteryVoltage types.MetricKey = "batteryVoltage"
	KeyBatteryPercent types.MetricKey = "batteryPercentage"
)

// metricKeys maps payload keys to their exported gauges, in the order the
// reconciler visits them.
var metricKeys = []types.MetricKey{KeyBatteryVoltage, KeyBatteryPercent}

// GaugeTable is a thread-safe mapping from (metric key, device name) to
// the last successfully observed value. A cleared entry is removed from
// export entirely rather than left at a stale value. All mutations share
// one mutex; each Set or Clear call is its own critical section, never
// held across network calls or sleeps.
type GaugeTable struct {
	mu     sync.Mutex
	gauges map[types.MetricKey]*prometheus.GaugeVec
}

// NewGaugeTable creates a gauge table backed by the exported battery gauges.
func NewGaugeTable() *GaugeTable {
	return &GaugeTable{
		gauges: map[types.MetricKey]*prometheus.GaugeVec{
			KeyBatteryVoltage: BatteryVoltage,
			KeyBatteryPercent: BatteryPercent,
		},
	}
}

// Keys returns the metric keys the table exports, in reconciliation order.
func (t *GaugeTable) Keys() []types.MetricKey {
	return metricKeys
}

// Set upserts the gauge for (key, device).
func (t *GaugeTable) Set(key types.MetricKey, device types.DeviceName, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if g, ok := t.gauges[key]; ok {
		g.WithLabelValues(device.String()).Set(value)
	}
}

// Clear removes the exported series for (key, device) if present; it is a
// no-op otherwise.
func (t *GaugeTable) Clear(key types.MetricKey, device types.DeviceName) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if g, ok := t.gauges[key]; ok {
		g.DeleteLabelValues(device.String())
	}
}

// ClearDevice removes every metric key's series for the device.
func (t *GaugeTable) ClearDevice(device types.DeviceName) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, g := range t.gauges {
		g.DeleteLabelValues(device.String())
	}
}
