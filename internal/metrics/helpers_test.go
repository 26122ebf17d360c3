package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// gaugeValue reads the current value of the series labeled with device
// from a gauge vec without creating the series as a side effect.
func gaugeValue(t *testing.T, vec *prometheus.GaugeVec, device string) (float64, bool) {
	t.Helper()

	ch := make(chan prometheus.Metric, 64)
	go func() {
		vec.Collect(ch)
		close(ch)
	}()

	for m := range ch {
		var metric dto.Metric
		if err := m.Write(&metric); err != nil {
			t.Fatalf("Failed to read metric: %v", err)
		}
		for _, label := range metric.GetLabel() {
			if label.GetName() == "device" && label.GetValue() == device {
				return metric.GetGauge().GetValue(), true
			}
		}
	}

	return 0, false
}

func requireGauge(t *testing.T, vec *prometheus.GaugeVec, device string, want float64) {
	t.Helper()

	got, ok := gaugeValue(t, vec, device)
	if !ok {
		t.Fatalf("Expected gauge series for device %q to exist", device)
	}
	if got != want {
		t.Errorf("Expected gauge for %q to be %v, got %v", device, want, got)
	}
}

func requireNoGauge(t *testing.T, vec *prometheus.GaugeVec, device string) {
	t.Helper()

	if v, ok := gaugeValue(t, vec, device); ok {
		t.Errorf("Expected no gauge series for device %q, found value %v", device, v)
	}
}
