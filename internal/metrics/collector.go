package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ucdmkt/sesame-exporter/internal/api"
	"github.com/ucdmkt/sesame-exporter/internal/cache"
	"github.com/ucdmkt/sesame-exporter/internal/config"
	"github.com/ucdmkt/sesame-exporter/internal/errors"
	"github.com/ucdmkt/sesame-exporter/pkg/device"
)

// Collector owns the API client, status cache, and gauge table shared by
// all device workers, and fans a reconciler out over every configured
// device once per polling cycle.
type Collector struct {
	cfg        config.Config
	devices    []device.Device
	apiClient  *api.Client
	reconciler *Reconciler
}

// NewCollector creates a new metrics collector with the given configuration.
func NewCollector(cfg config.Config, devices []device.Device) *Collector {
	client := api.NewClient(cfg.APIKey)
	statusCache := cache.NewStatusCache(cfg.CacheTTL, client.FetchStatus)
	table := NewGaugeTable()

	return &Collector{
		cfg:        cfg,
		devices:    devices,
		apiClient:  client,
		reconciler: NewReconciler(statusCache, table, cfg.APIKey, errors.DefaultRetryConfig()),
	}
}

// UpdateMetrics runs one full polling cycle: every device is reconciled
// concurrently and the call blocks until all of them reach a terminal
// state. A device giving up never aborts its siblings or the cycle; the
// only observable effect is the gauge table's state afterwards.
func (c *Collector) UpdateMetrics(ctx context.Context) {
	workers := c.cfg.MaxConcurrentDevices
	if workers <= 0 {
		workers = len(c.devices) + 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	var mu sync.Mutex
	gaveUp := 0

	for _, d := range c.devices {
		wg.Add(1)
		sem <- struct{}{}
		go func(dev device.Device) {
			defer wg.Done()
			defer func() { <-sem }()

			if outcome := c.reconciler.Reconcile(ctx, dev); outcome == OutcomeGaveUp {
				mu.Lock()
				gaveUp++
				mu.Unlock()
			}
		}(d)
	}

	wg.Wait()

	LastCycleTime.Set(float64(time.Now().Unix()))
	slog.Info("polling cycle completed", "devices", len(c.devices), "gave_up", gaveUp)
}

// Devices returns the configured device list.
func (c *Collector) Devices() []device.Device {
	return c.devices
}

// ComponentName identifies the collector for health checks.
func (c *Collector) ComponentName() string {
	return "sesame_api"
}

// CheckHealth verifies the vendor API answers for the first configured
// device. A 401 counts as reachable.
func (c *Collector) CheckHealth(ctx context.Context) error {
	if len(c.devices) == 0 {
		return nil
	}
	_, err := c.apiClient.TestConnectivity(ctx, c.devices[0].UUID)
	return err
}
