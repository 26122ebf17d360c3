package health

import (
	"context"
	"fmt"
	"testing"
)

type fakeComponent struct {
	name string
	err  error
}

func (f *fakeComponent) ComponentName() string {
	return f.name
}

func (f *fakeComponent) CheckHealth(ctx context.Context) error {
	return f.err
}

func TestLivenessCheck(t *testing.T) {
	hc := NewHealthChecker()
	if err := hc.LivenessCheck(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLivenessCheck_CancelledContext(t *testing.T) {
	hc := NewHealthChecker()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := hc.LivenessCheck(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestReadinessCheck_AllHealthy(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterComponent(&fakeComponent{name: "sesame_api"})

	if err := hc.ReadinessCheck(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestReadinessCheck_UnhealthyComponent(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterComponent(&fakeComponent{name: "sesame_api", err: fmt.Errorf("unreachable")})

	if err := hc.ReadinessCheck(context.Background()); err == nil {
		t.Error("Expected error for unhealthy component")
	}
}

func TestGetHealthStatus(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterComponent(&fakeComponent{name: "healthy_component"})
	hc.RegisterComponent(&fakeComponent{name: "broken_component", err: fmt.Errorf("boom")})

	status := hc.GetHealthStatus(context.Background())

	if status.Overall != StatusUnhealthy {
		t.Errorf("Expected overall unhealthy, got %s", status.Overall)
	}
	if status.Checks["healthy_component"].Status != StatusHealthy {
		t.Errorf("Expected healthy_component healthy, got %s", status.Checks["healthy_component"].Status)
	}
	if status.Checks["broken_component"].Status != StatusUnhealthy {
		t.Errorf("Expected broken_component unhealthy, got %s", status.Checks["broken_component"].Status)
	}
	if status.Checks["broken_component"].Message != "boom" {
		t.Errorf("Expected error message in check result, got %q", status.Checks["broken_component"].Message)
	}
}

func TestDetermineHTTPStatus(t *testing.T) {
	if got := DetermineHTTPStatus(StatusHealthy); got != 200 {
		t.Errorf("Expected 200 for healthy, got %d", got)
	}
	if got := DetermineHTTPStatus(StatusDegraded); got != 200 {
		t.Errorf("Expected 200 for degraded, got %d", got)
	}
	if got := DetermineHTTPStatus(StatusUnhealthy); got != 503 {
		t.Errorf("Expected 503 for unhealthy, got %d", got)
	}
}
