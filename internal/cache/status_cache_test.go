package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ucdmkt/sesame-exporter/internal/types"
)

func testKey(name string) Key {
	return Key{
		Name:   types.DeviceName(name),
		UUID:   types.DeviceUUID("AAAAAAAA-0000-0000-0000-000000000001"),
		APIKey: "test-key",
	}
}

func TestStatusCache_CacheHit(t *testing.T) {
	callCount := 0
	fetch := func(ctx context.Context, name types.DeviceName, uuid types.DeviceUUID) (map[string]any, error) {
		callCount++
		return map[string]any{"batteryVoltage": 3.0}, nil
	}

	c := NewStatusCache(2*time.Hour, fetch)
	key := testKey("Door")

	payload, cached, err := c.GetOrFetch(context.Background(), key, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cached {
		t.Error("Expected first call to be a cache miss")
	}
	if payload["batteryVoltage"] != 3.0 {
		t.Errorf("Unexpected payload: %v", payload)
	}

	payload2, cached2, err := c.GetOrFetch(context.Background(), key, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cached2 {
		t.Error("Expected second call to be a cache hit")
	}
	if payload2["batteryVoltage"] != 3.0 {
		t.Errorf("Expected identical stored payload, got %v", payload2)
	}

	if callCount != 1 {
		t.Errorf("Expected fetch to run once, got %d", callCount)
	}
}

func TestStatusCache_TTLExpiry(t *testing.T) {
	callCount := 0
	fetch := func(ctx context.Context, name types.DeviceName, uuid types.DeviceUUID) (map[string]any, error) {
		callCount++
		return map[string]any{"batteryPercentage": 50.0}, nil
	}

	c := NewStatusCache(2*time.Hour, fetch)
	now := time.Now()
	c.now = func() time.Time { return now }

	key := testKey("Door")

	if _, _, err := c.GetOrFetch(context.Background(), key, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Advance past the TTL; the next call must re-invoke the fetch.
	now = now.Add(2*time.Hour + time.Second)

	_, cached, err := c.GetOrFetch(context.Background(), key, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cached {
		t.Error("Expected cache miss after TTL expiry")
	}
	if callCount != 2 {
		t.Errorf("Expected fetch to run twice, got %d", callCount)
	}
}

func TestStatusCache_Bypass(t *testing.T) {
	callCount := 0
	fetch := func(ctx context.Context, name types.DeviceName, uuid types.DeviceUUID) (map[string]any, error) {
		callCount++
		return map[string]any{}, nil
	}

	c := NewStatusCache(2*time.Hour, fetch)
	key := testKey("Door")

	if _, _, err := c.GetOrFetch(context.Background(), key, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, cached, err := c.GetOrFetch(context.Background(), key, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cached {
		t.Error("Expected bypass to force a fresh fetch")
	}
	if callCount != 2 {
		t.Errorf("Expected fetch to run twice, got %d", callCount)
	}
}

func TestStatusCache_FetchErrorNotCached(t *testing.T) {
	expectedErr := errors.New("api error")
	callCount := 0
	fetch := func(ctx context.Context, name types.DeviceName, uuid types.DeviceUUID) (map[string]any, error) {
		callCount++
		return nil, expectedErr
	}

	c := NewStatusCache(2*time.Hour, fetch)
	key := testKey("Door")

	_, cached, err := c.GetOrFetch(context.Background(), key, false)
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected error %v, got %v", expectedErr, err)
	}
	if cached {
		t.Error("Expected error response to not count as a hit")
	}

	// A failed fetch must not leave an entry behind.
	if _, _, err := c.GetOrFetch(context.Background(), key, false); !errors.Is(err, expectedErr) {
		t.Errorf("Expected error %v, got %v", expectedErr, err)
	}
	if callCount != 2 {
		t.Errorf("Expected fetch to run twice, got %d", callCount)
	}
}

func TestStatusCache_KeyIncludesCredential(t *testing.T) {
	callCount := 0
	fetch := func(ctx context.Context, name types.DeviceName, uuid types.DeviceUUID) (map[string]any, error) {
		callCount++
		return map[string]any{}, nil
	}

	c := NewStatusCache(2*time.Hour, fetch)

	key1 := testKey("Door")
	key2 := testKey("Door")
	key2.APIKey = "rotated-key"

	if _, _, err := c.GetOrFetch(context.Background(), key1, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, cached, err := c.GetOrFetch(context.Background(), key2, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cached {
		t.Error("Expected a different credential to miss the cache")
	}
	if callCount != 2 {
		t.Errorf("Expected fetch to run twice, got %d", callCount)
	}
}

func TestStatusCache_NoFetchFunction(t *testing.T) {
	c := NewStatusCache(2*time.Hour, nil)

	_, _, err := c.GetOrFetch(context.Background(), testKey("Door"), false)
	if err != ErrNoFetchFunction {
		t.Errorf("Expected ErrNoFetchFunction, got %v", err)
	}
}

func TestStatusCache_Clear(t *testing.T) {
	callCount := 0
	fetch := func(ctx context.Context, name types.DeviceName, uuid types.DeviceUUID) (map[string]any, error) {
		callCount++
		return map[string]any{}, nil
	}

	c := NewStatusCache(2*time.Hour, fetch)
	key := testKey("Door")

	if _, _, err := c.GetOrFetch(context.Background(), key, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	c.Clear()

	_, cached, err := c.GetOrFetch(context.Background(), key, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cached {
		t.Error("Expected cache miss after Clear")
	}
	if callCount != 2 {
		t.Errorf("Expected fetch to run twice, got %d", callCount)
	}
}
