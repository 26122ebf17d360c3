// Package errors provides error types and retry policy utilities for the
// Sesame exporter.
package errors

import (
	"fmt"
	"time"
)

// FetchError represents a transport, HTTP status, or decode failure while
// fetching the status of a single device from the vendor API.
type FetchError struct {
	DeviceName string
	Underlying error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch status for %s: %v", e.DeviceName, e.Underlying)
}

func (e *FetchError) Unwrap() error {
	return e.Underlying
}

// UpstreamError represents a payload that explicitly marks itself as
// unsuccessful via the vendor's undocumented success:false convention.
type UpstreamError struct {
	DeviceName string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream reported failure for %s", e.DeviceName)
}

// MissingMetricError represents a well-formed payload that omits one or
// more expected metric keys.
type MissingMetricError struct {
	DeviceName  string
	MissingKeys []string
}

func (e *MissingMetricError) Error() string {
	return fmt.Sprintf("payload for %s missing metric keys: %v", e.DeviceName, e.MissingKeys)
}

// ConfigurationError represents an error in configuration validation.
// Configuration errors are the only fatal errors in the exporter and are
// surfaced at startup.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in field %s (value: %s): %s", e.Field, e.Value, e.Reason)
}

// RetryConfig configures the exponential backoff policy applied by the
// per-device reconciler.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  int
}

// DefaultRetryConfig returns the retry policy used against the vendor API.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 8,
		BaseDelay:   60 * time.Second,
		Multiplier:  2,
	}
}

// Delay returns the backoff delay for the given 1-indexed attempt:
// BaseDelay * Multiplier^(attempt-1). The delay grows unboundedly; the
// only ceiling is MaxAttempts.
func (rc RetryConfig) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return rc.BaseDelay
	}

	delay := rc.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(rc.Multiplier)
	}
	return delay
}
