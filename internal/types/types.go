// Package types provides core domain types and validation utilities for the
// Sesame exporter. It defines DeviceName and DeviceUUID along with their
// validation logic and error definitions.
package types

import (
	"errors"
	"fmt"
	"regexp"
)

// DeviceName represents the operator-chosen name for a Sesame lock.
type DeviceName string

// DeviceUUID represents the vendor-assigned UUID of a Sesame lock.
type DeviceUUID string

// MetricKey represents a key in the vendor status payload that maps to a gauge.
type MetricKey string

var (
	// ErrInvalidDeviceName is returned when a device name is invalid.
	ErrInvalidDeviceName = errors.New("invalid device name")
	// ErrInvalidDeviceUUID is returned when a device UUID is invalid.
	ErrInvalidDeviceUUID = errors.New("invalid device UUID")

	deviceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9\-._ ]+$`)
	deviceUUIDRegex = regexp.MustCompile(`^[a-fA-F0-9\-]+$`)
)

// NewDeviceName creates a new DeviceName with validation.
func NewDeviceName(name string) (DeviceName, error) {
	if name == "" {
		return "", fmt.Errorf("device name cannot be empty")
	}
	if len(name) > 253 {
		return "", fmt.Errorf("device name too long: %d characters", len(name))
	}
	if !deviceNameRegex.MatchString(name) {
		return "", fmt.Errorf("invalid device name format: %s", name)
	}
	return DeviceName(name), nil
}

// IsValid checks if the DeviceName meets validation requirements.
func (d DeviceName) IsValid() bool {
	return len(d) > 0 && len(d) <= 253 && deviceNameRegex.MatchString(string(d))
}

func (d DeviceName) String() string {
	return string(d)
}

// NewDeviceUUID creates a new DeviceUUID with validation.
func NewDeviceUUID(uuid string) (DeviceUUID, error) {
	if uuid == "" {
		return "", fmt.Errorf("device UUID cannot be empty")
	}
	if len(uuid) > 64 {
		return "", fmt.Errorf("device UUID too long: %d characters", len(uuid))
	}
	if !deviceUUIDRegex.MatchString(uuid) {
		return "", fmt.Errorf("invalid device UUID format: %s", uuid)
	}
	return DeviceUUID(uuid), nil
}

// IsValid checks if the DeviceUUID meets validation requirements.
func (d DeviceUUID) IsValid() bool {
	return len(d) > 0 && len(d) <= 64 && deviceUUIDRegex.MatchString(string(d))
}

func (d DeviceUUID) String() string {
	return string(d)
}

func (m MetricKey) String() string {
	return string(m)
}
