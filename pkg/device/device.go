// Package device provides types and utilities for Sesame lock representation.
package device

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ucdmkt/sesame-exporter/internal/types"
)

// Device represents one physical Sesame lock, identified by an
// operator-chosen name and the vendor-assigned UUID. Devices are loaded
// from configuration at startup and are immutable afterwards.
type Device struct {
	Name types.DeviceName `json:"name"`
	UUID types.DeviceUUID `json:"uuid"`
}

// Validate checks if the device has valid required fields.
func (d Device) Validate() error {
	if !d.Name.IsValid() {
		return types.ErrInvalidDeviceName
	}
	if !d.UUID.IsValid() {
		return types.ErrInvalidDeviceUUID
	}
	return nil
}

// ParseAssignment parses a "Name=UUID" command line assignment.
func ParseAssignment(s string) (Device, error) {
	name, uuid, ok := strings.Cut(s, "=")
	if !ok {
		return Device{}, fmt.Errorf("invalid device assignment %q: expected Name=UUID", s)
	}

	deviceName, err := types.NewDeviceName(name)
	if err != nil {
		return Device{}, fmt.Errorf("invalid device assignment %q: %w", s, err)
	}

	deviceUUID, err := types.NewDeviceUUID(uuid)
	if err != nil {
		return Device{}, fmt.Errorf("invalid device assignment %q: %w", s, err)
	}

	return Device{Name: deviceName, UUID: deviceUUID}, nil
}

// FromMap converts a name to UUID mapping into a device list sorted by name.
func FromMap(uuids map[string]string) ([]Device, error) {
	devices := make([]Device, 0, len(uuids))
	for name, uuid := range uuids {
		deviceName, err := types.NewDeviceName(name)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", name, err)
		}
		deviceUUID, err := types.NewDeviceUUID(uuid)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", name, err)
		}
		devices = append(devices, Device{Name: deviceName, UUID: deviceUUID})
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Name < devices[j].Name
	})

	return devices, nil
}
