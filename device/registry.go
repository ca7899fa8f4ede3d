package device

import (
	"errors"
	"fmt"
)

// MaxDevices is the maximum number of devices that can be attached to the
// machine. It is not a hardware limitation, it only bounds the footprint of
// the registry.
const MaxDevices = 32

var (
	// ErrTooManyDevices is returned when registering more than MaxDevices.
	ErrTooManyDevices = errors.New("too many devices")

	// ErrDuplicateName is returned when two devices share a name.
	ErrDuplicateName = errors.New("device name already registered")
)

// Registry owns the device instances of a machine. Address space slots only
// refer to devices by their Index.
type Registry struct {
	devices []Device
	names   map[string]Index
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make([]Device, 0, MaxDevices),
		names:   make(map[string]Index),
	}
}

// Register adds a device and returns its index.
func (r *Registry) Register(d Device) (Index, error) {
	if len(r.devices) >= MaxDevices {
		return NoDevice, fmt.Errorf("registering %s: %w", d.Name(),
			ErrTooManyDevices)
	}

	if _, found := r.names[d.Name()]; found {
		return NoDevice, fmt.Errorf("registering %s: %w", d.Name(),
			ErrDuplicateName)
	}

	idx := Index(len(r.devices))
	r.devices = append(r.devices, d)
	r.names[d.Name()] = idx

	return idx, nil
}

// Get returns the device at an index, or nil if the index is not
// registered.
func (r *Registry) Get(idx Index) Device {
	if int(idx) >= len(r.devices) {
		return nil
	}

	return r.devices[idx]
}

// Lookup finds a device by name.
func (r *Registry) Lookup(name string) (Device, Index, bool) {
	idx, found := r.names[name]
	if !found {
		return nil, NoDevice, false
	}

	return r.devices[idx], idx, true
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// Devices returns the registered devices, in registration order.
func (r *Registry) Devices() []Device {
	devices := make([]Device, len(r.devices))
	copy(devices, r.devices)

	return devices
}
