// Package device defines how the Zeal fabric talks to the components
// attached to its address spaces.
//
// Every component is polymorphic over a single byte read and write. Memory
// mapped devices are addressed by the offset relative to the first page
// they occupy. I/O mapped devices are addressed by the absolute port number,
// since the granularity of the I/O space is a single port. Accesses are
// synchronous; nothing is buffered, cached or queued.
package device

import "github.com/sarchlab/zealfabric/sim"

// Device is a component that can be attached to the memory or I/O space.
type Device interface {
	sim.Named

	// Read returns the byte at the given offset or port.
	Read(offset uint32) uint8

	// Write stores a byte at the given offset or port.
	Write(offset uint32, value uint8)
}

// Resetter is implemented by devices that react to a machine reset.
type Resetter interface {
	Reset()
}

// Index identifies a device in a Registry.
type Index uint8

// NoDevice is the index of unbound slots.
const NoDevice Index = 0xFF
