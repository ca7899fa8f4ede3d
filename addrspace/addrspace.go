// Package addrspace partitions the physical memory space and the I/O space of
// the Zeal fabric into slots, and routes every access to the device that owns
// the slot.
//
// The memory space is 4 MiB, split in 256 pages of 16 KiB. The I/O space has
// 256 ports of one byte each. A device can claim several contiguous pages, or
// several contiguous ports, but a slot belongs to at most one device.
// Binding a region that overlaps a bound slot is rejected.
//
// Addresses beyond 4 MiB are masked to 22 bits, so the memory space wraps
// around. Unbound slots read as IdleValue and ignore writes.
package addrspace

import (
	"errors"
	"fmt"

	"github.com/sarchlab/zealfabric/device"
	"github.com/sarchlab/zealfabric/mem"
)

// Space selects the memory or the I/O address space.
type Space int

// The two address spaces of the machine.
const (
	MemorySpace Space = iota
	IOSpace
)

func (s Space) String() string {
	switch s {
	case MemorySpace:
		return "mem"
	case IOSpace:
		return "io"
	default:
		return fmt.Sprintf("Space(%d)", int(s))
	}
}

// IdleValue is what the data bus reads when no device drives it.
const IdleValue uint8 = 0xFF

var (
	// ErrMisaligned is returned when a memory region does not start or end
	// on a page boundary.
	ErrMisaligned = errors.New("region is not page aligned")

	// ErrOutOfRange is returned when a region does not fit in its space.
	ErrOutOfRange = errors.New("region is out of the address space")

	// ErrOverlap is returned when a region overlaps a bound slot.
	ErrOverlap = errors.New("region overlaps a bound slot")

	// ErrUnknownDevice is returned when binding an index that is not in the
	// registry.
	ErrUnknownDevice = errors.New("device is not registered")
)

// A MapEntry describes a slot of an address space. Device is the registry
// index of the owner, and PageFrom is the first page (or port) of the region
// the owner was bound on.
type MapEntry struct {
	Device   device.Index
	PageFrom int
}

// Bound tells if a device owns the slot.
func (e MapEntry) Bound() bool {
	return e.Device != device.NoDevice
}

var unbound = MapEntry{Device: device.NoDevice}

// Map is the address space map of a machine. It refers to the devices by
// their index in the registry and never owns them.
type Map struct {
	registry *device.Registry

	memMapping [mem.NumPages]MapEntry
	ioMapping  [mem.IOSpaceSize]MapEntry
}

// NewMap creates a map in which every slot is unbound.
func NewMap(registry *device.Registry) *Map {
	m := &Map{registry: registry}

	for i := range m.memMapping {
		m.memMapping[i] = unbound
	}

	for i := range m.ioMapping {
		m.ioMapping[i] = unbound
	}

	return m
}

// BindMemory binds the device to the memory region [addr, addr+size). Both
// addr and size must be multiples of the page size.
func (m *Map) BindMemory(idx device.Index, addr, size uint32) error {
	if err := m.deviceMustBeRegistered(idx); err != nil {
		return err
	}

	if addr%mem.PageSize != 0 || size%mem.PageSize != 0 || size == 0 {
		return fmt.Errorf("binding 0x%06x+0x%x: %w", addr, size, ErrMisaligned)
	}

	if uint64(addr)+uint64(size) > mem.MemSpaceSize {
		return fmt.Errorf("binding 0x%06x+0x%x: %w", addr, size, ErrOutOfRange)
	}

	pageFrom := int(addr / mem.PageSize)
	pageTo := pageFrom + int(size/mem.PageSize)

	return bindSlots(m.memMapping[:], idx, pageFrom, pageTo)
}

// BindIO binds the device to count ports, starting at port.
func (m *Map) BindIO(idx device.Index, port uint8, count int) error {
	if err := m.deviceMustBeRegistered(idx); err != nil {
		return err
	}

	if count <= 0 || int(port)+count > mem.IOSpaceSize {
		return fmt.Errorf("binding port 0x%02x+%d: %w", port, count,
			ErrOutOfRange)
	}

	return bindSlots(m.ioMapping[:], idx, int(port), int(port)+count)
}

func (m *Map) deviceMustBeRegistered(idx device.Index) error {
	if m.registry.Get(idx) == nil {
		return fmt.Errorf("binding device %d: %w", idx, ErrUnknownDevice)
	}

	return nil
}

// bindSlots checks the whole region before touching it, so that a rejected
// bind leaves the map unchanged.
func bindSlots(slots []MapEntry, idx device.Index, from, to int) error {
	for i := from; i < to; i++ {
		if slots[i].Bound() {
			return fmt.Errorf("binding slot %d: %w (owned by device %d)",
				i, ErrOverlap, slots[i].Device)
		}
	}

	for i := from; i < to; i++ {
		slots[i] = MapEntry{Device: idx, PageFrom: from}
	}

	return nil
}

// Resolve finds the device that owns an address and the offset to pass to
// the device. Memory devices see the offset from the start of their region.
// I/O devices see the absolute port.
func (m *Map) Resolve(space Space, addr uint32) (device.Device, uint32, bool) {
	switch space {
	case MemorySpace:
		addr &= mem.AddrMask
		entry := m.memMapping[addr/mem.PageSize]
		if !entry.Bound() {
			return nil, 0, false
		}

		base := uint32(entry.PageFrom) * mem.PageSize

		return m.registry.Get(entry.Device), addr - base, true
	case IOSpace:
		port := addr % mem.IOSpaceSize
		entry := m.ioMapping[port]
		if !entry.Bound() {
			return nil, 0, false
		}

		return m.registry.Get(entry.Device), port, true
	default:
		return nil, 0, false
	}
}

// Read reads a byte from an address space.
func (m *Map) Read(space Space, addr uint32) uint8 {
	d, offset, ok := m.Resolve(space, addr)
	if !ok {
		return IdleValue
	}

	return d.Read(offset)
}

// Write writes a byte to an address space.
func (m *Map) Write(space Space, addr uint32, value uint8) {
	d, offset, ok := m.Resolve(space, addr)
	if !ok {
		return
	}

	d.Write(offset, value)
}

// ReadPhys reads a byte from the memory space.
func (m *Map) ReadPhys(addr uint32) uint8 {
	return m.Read(MemorySpace, addr)
}

// WritePhys writes a byte to the memory space.
func (m *Map) WritePhys(addr uint32, value uint8) {
	m.Write(MemorySpace, addr, value)
}

// ReadPhysBytes fills buf from the memory space. The read may cross device
// boundaries and wraps at the end of the space.
func (m *Map) ReadPhysBytes(addr uint32, buf []byte) {
	for i := range buf {
		buf[i] = m.ReadPhys(addr + uint32(i))
	}
}
