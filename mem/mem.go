// Package mem defines the physical memory layer of the Zeal fabric: the
// capability bus masters use to reach the physical address space, and the
// sparse byte storage that backs RAM and ROM devices.
package mem

// For capacity
const (
	_ = 1 << (10 * iota)
	KB
	MB
)

// Geometry of the Zeal physical address space.
const (
	// MemSpaceSize is the size of the physical memory space.
	MemSpaceSize = 4 * MB

	// PageSize is the granularity of the memory space, i.e., the smallest
	// region a device can be mapped on.
	PageSize = 16 * KB

	// NumPages is the number of pages in the memory space.
	NumPages = MemSpaceSize / PageSize

	// IOSpaceSize is the number of ports of the I/O space. Each port is a
	// single byte.
	IOSpaceSize = 256

	// AddrMask keeps the bits of an address that are decoded by the
	// memory space. Higher bits are ignored, so the space wraps around.
	AddrMask = MemSpaceSize - 1
)

// PhysicalAccess is the capability a bus master uses to access the physical
// memory space, byte by byte or by blocks. Addresses are physical; how they
// map to devices is up to the implementation.
type PhysicalAccess interface {
	// ReadPhys reads one byte at a physical address.
	ReadPhys(addr uint32) uint8

	// WritePhys writes one byte at a physical address.
	WritePhys(addr uint32, value uint8)

	// ReadPhysBytes fills buf with the bytes starting at a physical
	// address.
	ReadPhysBytes(addr uint32, buf []byte)
}
