// Package mmu implements the memory management unit of the Zeal 8-bit
// computer. The CPU sees 64 KiB split in four virtual pages of 16 KiB. Each
// virtual page is backed by one of the 256 physical pages of the memory
// space, selected by a page register in the I/O space.
package mmu

import (
	"log"

	"github.com/sarchlab/zealfabric/device"
	"github.com/sarchlab/zealfabric/mem"
	"github.com/sarchlab/zealfabric/sim"
)

// NumVirtualPages is the number of page registers.
const NumVirtualPages = 4

// DefaultBasePort is the port of the first page register.
const DefaultBasePort uint8 = 0xF0

const virtualPageShift = 14

// Comp is an MMU. It is an I/O device.
type Comp struct {
	sim.NamedBase

	basePort uint8
	pages    [NumVirtualPages]uint8
	ports    device.PortTable
}

// Builder can build MMUs.
type Builder struct {
	basePort uint8
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{basePort: DefaultBasePort}
}

// WithBasePort sets the port of the first page register.
func (b Builder) WithBasePort(port uint8) Builder {
	b.basePort = port
	return b
}

// Build creates an MMU that maps every virtual page to physical page 0.
func (b Builder) Build(name string) *Comp {
	if int(b.basePort)+NumVirtualPages > mem.IOSpaceSize {
		log.Panicf("MMU %s registers do not fit after port 0x%02x",
			name, b.basePort)
	}

	c := &Comp{
		NamedBase: sim.MakeNamedBase(name),
		basePort:  b.basePort,
		ports:     make(device.PortTable),
	}

	for i := 0; i < NumVirtualPages; i++ {
		page := i
		c.ports[b.basePort+uint8(i)] = device.PortHandler{
			Read:  func() uint8 { return c.pages[page] },
			Write: func(v uint8) { c.pages[page] = v },
		}
	}

	c.Init()

	return c
}

// BasePort returns the port of the first page register.
func (c *Comp) BasePort() uint8 {
	return c.basePort
}

// Init maps every virtual page to physical page 0.
func (c *Comp) Init() {
	c.pages = [NumVirtualPages]uint8{}
}

// Reset maps every virtual page to physical page 0.
func (c *Comp) Reset() {
	c.Init()
}

// Page returns the physical page behind a virtual page.
func (c *Comp) Page(virtualPage int) uint8 {
	return c.pages[virtualPage]
}

// Pages returns all the page registers.
func (c *Comp) Pages() [NumVirtualPages]uint8 {
	return c.pages
}

// Translate converts a CPU address into a physical address.
func (c *Comp) Translate(vaddr uint16) uint32 {
	page := c.pages[vaddr>>virtualPageShift]
	offset := uint32(vaddr) & (mem.PageSize - 1)

	return uint32(page)*mem.PageSize + offset
}

// Read returns the page register at an absolute port.
func (c *Comp) Read(port uint32) uint8 {
	return c.ports.Read(uint8(port))
}

// Write sets the page register at an absolute port.
func (c *Comp) Write(port uint32, value uint8) {
	c.ports.Write(uint8(port), value)
}
