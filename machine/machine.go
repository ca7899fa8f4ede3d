// Package machine assembles the Zeal fabric: it owns the device registry,
// the address space map and the devices, and gives the CPU its view of them.
package machine

import (
	"log"

	"github.com/sarchlab/zealfabric/addrspace"
	"github.com/sarchlab/zealfabric/device"
	"github.com/sarchlab/zealfabric/dma"
	"github.com/sarchlab/zealfabric/mmu"
)

// Machine is the context of an emulated computer. Nothing in it is safe for
// concurrent use.
type Machine struct {
	registry *device.Registry
	space    *addrspace.Map
	logger   *log.Logger

	rom *device.ROM
	ram *device.RAM
	mmu *mmu.Comp
	dma *dma.Comp
}

// Init sets the devices to their power-on state.
func (m *Machine) Init() {
	m.dma.Init()
	m.mmu.Init()
}

// Reset resets every device that reacts to a reset.
func (m *Machine) Reset() {
	for _, d := range m.registry.Devices() {
		if r, ok := d.(device.Resetter); ok {
			r.Reset()
		}
	}
}

// Space returns the address space map.
func (m *Machine) Space() *addrspace.Map {
	return m.space
}

// Registry returns the device registry.
func (m *Machine) Registry() *device.Registry {
	return m.registry
}

// ROM returns the flash.
func (m *Machine) ROM() *device.ROM {
	return m.rom
}

// RAM returns the main memory.
func (m *Machine) RAM() *device.RAM {
	return m.ram
}

// MMU returns the memory management unit.
func (m *Machine) MMU() *mmu.Comp {
	return m.mmu
}

// DMA returns the DMA engine.
func (m *Machine) DMA() *dma.Comp {
	return m.dma
}

// CPUBus returns the view the CPU has of the machine.
func (m *Machine) CPUBus() CPUBus {
	return CPUBus{m: m}
}

// WritePhysBytes writes a block into the physical memory space, as a bus
// master would. Bytes that land in the ROM are ignored.
func (m *Machine) WritePhysBytes(addr uint32, data []byte) {
	for i, b := range data {
		m.space.WritePhys(addr+uint32(i), b)
	}
}

// ReadPhysBytes reads a block from the physical memory space.
func (m *Machine) ReadPhysBytes(addr uint32, n int) []byte {
	buf := make([]byte, n)
	m.space.ReadPhysBytes(addr, buf)

	return buf
}

// CPUBus is the memory and I/O interface of the CPU. Memory addresses are
// 16-bit and go through the MMU.
type CPUBus struct {
	m *Machine
}

// Read reads a byte from the CPU memory space.
func (b CPUBus) Read(vaddr uint16) uint8 {
	return b.m.space.ReadPhys(b.m.mmu.Translate(vaddr))
}

// Write writes a byte to the CPU memory space.
func (b CPUBus) Write(vaddr uint16, value uint8) {
	b.m.space.WritePhys(b.m.mmu.Translate(vaddr), value)
}

// In reads an I/O port.
func (b CPUBus) In(port uint8) uint8 {
	return b.m.space.Read(addrspace.IOSpace, uint32(port))
}

// Out writes an I/O port.
func (b CPUBus) Out(port uint8, value uint8) {
	b.m.space.Write(addrspace.IOSpace, uint32(port), value)
}
