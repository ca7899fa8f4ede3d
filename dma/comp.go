// Package dma implements the descriptor-driven DMA engine of the Zeal video
// board.
//
// The engine is an I/O device with five registers: a control register, three
// bytes of the descriptor pointer and the clock divider. Writing the start bit
// to the control register walks the descriptor chain at the pointer. Each
// descriptor copies Length bytes within the physical address space, then the
// pointer moves to the next record, until a descriptor marked last has been
// executed. The call does not return before the whole chain is done.
//
// Descriptors are not validated. A chain that never sets the last flag never
// returns.
package dma

import (
	"github.com/sarchlab/zealfabric/device"
	"github.com/sarchlab/zealfabric/mem"
	"github.com/sarchlab/zealfabric/sim"
	"github.com/sarchlab/zealfabric/tracing"
)

// Register offsets, relative to the base port of the engine.
const (
	RegCtrl uint8 = iota
	RegDescAddr0
	RegDescAddr1
	RegDescAddr2
	RegClkDiv

	NumRegisters = 5
)

// CtrlStart is the bit of the control register that starts a transfer.
const CtrlStart uint8 = 0x01

// DefaultBasePort is where the engine sits in the I/O space unless
// configured otherwise.
const DefaultBasePort uint8 = 0xA0

// HookPosDescriptor marks that a descriptor has been fetched. The item is a
// DescriptorEvent.
var HookPosDescriptor = &sim.HookPos{Name: "DMA Descriptor"}

// HookPosByteMoved marks that a byte has been copied. The item is a
// ByteMove.
var HookPosByteMoved = &sim.HookPos{Name: "DMA Byte Moved"}

// DescriptorEvent is the item of HookPosDescriptor.
type DescriptorEvent struct {
	Addr       uint32
	Descriptor Descriptor
}

// ByteMove is the item of HookPosByteMoved.
type ByteMove struct {
	From uint32
	To   uint32
	Data uint8
}

// Comp is the DMA engine.
type Comp struct {
	*sim.HookableBase
	sim.NamedBase

	basePort uint8
	phys     mem.PhysicalAccess
	idGen    sim.IDGenerator
	ports    device.PortTable

	descAddr uint32
	clk      ClockDivider
}

// BasePort returns the first I/O port of the engine.
func (c *Comp) BasePort() uint8 {
	return c.basePort
}

// DescAddr returns the descriptor pointer.
func (c *Comp) DescAddr() uint32 {
	return c.descAddr
}

// Clock returns the clock divider register.
func (c *Comp) Clock() ClockDivider {
	return c.clk
}

// Init sets the registers to their power-on values.
func (c *Comp) Init() {
	c.descAddr = 0
	c.clk = InitClock
}

// Reset restores the clock divider. The descriptor pointer is kept.
func (c *Comp) Reset() {
	c.clk = ResetClock
}

// Read returns the value of the register at an absolute port. The control
// register and unknown ports read 0.
func (c *Comp) Read(port uint32) uint8 {
	return c.ports.Read(uint8(port))
}

// Write sets the register at an absolute port. Setting the start bit of the
// control register runs the whole descriptor chain before returning.
func (c *Comp) Write(port uint32, value uint8) {
	c.ports.Write(uint8(port), value)
}

func (c *Comp) buildPortTable() {
	c.ports = device.PortTable{
		c.basePort + RegCtrl: {
			Write: func(v uint8) {
				if v&CtrlStart != 0 {
					c.startTransfer()
				}
			},
		},
		c.basePort + RegDescAddr0: c.descAddrByte(0),
		c.basePort + RegDescAddr1: c.descAddrByte(1),
		c.basePort + RegDescAddr2: c.descAddrByte(2),
		c.basePort + RegClkDiv: {
			Read:  func() uint8 { return uint8(c.clk) },
			Write: func(v uint8) { c.clk = ClockDivider(v) },
		},
	}
}

func (c *Comp) descAddrByte(n uint) device.PortHandler {
	shift := 8 * n

	return device.PortHandler{
		Read: func() uint8 {
			return uint8(c.descAddr >> shift)
		},
		Write: func(v uint8) {
			c.descAddr &^= 0xFF << shift
			c.descAddr |= uint32(v) << shift
		},
	}
}

func (c *Comp) startTransfer() {
	transferID := c.idGen.Generate()
	tracing.StartTask(transferID, "", c, "dma", "transfer", c.descAddr)

	var record [DescriptorSize]byte

	for {
		c.phys.ReadPhysBytes(c.descAddr, record[:])
		desc := DecodeDescriptor(record[:])

		descID := c.idGen.Generate()
		tracing.AddTaskStep(transferID, c, "descriptor")
		tracing.StartTask(descID, transferID, c, "dma", "descriptor", desc)
		c.notifyDescriptor(desc)

		c.execute(record[:], desc)

		tracing.EndTask(descID, c)

		c.descAddr = (c.descAddr + DescriptorSize) & addrMask

		if desc.Flags.Last {
			break
		}
	}

	// TODO: charge the T-states of the transfer, derived from clk, to the
	// CPU once the CPU scheduler exposes a cycle budget.

	tracing.EndTask(transferID, c)
}

// execute copies the bytes of a descriptor. The addresses live in the
// record and are decoded again on every byte.
func (c *Comp) execute(record []byte, desc Descriptor) {
	rdAddr := record[offsetReadAddr : offsetReadAddr+3]
	wrAddr := record[offsetWriteAddr : offsetWriteAddr+3]

	for i := 0; i < int(desc.Length); i++ {
		from := getAddr(rdAddr)
		to := getAddr(wrAddr)

		data := c.phys.ReadPhys(from)
		c.phys.WritePhys(to, data)

		if c.NumHooks() > 0 {
			c.InvokeHook(sim.HookCtx{
				Domain: c,
				Pos:    HookPosByteMoved,
				Item:   ByteMove{From: from, To: to, Data: data},
			})
		}

		stepAddr(rdAddr, desc.Flags.ReadStep)
		stepAddr(wrAddr, desc.Flags.WriteStep)
	}
}

func (c *Comp) notifyDescriptor(desc Descriptor) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosDescriptor,
		Item:   DescriptorEvent{Addr: c.descAddr, Descriptor: desc},
	})
}
