package dma

import (
	"log"

	"github.com/sarchlab/zealfabric/mem"
	"github.com/sarchlab/zealfabric/sim"
)

// Builder can build DMA engines.
type Builder struct {
	basePort uint8
	phys     mem.PhysicalAccess
	idGen    sim.IDGenerator
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		basePort: DefaultBasePort,
	}
}

// WithBasePort sets the first I/O port of the engine.
func (b Builder) WithBasePort(port uint8) Builder {
	b.basePort = port
	return b
}

// WithPhysicalAccess sets the memory the engine reads descriptors from and
// copies bytes within.
func (b Builder) WithPhysicalAccess(phys mem.PhysicalAccess) Builder {
	b.phys = phys
	return b
}

// WithIDGenerator sets the generator of the trace task IDs.
func (b Builder) WithIDGenerator(idGen sim.IDGenerator) Builder {
	b.idGen = idGen
	return b
}

// Build creates a DMA engine with its power-on register values.
func (b Builder) Build(name string) *Comp {
	if b.phys == nil {
		log.Panicf("DMA %s requires a physical access", name)
	}

	if int(b.basePort)+NumRegisters > mem.IOSpaceSize {
		log.Panicf("DMA %s registers do not fit after port 0x%02x",
			name, b.basePort)
	}

	c := &Comp{
		HookableBase: sim.NewHookableBase(),
		NamedBase:    sim.MakeNamedBase(name),
		basePort:     b.basePort,
		phys:         b.phys,
		idGen:        b.idGen,
	}

	if c.idGen == nil {
		c.idGen = sim.NewSequentialIDGenerator()
	}

	c.buildPortTable()
	c.Init()

	return c
}
