package machine

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sarchlab/zealfabric/addrspace"
	"github.com/sarchlab/zealfabric/config"
	"github.com/sarchlab/zealfabric/device"
	"github.com/sarchlab/zealfabric/dma"
	"github.com/sarchlab/zealfabric/mmu"
	"github.com/sarchlab/zealfabric/sim"
)

// Builder can build machines.
type Builder struct {
	cfg    config.Config
	logger *log.Logger
	idGen  sim.IDGenerator
}

// MakeBuilder returns a Builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg:    config.Default(),
		logger: log.New(io.Discard, "", 0),
	}
}

// WithConfig sets the configuration of the machine.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithLogger sets where the machine reports how it is assembled.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithIDGenerator sets the generator of the trace task IDs.
func (b Builder) WithIDGenerator(idGen sim.IDGenerator) Builder {
	b.idGen = idGen
	return b
}

// Build assembles a machine, powers it on and, unless configured
// otherwise, resets it.
func (b Builder) Build() (*Machine, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		registry: device.NewRegistry(),
		logger:   b.logger,
	}
	m.space = addrspace.NewMap(m.registry)

	m.rom = device.NewROM("ROM", uint64(b.cfg.ROM.Size))
	if b.cfg.ROM.Image != "" {
		if err := b.flash(m.rom, b.cfg.ROM.Image); err != nil {
			return nil, err
		}
	}

	m.ram = device.NewRAM("RAM", uint64(b.cfg.RAM.Size))
	m.mmu = mmu.MakeBuilder().
		WithBasePort(b.cfg.MMU.BasePort).
		Build("MMU")
	m.dma = dma.MakeBuilder().
		WithBasePort(b.cfg.DMA.BasePort).
		WithPhysicalAccess(m.space).
		WithIDGenerator(b.idGen).
		Build("DMA")

	err := m.attachMemory(m.rom, b.cfg.ROM.Base, b.cfg.ROM.Size)
	if err == nil {
		err = m.attachMemory(m.ram, b.cfg.RAM.Base, b.cfg.RAM.Size)
	}

	if err == nil {
		err = m.attachIO(m.mmu, m.mmu.BasePort(), mmu.NumVirtualPages)
	}

	if err == nil {
		err = m.attachIO(m.dma, m.dma.BasePort(), dma.NumRegisters)
	}

	if err != nil {
		return nil, err
	}

	m.Init()

	if !b.cfg.NoReset {
		m.Reset()
	}

	return m, nil
}

func (b Builder) flash(rom *device.ROM, path string) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading ROM image: %w", err)
	}

	err = rom.Load(image, 0)
	if err != nil {
		return err
	}

	b.logger.Printf("flashed %d bytes from %s", len(image), path)

	return nil
}

func (m *Machine) attachMemory(d device.Device, base, size uint32) error {
	idx, err := m.registry.Register(d)
	if err != nil {
		return fmt.Errorf("attaching %s: %w", d.Name(), err)
	}

	err = m.space.BindMemory(idx, base, size)
	if err != nil {
		return fmt.Errorf("attaching %s: %w", d.Name(), err)
	}

	m.logger.Printf("%s at 0x%06X-0x%06X", d.Name(), base, base+size-1)

	return nil
}

func (m *Machine) attachIO(d device.Device, port uint8, count int) error {
	idx, err := m.registry.Register(d)
	if err != nil {
		return fmt.Errorf("attaching %s: %w", d.Name(), err)
	}

	err = m.space.BindIO(idx, port, count)
	if err != nil {
		return fmt.Errorf("attaching %s: %w", d.Name(), err)
	}

	m.logger.Printf("%s at port 0x%02X-0x%02X",
		d.Name(), port, int(port)+count-1)

	return nil
}
