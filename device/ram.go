package device

import (
	"log"

	"github.com/sarchlab/zealfabric/mem"
	"github.com/sarchlab/zealfabric/sim"
)

// RAM is a read/write memory device. Offsets beyond its capacity wrap
// around, like a chip that does not decode the upper address lines.
type RAM struct {
	sim.NamedBase

	Storage *mem.Storage
}

// NewRAM creates a RAM with the given capacity in bytes.
func NewRAM(name string, capacity uint64) *RAM {
	if capacity == 0 {
		log.Panicf("RAM %s must have a capacity", name)
	}

	return &RAM{
		NamedBase: sim.MakeNamedBase(name),
		Storage:   mem.NewStorage(capacity),
	}
}

// Read returns the byte at an offset.
func (r *RAM) Read(offset uint32) uint8 {
	return readMirrored(r.Storage, offset)
}

// Write stores the byte at an offset.
func (r *RAM) Write(offset uint32, value uint8) {
	addr := uint64(offset) % r.Storage.Capacity()

	err := r.Storage.SetByteAt(addr, value)
	if err != nil {
		log.Panic(err)
	}
}

func readMirrored(s *mem.Storage, offset uint32) uint8 {
	addr := uint64(offset) % s.Capacity()

	b, err := s.ByteAt(addr)
	if err != nil {
		log.Panic(err)
	}

	return b
}
