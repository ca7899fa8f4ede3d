package device

import (
	"fmt"
	"log"

	"github.com/sarchlab/zealfabric/mem"
	"github.com/sarchlab/zealfabric/sim"
)

// ROM is a read-only memory device. Writes coming from the buses are
// ignored; the content is set with Load.
type ROM struct {
	sim.NamedBase

	Storage *mem.Storage
}

// NewROM creates a ROM with the given capacity in bytes.
func NewROM(name string, capacity uint64) *ROM {
	if capacity == 0 {
		log.Panicf("ROM %s must have a capacity", name)
	}

	return &ROM{
		NamedBase: sim.MakeNamedBase(name),
		Storage:   mem.NewStorage(capacity),
	}
}

// Load flashes an image into the ROM, starting at offset.
func (r *ROM) Load(image []byte, offset uint64) error {
	err := r.Storage.Write(offset, image)
	if err != nil {
		return fmt.Errorf("loading %d bytes at 0x%x into %s: %w",
			len(image), offset, r.Name(), err)
	}

	return nil
}

// Read returns the byte at an offset.
func (r *ROM) Read(offset uint32) uint8 {
	return readMirrored(r.Storage, offset)
}

// Write does nothing.
func (r *ROM) Write(_ uint32, _ uint8) {
}
