package addrspace

import (
	"github.com/sarchlab/zealfabric/device"
	"github.com/sarchlab/zealfabric/mem"
)

// A Region is a contiguous range of slots owned by the same device.
type Region struct {
	Space  Space
	Start  uint32
	Size   uint32
	Device device.Index
	Name   string
}

// Entries returns a copy of all the slots of a space.
func (m *Map) Entries(space Space) []MapEntry {
	switch space {
	case MemorySpace:
		entries := make([]MapEntry, len(m.memMapping))
		copy(entries, m.memMapping[:])

		return entries
	case IOSpace:
		entries := make([]MapEntry, len(m.ioMapping))
		copy(entries, m.ioMapping[:])

		return entries
	default:
		return nil
	}
}

// Regions lists the bound regions of a space, in address order.
func (m *Map) Regions(space Space) []Region {
	slotSize := uint32(1)
	if space == MemorySpace {
		slotSize = mem.PageSize
	}

	var regions []Region

	entries := m.Entries(space)
	for i := 0; i < len(entries); {
		e := entries[i]
		if !e.Bound() {
			i++
			continue
		}

		j := i + 1
		for j < len(entries) && entries[j] == e {
			j++
		}

		regions = append(regions, Region{
			Space:  space,
			Start:  uint32(i) * slotSize,
			Size:   uint32(j-i) * slotSize,
			Device: e.Device,
			Name:   m.registry.Get(e.Device).Name(),
		})

		i = j
	}

	return regions
}
