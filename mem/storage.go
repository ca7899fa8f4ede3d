package mem

import (
	"errors"
)

// ErrOutOfCapacity is returned when accessing an address beyond the capacity
// of a storage.
var ErrOutOfCapacity = errors.New(
	"accessing physical address beyond the storage capacity")

const storageUnitSize = 4 * KB

// A Storage keeps the bytes of a memory device.
//
// The storage manages the data in units, similar to the concept of page in
// memory management. For the units that are not touched by Write, no memory
// will be allocated and reads return zeros.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity
func NewStorage(capacity uint64) *Storage {
	storage := new(Storage)

	storage.unitSize = storageUnitSize
	storage.capacity = capacity
	storage.data = make(map[uint64][]byte)

	return storage
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

func (s *Storage) mustBeInCapacity(address, length uint64) error {
	if address >= s.capacity || length > s.capacity-address {
		return ErrOutOfCapacity
	}

	return nil
}

// getOrCreateUnit retrieves a storage unit if the unit has been created
// before. Otherwise it initializes the unit.
func (s *Storage) getOrCreateUnit(baseAddr uint64) []byte {
	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

// ByteAt returns a single byte.
func (s *Storage) ByteAt(address uint64) (byte, error) {
	if err := s.mustBeInCapacity(address, 1); err != nil {
		return 0, err
	}

	baseAddr, inUnitAddr := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		return 0, nil
	}

	return unit[inUnitAddr], nil
}

// SetByteAt updates a single byte.
func (s *Storage) SetByteAt(address uint64, value byte) error {
	if err := s.mustBeInCapacity(address, 1); err != nil {
		return err
	}

	baseAddr, inUnitAddr := s.parseAddress(address)
	s.getOrCreateUnit(baseAddr)[inUnitAddr] = value

	return nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))
	if err := s.mustBeInCapacity(address, length); err != nil {
		return err
	}

	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < length {
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToWrite := min(length-dataOffset, s.unitSize-inUnitAddr)

		unit := s.getOrCreateUnit(baseAddr)
		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])

		dataOffset += lenToWrite
		currAddr += lenToWrite
	}

	return nil
}
