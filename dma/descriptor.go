package dma

import (
	"encoding/binary"
	"fmt"
	"log"
)

// DescriptorSize is the size of a descriptor record in memory. The chain
// pointer advances by this amount after each descriptor.
const DescriptorSize = 16

// Byte offsets of the descriptor fields.
const (
	offsetReadAddr  = 0
	offsetWriteAddr = 3
	offsetLength    = 6
	offsetFlags     = 8
)

const (
	addrMask = 0xFFFFFF

	flagReadStepShift  = 0
	flagWriteStepShift = 2
	flagStepMask       = 0x3
	flagLast           = 0x80
)

// StepMode tells how an address moves after each byte copied.
type StepMode uint8

// Step modes, as encoded in the descriptor flags. The encoding 3 is reserved
// and leaves the address unchanged, like StepFixed.
const (
	StepIncrement StepMode = iota
	StepDecrement
	StepFixed
)

func (m StepMode) String() string {
	switch m {
	case StepIncrement:
		return "INC"
	case StepDecrement:
		return "DEC"
	case StepFixed:
		return "FIXED"
	default:
		return fmt.Sprintf("RESERVED(%d)", uint8(m))
	}
}

// Flags is the flag byte of a descriptor.
type Flags struct {
	ReadStep  StepMode
	WriteStep StepMode
	Last      bool
}

// DecodeFlags unpacks a flag byte. Bits 4 to 6 are ignored.
func DecodeFlags(b uint8) Flags {
	return Flags{
		ReadStep:  StepMode((b >> flagReadStepShift) & flagStepMask),
		WriteStep: StepMode((b >> flagWriteStepShift) & flagStepMask),
		Last:      b&flagLast != 0,
	}
}

// Byte packs the flags.
func (f Flags) Byte() uint8 {
	b := uint8(f.ReadStep&flagStepMask) << flagReadStepShift
	b |= uint8(f.WriteStep&flagStepMask) << flagWriteStepShift

	if f.Last {
		b |= flagLast
	}

	return b
}

// A Descriptor describes one copy of a DMA transfer. Addresses are 24-bit.
type Descriptor struct {
	ReadAddr  uint32
	WriteAddr uint32
	Length    uint16
	Flags     Flags
}

// DecodeDescriptor parses a descriptor record.
func DecodeDescriptor(buf []byte) Descriptor {
	if len(buf) < DescriptorSize {
		log.Panicf("descriptor record must be %d bytes, got %d",
			DescriptorSize, len(buf))
	}

	return Descriptor{
		ReadAddr:  getAddr(buf[offsetReadAddr:]),
		WriteAddr: getAddr(buf[offsetWriteAddr:]),
		Length:    binary.LittleEndian.Uint16(buf[offsetLength:]),
		Flags:     DecodeFlags(buf[offsetFlags]),
	}
}

// Encode builds the record of the descriptor, as the guest would write it
// into memory. Reserved bytes are zero.
func (d Descriptor) Encode() []byte {
	buf := make([]byte, DescriptorSize)

	setAddr(buf[offsetReadAddr:], d.ReadAddr)
	setAddr(buf[offsetWriteAddr:], d.WriteAddr)
	binary.LittleEndian.PutUint16(buf[offsetLength:], d.Length)
	buf[offsetFlags] = d.Flags.Byte()

	return buf
}

func (d Descriptor) String() string {
	return fmt.Sprintf("rd=0x%06X(%s) wr=0x%06X(%s) len=%d last=%t",
		d.ReadAddr, d.Flags.ReadStep, d.WriteAddr, d.Flags.WriteStep,
		d.Length, d.Flags.Last)
}

// getAddr reads a little-endian 24-bit address.
func getAddr(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// setAddr writes a little-endian 24-bit address. Bits above 23 are dropped.
func setAddr(b []byte, addr uint32) {
	b[0] = uint8(addr)
	b[1] = uint8(addr >> 8)
	b[2] = uint8(addr >> 16)
}

// stepAddr moves the packed address in place.
func stepAddr(b []byte, mode StepMode) {
	switch mode {
	case StepIncrement:
		setAddr(b, (getAddr(b)+1)&addrMask)
	case StepDecrement:
		setAddr(b, (getAddr(b)-1)&addrMask)
	}
}
