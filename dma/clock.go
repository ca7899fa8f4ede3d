package dma

// ClockDivider is the raw clk register. The low nibble holds the number of
// cycles of a read and the high nibble the number of cycles of a write.
type ClockDivider uint8

// MakeClockDivider packs the read and write cycle counts. Only the low 4
// bits of each count are kept.
func MakeClockDivider(readCycle, writeCycle uint8) ClockDivider {
	return ClockDivider(readCycle&0xF | (writeCycle&0xF)<<4)
}

// ReadCycle returns the number of cycles of a read.
func (c ClockDivider) ReadCycle() uint8 {
	return uint8(c) & 0xF
}

// WriteCycle returns the number of cycles of a write.
func (c ClockDivider) WriteCycle() uint8 {
	return uint8(c) >> 4
}

// Clock divider values after power-on and after a reset. They differ.
var (
	InitClock  = MakeClockDivider(1, 1)
	ResetClock = MakeClockDivider(6, 5)
)
