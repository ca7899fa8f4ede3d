package sim

import "time"

// VTimeInSec defines the time in seconds, as seen by the emulated machine.
type VTimeInSec float64

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// WallClock tells the time elapsed since it was created. The fabric has no
// event engine of its own, so tracers that need timestamps fall back to the
// host clock unless the CPU scheduler provides a TimeTeller.
type WallClock struct {
	start time.Time
}

// NewWallClock creates a WallClock starting at the current host time.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// CurrentTime returns the seconds elapsed since the clock was created.
func (c *WallClock) CurrentTime() VTimeInSec {
	return VTimeInSec(time.Since(c.start).Seconds())
}
