package capture

import "sync/atomic"

const validBit = 1 << 31

// Cell is a single-slot duty sample shared between the edge handler and the
// control loop. The handler is the only writer during normal operation.
//
// The raw pulse is kept in a second word and may be one period apart from the
// duty when read concurrently.
type Cell struct {
	v     atomic.Uint32
	pulse atomic.Uint32
}

// Store publishes a duty sample.
func (c *Cell) Store(duty uint8) {
	c.v.Store(validBit | uint32(duty))
}

// StorePulse publishes the raw measurement behind the latest sample.
func (c *Cell) StorePulse(p Pulse) {
	c.pulse.Store(uint32(p.Width)<<16 | uint32(p.Period))
}

// Pulse returns the last published measurement, or the zero Pulse.
func (c *Cell) Pulse() Pulse {
	s := disableInterrupts()
	v := c.pulse.Load()
	restoreInterrupts(s)
	return Pulse{Width: uint16(v >> 16), Period: uint16(v)}
}

// Load returns a consistent snapshot of the latest sample. ok is false until
// the first Store.
func (c *Cell) Load() (duty uint8, ok bool) {
	s := disableInterrupts()
	v := c.v.Load()
	restoreInterrupts(s)
	if v&validBit == 0 {
		return 0, false
	}
	return uint8(v), true
}
