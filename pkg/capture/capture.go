// Package capture turns alternating edge timestamps from a free-running 16-bit
// counter into duty-cycle samples.
//
// OnEvent runs in the edge handler context. It never blocks, allocates or logs.
package capture

// Timestamp is a free-running 16-bit counter value. Differences between two
// timestamps use wrapping subtraction so they stay correct across overflow.
type Timestamp uint16

// Sub returns t - u modulo 2^16.
func (t Timestamp) Sub(u Timestamp) uint16 {
	return uint16(t - u)
}

// Sensor is the edge polarity capability of the input hardware.
type Sensor interface {
	SelectRisingEdge()
	SelectFallingEdge()
}

type state uint8

const (
	awaitingRisingEdge state = iota
	awaitingFallingEdge
	awaitingPeriodEnd
)

func (s state) String() string {
	switch s {
	case awaitingRisingEdge:
		return "awaiting-rising-edge"
	case awaitingFallingEdge:
		return "awaiting-falling-edge"
	case awaitingPeriodEnd:
		return "awaiting-period-end"
	}
	return "unknown"
}

// Pulse is the raw measurement of one complete period, in counter ticks.
type Pulse struct {
	Width  uint16
	Period uint16
}

// Duty returns width*100/period clamped to [0,100]. ok is false when the
// period is zero.
func (p Pulse) Duty() (duty uint8, ok bool) {
	if p.Period == 0 {
		return 0, false
	}
	d := uint32(p.Width) * 100 / uint32(p.Period)
	if d > 100 {
		d = 100
	}
	return uint8(d), true
}

// Capture is the edge state machine. risingTS is valid in the falling-edge and
// period-end states, width only in the period-end state.
type Capture struct {
	sensor   Sensor
	out      *Cell
	state    state
	risingTS Timestamp
	width    uint16
}

// New returns a Capture that toggles sensor polarity and publishes samples to
// out. out may be nil.
func New(sensor Sensor, out *Cell) *Capture {
	return &Capture{
		sensor: sensor,
		out:    out,
	}
}

// Reset returns the machine to waiting for a rising edge and selects rising
// edge sensing. Call it before edges are delivered.
func (c *Capture) Reset() {
	c.state = awaitingRisingEdge
	c.risingTS = 0
	c.width = 0
	c.sensor.SelectRisingEdge()
}

// OnEvent consumes one edge timestamp. A sample is produced at the end of each
// period after the first, except when the period measures zero ticks.
func (c *Capture) OnEvent(ts Timestamp) (uint8, bool) {
	switch c.state {
	case awaitingRisingEdge:
		c.sensor.SelectFallingEdge()
		c.risingTS = ts
		c.state = awaitingFallingEdge
	case awaitingFallingEdge:
		c.sensor.SelectRisingEdge()
		c.width = ts.Sub(c.risingTS)
		c.state = awaitingPeriodEnd
	case awaitingPeriodEnd:
		c.sensor.SelectFallingEdge()
		p := Pulse{Width: c.width, Period: ts.Sub(c.risingTS)}
		// This rising edge starts the next period.
		c.risingTS = ts
		c.width = 0
		c.state = awaitingFallingEdge
		duty, ok := p.Duty()
		if !ok {
			return 0, false
		}
		if c.out != nil {
			c.out.StorePulse(p)
			c.out.Store(duty)
		}
		return duty, true
	}
	return 0, false
}
