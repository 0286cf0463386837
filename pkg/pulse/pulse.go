// Package pulse delivers PWM input edges to a capture state machine.
//
// Two backends are provided: periph.io pins, which are timestamped in user
// space when the edge is observed, and the Linux GPIO character device, which
// carries kernel event timestamps.
package pulse

import (
	"context"
	"errors"
	"time"

	"github.com/mikesmitty/pwm-scpi/pkg/capture"
)

var ErrUnsupported = errors.New("pulse: backend not supported on this platform")

// Source is an edge sensor that can drive a capture.
type Source interface {
	capture.Sensor

	// Run delivers edges to c until ctx is done. A notification is sent on
	// periods, without blocking, for every completed period.
	Run(ctx context.Context, c *capture.Capture, periods chan<- struct{}) func() error

	// High reports the current input level.
	High() bool

	Close() error
}

// Clock maps elapsed time onto a free-running 16-bit counter ticking once per
// resolution.
type Clock struct {
	start      time.Time
	resolution time.Duration
}

func NewClock(resolution time.Duration) *Clock {
	if resolution <= 0 {
		resolution = time.Nanosecond
	}
	return &Clock{start: time.Now(), resolution: resolution}
}

// Ticks converts an elapsed duration into a counter value. The counter wraps
// every 65536 ticks.
func (c *Clock) Ticks(elapsed time.Duration) capture.Timestamp {
	return capture.Timestamp(elapsed / c.resolution)
}

func (c *Clock) Now() capture.Timestamp {
	return c.Ticks(time.Since(c.start))
}

// Wrap returns how long the counter takes to overflow. PWM periods must be
// shorter than this.
func (c *Clock) Wrap() time.Duration {
	return c.resolution * (1 << 16)
}

func notify(periods chan<- struct{}) {
	if periods == nil {
		return
	}
	select {
	case periods <- struct{}{}:
	default:
	}
}
