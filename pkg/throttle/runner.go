package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikesmitty/pwm-scpi/pkg/capture"
	"github.com/mikesmitty/pwm-scpi/pkg/scpi"
)

// Sampler returns the latest duty sample. ok is false before the first one.
type Sampler interface {
	Load() (duty uint8, ok bool)
}

// pulseSampler is implemented by samplers that also expose the raw pulse.
type pulseSampler interface {
	Pulse() capture.Pulse
}

// Sender transmits one command.
type Sender interface {
	Send(cmd scpi.Command) error
}

// Runner returns the control loop and a channel of per-tick state snapshots.
// Snapshots are dropped when the reader falls behind; the loop never blocks
// on them. The channel is closed when the loop returns.
func (c *Controller) Runner(ctx context.Context, interval time.Duration, in Sampler, out Sender) (<-chan State, func() error) {
	ch := make(chan State, 1)
	ps, _ := in.(pulseSampler)
	return ch, func() error {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		done := ctx.Done()
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				duty, _ := in.Load()
				if cmd, ok := c.Tick(duty); ok {
					slog.Debug("sending command", "command", cmd.String(), "module", "throttle")
					if err := out.Send(cmd); err != nil {
						return fmt.Errorf("throttle: send %s: %w", cmd, err)
					}
				}
				s := c.State()
				if ps != nil {
					p := ps.Pulse()
					s.PulseWidth, s.PulsePeriod = p.Width, p.Period
				}
				select {
				case ch <- s:
				default:
				}
			}
		}
	}
}
