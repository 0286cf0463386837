package pulse

import (
	"context"
	"fmt"
	"time"

	"github.com/mikesmitty/pwm-scpi/pkg/capture"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// EdgePin is the subset of gpio.PinIn used for edge capture.
type EdgePin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
}

// PeriphSensor watches both edges and keeps only those matching the selected
// polarity, judged by the pin level read after the edge.
type PeriphSensor struct {
	name string
	pin  EdgePin
	pull gpio.Pull
	now  func() capture.Timestamp
	poll time.Duration
	want gpio.Level
}

// NewPeriphSensor opens a pin by name. host.Init must have been called.
func NewPeriphSensor(name string, pull gpio.Pull, clock *Clock) (*PeriphSensor, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pulse: pin %s not found", name)
	}
	return newPeriphSensor(name, p, pull, clock.Now), nil
}

func newPeriphSensor(name string, pin EdgePin, pull gpio.Pull, now func() capture.Timestamp) *PeriphSensor {
	return &PeriphSensor{
		name: name,
		pin:  pin,
		pull: pull,
		now:  now,
		poll: 100 * time.Millisecond,
		want: gpio.High,
	}
}

func (s *PeriphSensor) SelectRisingEdge() {
	s.want = gpio.High
}

func (s *PeriphSensor) SelectFallingEdge() {
	s.want = gpio.Low
}

func (s *PeriphSensor) Run(ctx context.Context, c *capture.Capture, periods chan<- struct{}) func() error {
	return func() error {
		if err := s.pin.In(s.pull, gpio.BothEdges); err != nil {
			return fmt.Errorf("pulse: enable edges on %s: %w", s.name, err)
		}
		c.Reset()
		done := ctx.Done()
		for {
			select {
			case <-done:
				return nil
			default:
			}
			if !s.pin.WaitForEdge(s.poll) {
				continue
			}
			ts := s.now()
			if s.pin.Read() != s.want {
				continue
			}
			if _, ok := c.OnEvent(ts); ok {
				notify(periods)
			}
		}
	}
}

func (s *PeriphSensor) High() bool {
	return s.pin.Read() == gpio.High
}

func (s *PeriphSensor) Close() error {
	return s.pin.In(s.pull, gpio.NoEdge)
}
