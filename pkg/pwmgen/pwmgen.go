// Package pwmgen drives a PWM output pin for loopback testing of the capture
// input.
package pwmgen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// PWMPin is the subset of gpio.PinOut used by the generator.
type PWMPin interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
	Out(l gpio.Level) error
}

type Generator struct {
	name string
	freq physic.Frequency
	pin  PWMPin
	duty uint8
	mu   sync.Mutex
}

func NewGenerator(name string, freq physic.Frequency) (*Generator, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pwmgen: pin %s not found", name)
	}
	return newGenerator(name, p, freq)
}

func newGenerator(name string, pin PWMPin, freq physic.Frequency) (*Generator, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("pwmgen: set %s low: %w", name, err)
	}
	return &Generator{name: name, freq: freq, pin: pin}, nil
}

// Set outputs percent duty. 0 and 100 drive the pin statically.
func (g *Generator) Set(percent uint8) error {
	if percent > 100 {
		percent = 100
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var err error
	switch percent {
	case 0:
		err = g.pin.Out(gpio.Low)
	case 100:
		err = g.pin.Out(gpio.High)
	default:
		err = g.pin.PWM(gpio.DutyMax*gpio.Duty(percent)/100, g.freq)
	}
	if err != nil {
		return fmt.Errorf("pwmgen: set %s to %d%%: %w", g.name, percent, err)
	}
	g.duty = percent
	slog.Info("pwm output", "pin", g.name, "duty", percent, "freq", g.freq)
	return nil
}

func (g *Generator) Duty() uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.duty
}

// Sweep steps the duty from one value to another, holding each for dwell.
func (g *Generator) Sweep(ctx context.Context, from, to, step uint8, dwell time.Duration) error {
	if step == 0 {
		step = 1
	}
	d := int(from)
	for {
		if err := g.Set(uint8(d)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dwell):
		}
		if d == int(to) {
			return nil
		}
		if from < to {
			d = min(d+int(step), int(to))
		} else {
			d = max(d-int(step), int(to))
		}
	}
}

func (g *Generator) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.duty = 0
	return g.pin.Out(gpio.Low)
}
