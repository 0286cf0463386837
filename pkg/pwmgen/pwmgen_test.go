package pwmgen

import (
	"context"
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

type fakePin struct {
	duty  gpio.Duty
	freq  physic.Frequency
	level gpio.Level
	pwm   bool
	err   error
	seen  []gpio.Duty
}

func (p *fakePin) PWM(duty gpio.Duty, f physic.Frequency) error {
	if p.err != nil {
		return p.err
	}
	p.duty, p.freq, p.pwm = duty, f, true
	p.seen = append(p.seen, duty)
	return nil
}

func (p *fakePin) Out(l gpio.Level) error {
	p.level, p.pwm = l, false
	return nil
}

func TestSetDuty(t *testing.T) {
	pin := &fakePin{}
	g, err := newGenerator("GPIO13", pin, physic.KiloHertz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := g.Set(50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pin.pwm || pin.duty != gpio.DutyHalf || pin.freq != physic.KiloHertz {
		t.Errorf("expected 50%% at 1kHz, got %v at %v", pin.duty, pin.freq)
	}
	if g.Duty() != 50 {
		t.Errorf("expected duty 50, got %d", g.Duty())
	}

	g.Set(0)
	if pin.pwm || pin.level != gpio.Low {
		t.Error("expected static low for 0%")
	}
	g.Set(150)
	if pin.pwm || pin.level != gpio.High || g.Duty() != 100 {
		t.Error("expected static high for clamped 100%")
	}
}

func TestSetError(t *testing.T) {
	pin := &fakePin{err: errors.New("no pwm")}
	g, _ := newGenerator("GPIO13", pin, physic.KiloHertz)
	if err := g.Set(30); !errors.Is(err, pin.err) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if g.Duty() != 0 {
		t.Errorf("duty should be unchanged, got %d", g.Duty())
	}
}

func TestSweep(t *testing.T) {
	pin := &fakePin{}
	g, _ := newGenerator("GPIO13", pin, physic.KiloHertz)
	if err := g.Sweep(context.Background(), 10, 40, 15, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []gpio.Duty{gpio.DutyMax / 10, gpio.DutyMax * 25 / 100, gpio.DutyMax * 40 / 100}
	if len(pin.seen) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(pin.seen))
	}
	for i := range want {
		if pin.seen[i] != want[i] {
			t.Errorf("step %d: expected %v, got %v", i, want[i], pin.seen[i])
		}
	}

	if err := g.Stop(); err != nil || g.Duty() != 0 || pin.level != gpio.Low {
		t.Errorf("expected stopped low output, got %v", err)
	}
}

func TestSweepDown(t *testing.T) {
	pin := &fakePin{}
	g, _ := newGenerator("GPIO13", pin, physic.KiloHertz)
	g.Sweep(context.Background(), 30, 20, 4, 0)
	if g.Duty() != 20 || len(pin.seen) != 4 {
		t.Errorf("expected 4 steps ending at 20, got %d steps ending at %d", len(pin.seen), g.Duty())
	}
}
