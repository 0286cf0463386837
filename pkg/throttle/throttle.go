// Package throttle maps a debounced PWM duty cycle to power supply commands
// and paces them onto a slow serial link.
package throttle

import (
	"log/slog"

	"github.com/mikesmitty/pwm-scpi/pkg/queue"
	"github.com/mikesmitty/pwm-scpi/pkg/scpi"
	"github.com/mikesmitty/pwm-scpi/pkg/swma"
)

type Controller struct {
	cfg    Config
	window *swma.SlidingWindow
	queue  *queue.Queue[scpi.Command]

	lastApplied      uint8
	outputEnabled    bool
	ticksSinceUpdate int
	ticksSinceSend   int

	duty    uint8
	overdue bool
	current float64
	voltage float64
	dropped int
}

// State is a snapshot of the controller taken after a tick.
type State struct {
	Duty          uint8
	Average       uint8
	Stable        bool
	Overdue       bool
	Applied       uint8
	OutputEnabled bool
	Current       float64
	Voltage       float64
	Queued        int
	Dropped       int

	// Raw capture of the latest period in counter ticks, when the sampler
	// provides it.
	PulseWidth  uint16
	PulsePeriod uint16
}

func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		cfg:    cfg,
		window: swma.NewSlidingWindow(cfg.WindowSize),
		queue:  queue.New[scpi.Command](cfg.QueueSize),
	}, nil
}

// Current returns the linear current setpoint for a duty in the
// proportional band.
func Current(duty uint8, currentMax float64) float64 {
	return (float64(duty) - LowDuty) / (HighDuty - LowDuty) * currentMax
}

// Tick runs one control period: the decision step followed by the send step.
// It returns the command to transmit this tick, if any.
func (c *Controller) Tick(duty uint8) (scpi.Command, bool) {
	c.Update(duty)
	return c.Next()
}

// Update pushes duty into the debounce window and queues commands when the
// value is stable and changed, or when a resend is overdue. It reports whether
// commands were queued.
func (c *Controller) Update(duty uint8) bool {
	c.duty = duty
	c.ticksSinceUpdate++
	c.overdue = c.ticksSinceUpdate >= c.cfg.MaxTicksBetweenUpdate
	if c.overdue {
		c.ticksSinceUpdate = c.cfg.MaxTicksBetweenUpdate
	}

	c.window.Push(uint16(duty))
	if !c.window.AllSame() && !c.overdue {
		return false
	}
	if duty == c.lastApplied && !c.overdue {
		return false
	}
	if c.queue.Space() < minBatchSpace {
		// Retried next tick; lastApplied is left alone.
		slog.Debug("command queue busy, deferring update", "duty", duty, "queued", c.queue.Len(), "module", "throttle")
		return false
	}

	slog.Debug("applying duty", "duty", duty, "previous", c.lastApplied, "overdue", c.overdue, "module", "throttle")
	c.lastApplied = duty
	c.ticksSinceUpdate = 0
	c.apply(duty)
	return true
}

// apply queues the commands for duty. outputEnabled changes here, when the
// command is built, not when it reaches the supply. If the queue later evicts
// the OUT0/OUT1 the flag no longer matches the supply until the next change.
func (c *Controller) apply(duty uint8) {
	switch {
	case duty < LowDuty:
		c.outputEnabled = false
		c.enqueue(scpi.OutputOff())
		c.enqueue(scpi.SetCurrent(c.cfg.CurrentFloor))
		c.enqueue(scpi.SetVoltage(c.cfg.VoltageSet))
	case duty < HighDuty:
		c.enqueue(scpi.SetCurrent(Current(duty, c.cfg.CurrentMax)))
		if !c.outputEnabled {
			c.outputEnabled = true
			c.enqueue(scpi.OutputOn())
		}
	default:
		if !c.outputEnabled {
			c.outputEnabled = true
			c.enqueue(scpi.OutputOn())
		}
		c.enqueue(scpi.SetCurrent(c.cfg.CurrentMax))
	}
}

func (c *Controller) enqueue(cmd scpi.Command) {
	switch cmd.Kind() {
	case scpi.KindSetCurrent:
		c.current = cmd.Value()
	case scpi.KindSetVoltage:
		c.voltage = cmd.Value()
	}
	if evicted, dropped := c.queue.Enqueue(cmd); dropped {
		c.dropped++
		slog.Warn("command queue full, dropped oldest", "dropped", evicted.String(), "module", "throttle")
	}
}

// Next returns the command to send this tick. At most one command leaves the
// queue every MinTicksBetweenSend ticks.
func (c *Controller) Next() (scpi.Command, bool) {
	c.ticksSinceSend++
	if c.ticksSinceSend < c.cfg.MinTicksBetweenSend {
		return scpi.Command{}, false
	}
	c.ticksSinceSend = c.cfg.MinTicksBetweenSend
	cmd, ok := c.queue.Dequeue()
	if ok {
		c.ticksSinceSend = 0
	}
	return cmd, ok
}

func (c *Controller) State() State {
	avg, _ := c.window.Average()
	return State{
		Duty:          c.duty,
		Average:       uint8(avg),
		Stable:        c.window.AllSame(),
		Overdue:       c.overdue,
		Applied:       c.lastApplied,
		OutputEnabled: c.outputEnabled,
		Current:       c.current,
		Voltage:       c.voltage,
		Queued:        c.queue.Len(),
		Dropped:       c.dropped,
	}
}
