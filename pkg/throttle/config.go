package throttle

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Duty thresholds in percent.
const (
	LowDuty  = 10
	HighDuty = 90
)

// Upper bounds for supply settings.
const (
	MaxCurrentSetting = 100.0
	MaxVoltageSetting = 1000.0
)

// minBatchSpace is the free queue space required before a decision is queued.
const minBatchSpace = 2

var (
	ErrTickCount = errors.New("tick counts must be at least 1")
	ErrQueueSize = errors.New("queue must hold at least 3 commands")
	ErrCurrent   = errors.New("current limits must be positive and at most 100A")
	ErrVoltage   = errors.New("voltage must be positive and at most 1000V")
)

// Config holds the fixed tuning of the throttle policy. All counts are in
// control ticks.
type Config struct {
	// WindowSize is the number of consecutive identical samples required
	// before a value is considered stable.
	WindowSize int
	// MaxTicksBetweenUpdate forces a resend after this many ticks without one.
	MaxTicksBetweenUpdate int
	// MinTicksBetweenSend rate limits the serial link.
	MinTicksBetweenSend int
	QueueSize           int

	CurrentMax   float64
	CurrentFloor float64
	VoltageSet   float64
}

// DefaultConfig matches a 10ms tick: 20ms debounce, 1s forced resend and
// at most one command every 50ms.
func DefaultConfig() Config {
	return Config{
		WindowSize:            2,
		MaxTicksBetweenUpdate: 100,
		MinTicksBetweenSend:   5,
		QueueSize:             5,
		CurrentMax:            4.0,
		CurrentFloor:          0.1,
		VoltageSet:            20.0,
	}
}

// Ticks converts an interval to a whole number of ticks, truncating.
func Ticks(interval, tick time.Duration) int {
	if tick <= 0 {
		return 0
	}
	return int(interval / tick)
}

func (c Config) Validate() error {
	if c.WindowSize < 1 || c.MaxTicksBetweenUpdate < 1 || c.MinTicksBetweenSend < 1 {
		return fmt.Errorf("window %d, max update %d, min send %d: %w",
			c.WindowSize, c.MaxTicksBetweenUpdate, c.MinTicksBetweenSend, ErrTickCount)
	}
	if c.QueueSize < 3 {
		return fmt.Errorf("queue size %d: %w", c.QueueSize, ErrQueueSize)
	}
	if !inRange(c.CurrentMax, MaxCurrentSetting) || !inRange(c.CurrentFloor, MaxCurrentSetting) {
		return fmt.Errorf("current max %v, floor %v: %w", c.CurrentMax, c.CurrentFloor, ErrCurrent)
	}
	if !inRange(c.VoltageSet, MaxVoltageSetting) {
		return fmt.Errorf("voltage %v: %w", c.VoltageSet, ErrVoltage)
	}
	return nil
}

// inRange reports whether v is finite and in (0, limit].
func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v <= limit
}
