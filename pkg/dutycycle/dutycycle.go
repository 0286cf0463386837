package dutycycle

import (
	"log/slog"

	"github.com/mikesmitty/pwm-scpi/pkg/stats"
	"github.com/mikesmitty/pwm-scpi/pkg/throttle"
)

// Report summarises the measured duty cycle over the recent history.
type Report struct {
	Mean   float64
	Jitter float64 // standard deviation, percent
	Spread float64 // 5th to 95th percentile range, percent
	Trend  float64 // percent per tick
}

// NewDutyCycle emits a Report every rate control ticks, computed over the last
// size ticks.
func NewDutyCycle(input <-chan throttle.State, size, rate int) (<-chan Report, func() error) {
	c := make(chan Report, 1)
	if rate < 1 {
		rate = 1
	}
	return c, func() error {
		defer close(c)
		s := stats.NewStats(size)
		n := 0
		for v := range input {
			s.Add(float64(v.Duty))
			n++
			if n < rate {
				continue
			}
			n = 0
			r := Report{
				Mean:   s.Mean(),
				Jitter: s.StdDev(),
				Spread: s.QuantileSpread(0.05),
				Trend:  s.Slope(),
			}
			slog.Debug("duty cycle", "mean", r.Mean, "jitter", r.Jitter, "spread", r.Spread, "trend", r.Trend, "module", "dutycycle")
			select {
			case c <- r:
			default:
			}
		}
		return nil
	}
}
