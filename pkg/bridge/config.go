package bridge

import (
	"fmt"
	"time"

	"github.com/mikesmitty/pwm-scpi/pkg/psu"
	"github.com/mikesmitty/pwm-scpi/pkg/throttle"
	"github.com/spf13/viper"
)

// throttleConfig derives policy tick counts from the configured intervals.
func throttleConfig(v *viper.Viper) (throttle.Config, error) {
	tick := v.GetDuration("tick-interval")
	if tick <= 0 {
		return throttle.Config{}, fmt.Errorf("tick-interval %v: %w", tick, throttle.ErrTickCount)
	}
	cfg := throttle.Config{
		WindowSize:            throttle.Ticks(v.GetDuration("debounce-interval"), tick),
		MaxTicksBetweenUpdate: throttle.Ticks(v.GetDuration("max-update-interval"), tick),
		MinTicksBetweenSend:   throttle.Ticks(v.GetDuration("min-send-interval"), tick),
		QueueSize:             v.GetInt("queue-size"),
		CurrentMax:            v.GetFloat64("current-max"),
		CurrentFloor:          v.GetFloat64("current-floor"),
		VoltageSet:            v.GetFloat64("voltage-set"),
	}
	return cfg, cfg.Validate()
}

func serialConfig(v *viper.Viper) (psu.Config, error) {
	cfg := psu.DefaultConfig(v.GetString("serial-port"))
	if baud := v.GetInt("baud"); baud > 0 {
		cfg.Baud = baud
	}
	le, err := psu.ParseLineEnding(v.GetString("line-ending"))
	if err != nil {
		return cfg, err
	}
	cfg.LineEnding = le
	return cfg, nil
}

func signalTimeout(v *viper.Viper) time.Duration {
	if t := v.GetDuration("signal-timeout"); t > 0 {
		return t
	}
	return time.Second
}
