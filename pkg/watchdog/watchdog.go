package watchdog

import (
	"context"
	"log/slog"
	"time"
)

// NewWatchdog calls expired once per interval in which nothing arrived on
// input. It keeps firing while input stays silent.
func NewWatchdog[T any](ctx context.Context, name string, interval time.Duration, expired func() error, input <-chan T) func() error {
	return func() error {
		t := time.NewTicker(interval)
		defer t.Stop()
		awake := true
		tripped := false
		done := ctx.Done()
		slog.Debug("watchdog started", "watchdog", name, "timeout", interval)
		for {
			select {
			case <-done:
				return nil
			case <-input:
				if tripped {
					slog.Info("watchdog input resumed", "watchdog", name)
					tripped = false
				}
				awake = true
			case <-t.C:
				if !awake {
					if !tripped {
						slog.Warn("watchdog timeout", "watchdog", name, "timeout", interval)
						tripped = true
					}
					if err := expired(); err != nil {
						return err
					}
				}
				awake = false
			}
		}
	}
}
