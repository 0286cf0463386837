package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikesmitty/pwm-scpi/pkg/capture"
	"github.com/mikesmitty/pwm-scpi/pkg/dutycycle"
	"github.com/mikesmitty/pwm-scpi/pkg/mqtt"
	"github.com/mikesmitty/pwm-scpi/pkg/psu"
	"github.com/mikesmitty/pwm-scpi/pkg/pulse"
	"github.com/mikesmitty/pwm-scpi/pkg/router"
	"github.com/mikesmitty/pwm-scpi/pkg/throttle"
	"github.com/mikesmitty/pwm-scpi/pkg/watchdog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
)

func Root() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		SetupLogging()

		v := viper.GetViper()
		tickInterval := v.GetDuration("tick-interval")
		cfg, err := throttleConfig(v)
		errChk(err)
		slog.Info("throttle config", "window", cfg.WindowSize, "maxUpdate", cfg.MaxTicksBetweenUpdate,
			"minSend", cfg.MinTicksBetweenSend, "queue", cfg.QueueSize)

		ctx, cancelFunc := context.WithCancel(context.Background())
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(-1)

		// PWM input
		var cell capture.Cell
		source, err := openSource(v)
		errChk(err)
		closers := []io.Closer{source}

		periods := make(chan struct{}, 1)
		capt := capture.New(source, &cell)
		captureRun := source.Run(ctx, capt, periods)
		captureDone := make(chan struct{})
		slog.Debug("starting capture", "backend", v.GetString("gpio-backend"))
		g.Go(func() error {
			defer close(captureDone)
			return captureRun()
		})

		// Signal loss holds the output at whatever level the input is stuck at
		g.Go(watchdog.NewWatchdog(ctx, "pwm", signalTimeout(v), func() error {
			holdLevel(&cell, source)
			return nil
		}, periods))

		// PSU link
		var port *psu.Port
		if v.GetBool("dry-run") {
			port = psu.NewPort(os.Stdout, "\n")
		} else {
			serialCfg, err := serialConfig(v)
			errChk(err)
			port, err = psu.Open(serialCfg)
			errChk(err)
			closers = append(closers, port)
		}

		// Control loop
		ctrl, err := throttle.NewController(cfg)
		errChk(err)
		stateCh, run := ctrl.Runner(ctx, tickInterval, &cell, port)
		runDone := make(chan struct{})
		slog.Debug("starting control loop", "tick", tickInterval)
		g.Go(func() error {
			defer close(runDone)
			return run()
		})
		stateFan := router.NewFan[throttle.State]("state", stateCh)
		stateFan.SetDebug(v.GetBool("debug"))

		// Duty statistics
		reportCh, dutyCycle := dutycycle.NewDutyCycle(stateFan.Subscribe("dutycycle"), v.GetInt("stats-window"), v.GetInt("mqtt-sample-interval"))
		g.Go(dutyCycle)

		// MQTT
		if broker := v.GetString("mqtt-broker"); broker != "" {
			mqttUrl, err := url.Parse(broker)
			errChk(err)
			mc := mqtt.NewClient(mqttUrl, v.GetInt("mqtt-sample-interval"))
			errChk(mc.Connect())
			closers = append(closers, closerFunc(func() error {
				mc.Disconnect()
				return nil
			}))
			g.Go(mc.GetPublisher(ctx, stateFan.Subscribe("mqtt"), reportCh))
			errChk(mc.HomeAssistant())
		} else {
			g.Go(drain(reportCh))
		}
		g.Go(stateFan.Run)

		// Signal handling
		chanSignal := make(chan os.Signal, 1)
		signal.Notify(chanSignal, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)

		g.Go(func() error {
			defer cancelFunc()
			exit := false
			select {
			case <-ctx.Done():
			case <-chanSignal:
				exit = true
			}
			slog.Info("shutting down...")
			cancelFunc()
			if err := shutdown([]<-chan struct{}{runDone, captureDone}, port, closers...); err != nil {
				slog.Error("shutdown failed", "error", err)
			}
			if exit {
				os.Exit(0)
			}
			return nil
		})

		slog.Debug("waiting for goroutines to finish")
		err = g.Wait()
		errChk(err)
	}
}

// shutdown waits for the given goroutines to stop, turns the supply output
// off and then releases closers in order. Every step runs even if an earlier
// one fails.
func shutdown(stopped []<-chan struct{}, port interface{ Shutdown() error }, closers ...io.Closer) error {
	for _, ch := range stopped {
		<-ch
	}
	var errs []error
	slog.Info("disabling supply output...")
	if err := port.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("disable output: %w", err))
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// SetupLogging installs the default slog text handler on stderr.
func SetupLogging() {
	slogOpts := slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if viper.GetBool("debug") {
		slogOpts.Level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slogOpts))
	slog.SetDefault(log)
}

// InitHost loads the periph host drivers.
func InitHost() error {
	hostState, err := host.Init()
	if err != nil {
		return err
	}
	for i := range hostState.Loaded {
		slog.Debug("loaded", "module", hostState.Loaded[i])
	}
	for i := range hostState.Failed {
		slog.Error("failed", "module", hostState.Failed[i])
	}
	for i := range hostState.Skipped {
		slog.Debug("skipped", "module", hostState.Skipped[i])
	}
	return nil
}

func openSource(v *viper.Viper) (pulse.Source, error) {
	clock := pulse.NewClock(v.GetDuration("capture-resolution"))
	switch backend := v.GetString("gpio-backend"); backend {
	case "", "periph":
		if err := InitHost(); err != nil {
			return nil, err
		}
		return pulse.NewPeriphSensor(v.GetString("pin"), gpio.PullNoChange, clock)
	case "gpiocdev":
		return pulse.NewCdevSensor(v.GetString("gpio-chip"), v.GetInt("gpio-line"), clock)
	default:
		return nil, fmt.Errorf("unknown gpio backend %q", backend)
	}
}

// levelReader reports the current input level.
type levelReader interface {
	High() bool
}

// holdLevel stores the duty implied by a stuck input: 100 when held high,
// 0 when held low.
func holdLevel(cell *capture.Cell, in levelReader) {
	high := in.High()
	duty := uint8(0)
	if high {
		duty = 100
	}
	slog.Debug("pwm signal lost", "high", high, "duty", duty, "module", "capture")
	cell.Store(duty)
}

func drain[T any](ch <-chan T) func() error {
	return func() error {
		for range ch {
		}
		return nil
	}
}

func errChk(err error) {
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
