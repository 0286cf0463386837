package bridge

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikesmitty/pwm-scpi/pkg/pwmgen"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"
)

// Generate drives a PWM output for loopback tests of the capture input. With
// --sweep-to it ramps the duty, otherwise it holds --duty until interrupted.
func Generate() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		SetupLogging()
		errChk(InitHost())

		flags := cmd.Flags()
		pin, _ := flags.GetString("out-pin")
		freqStr, _ := flags.GetString("frequency")
		duty, _ := flags.GetUint8("duty")
		sweepTo, _ := flags.GetInt("sweep-to")
		step, _ := flags.GetUint8("step")
		dwell, _ := flags.GetDuration("dwell")

		var freq physic.Frequency
		errChk(freq.Set(freqStr))

		gen, err := pwmgen.NewGenerator(pin, freq)
		errChk(err)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
		defer cancel()

		if sweepTo >= 0 {
			err = gen.Sweep(ctx, duty, uint8(min(sweepTo, 100)), step, dwell)
		} else {
			err = gen.Set(duty)
			if err == nil {
				<-ctx.Done()
			}
		}

		slog.Info("stopping pwm output", "pin", pin)
		if stopErr := gen.Stop(); stopErr != nil {
			slog.Error("stop failed", "error", stopErr)
		}
		if err != nil && ctx.Err() == nil {
			errChk(err)
		}
		os.Exit(0)
	}
}
