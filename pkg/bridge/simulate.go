package bridge

import (
	"fmt"
	"io"
	"os"

	"github.com/mikesmitty/pwm-scpi/pkg/psu"
	"github.com/mikesmitty/pwm-scpi/pkg/throttle"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Simulate runs the throttle policy against a fixed duty schedule and prints
// the wire text of every command with its tick number.
func Simulate() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		SetupLogging()

		cfg, err := throttleConfig(viper.GetViper())
		errChk(err)

		steps, err := cmd.Flags().GetIntSlice("duty")
		errChk(err)
		ticks, err := cmd.Flags().GetInt("ticks")
		errChk(err)

		duties := make([]uint8, len(steps))
		for i, d := range steps {
			if d < 0 || d > 100 {
				errChk(fmt.Errorf("duty %d out of range", d))
			}
			duties[i] = uint8(d)
		}
		errChk(simulate(os.Stdout, cfg, duties, ticks))
	}
}

// simulate holds each duty for ticks control ticks.
func simulate(w io.Writer, cfg throttle.Config, duties []uint8, ticks int) error {
	ctrl, err := throttle.NewController(cfg)
	if err != nil {
		return err
	}
	port := psu.NewPort(w, "\n")
	tick := 0
	for _, duty := range duties {
		for i := 0; i < ticks; i++ {
			tick++
			cmd, ok := ctrl.Tick(duty)
			if !ok {
				continue
			}
			if _, err := fmt.Fprintf(w, "%6d duty=%-3d ", tick, duty); err != nil {
				return err
			}
			if err := port.Send(cmd); err != nil {
				return err
			}
		}
	}
	return nil
}
