package cmd

import (
	"time"

	"github.com/mikesmitty/pwm-scpi/pkg/bridge"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Output a PWM signal for loopback testing",
	Run:   bridge.Generate(),
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("out-pin", "GPIO13", "periph name of the PWM output pin")
	generateCmd.Flags().String("frequency", "1kHz", "PWM frequency")
	generateCmd.Flags().Uint8("duty", 50, "Duty cycle in percent")
	generateCmd.Flags().Int("sweep-to", -1, "Ramp the duty from --duty to this value, then exit")
	generateCmd.Flags().Uint8("step", 5, "Sweep step in percent")
	generateCmd.Flags().Duration("dwell", 2*time.Second, "Time spent at each sweep step")
}
