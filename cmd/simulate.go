package cmd

import (
	"github.com/mikesmitty/pwm-scpi/pkg/bridge"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Print the commands the bridge would send for a duty schedule",
	Example: `  pwm-scpi simulate --duty 50,5,95 --ticks 200`,
	Run: bridge.Simulate(),
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntSlice("duty", []int{50}, "Duty cycles to step through, in percent")
	simulateCmd.Flags().Int("ticks", 200, "Control ticks spent at each duty")
}
