package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mikesmitty/pwm-scpi/pkg/bridge"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pwm-scpi",
	Short: "Drive a bench power supply from a PWM duty cycle",
	Long: `pwm-scpi measures the duty cycle of a PWM input on a GPIO pin and
sets the output current of a KORAD-style power supply over its serial link.

Below 10% duty the output is disabled, above 90% it runs at full current,
and in between the current scales linearly.`,
	Run: bridge.Root(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pwm-scpi.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("gpio-backend", "periph", "PWM input backend: periph or gpiocdev")
	rootCmd.PersistentFlags().String("pin", "GPIO17", "periph name of the PWM input pin")
	rootCmd.PersistentFlags().String("gpio-chip", "gpiochip0", "gpiocdev chip carrying the PWM input")
	rootCmd.PersistentFlags().Int("gpio-line", 17, "gpiocdev line offset of the PWM input")
	rootCmd.PersistentFlags().Duration("capture-resolution", 500*time.Nanosecond, "Duration of one capture counter tick")
	rootCmd.PersistentFlags().Duration("signal-timeout", 1*time.Second, "Hold the input level after this long without a PWM period")
	rootCmd.PersistentFlags().String("serial-port", "/dev/ttyUSB0", "Power supply serial port")
	rootCmd.PersistentFlags().Int("baud", 9600, "Power supply baud rate")
	rootCmd.PersistentFlags().String("line-ending", "", `Command terminator, e.g. "\n" (KORAD supplies use none)`)
	rootCmd.PersistentFlags().Bool("dry-run", false, "Write commands to stdout instead of the serial port")
	rootCmd.PersistentFlags().Duration("tick-interval", 10*time.Millisecond, "Control loop period")
	rootCmd.PersistentFlags().Duration("debounce-interval", 20*time.Millisecond, "Duty must be unchanged this long before it is applied")
	rootCmd.PersistentFlags().Duration("max-update-interval", 1*time.Second, "Resend the current setting at least this often")
	rootCmd.PersistentFlags().Duration("min-send-interval", 50*time.Millisecond, "Minimum spacing of serial commands")
	rootCmd.PersistentFlags().Int("queue-size", 5, "Command queue capacity")
	rootCmd.PersistentFlags().Float64("current-max", 4.0, "Current at full duty (A)")
	rootCmd.PersistentFlags().Float64("current-floor", 0.1, "Current set while the output is disabled (A)")
	rootCmd.PersistentFlags().Float64("voltage-set", 20.0, "Voltage set while the output is disabled (V)")
	rootCmd.PersistentFlags().String("mqtt-broker", "", "mqtt broker url")
	rootCmd.PersistentFlags().Int("mqtt-sample-interval", 10, "Publish every Nth controller state")
	rootCmd.PersistentFlags().Int("stats-window", 100, "Ticks of duty history used for jitter statistics")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pwm-scpi" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pwm-scpi")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
