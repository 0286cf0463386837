package main

import "github.com/mikesmitty/pwm-scpi/cmd"

func main() {
	cmd.Execute()
}
