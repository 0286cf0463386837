//go:build tinygo

package capture

import "runtime/interrupt"

type interruptState = interrupt.State

// disableInterrupts masks interrupts for the duration of a cell read.
func disableInterrupts() interruptState {
	return interrupt.Disable()
}

func restoreInterrupts(state interruptState) {
	interrupt.Restore(state)
}
