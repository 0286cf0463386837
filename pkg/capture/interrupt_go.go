//go:build !tinygo

package capture

// interruptState is a placeholder on regular Go, where the edge handler runs on
// its own goroutine and the atomic load alone gives the snapshot.
type interruptState uintptr

func disableInterrupts() interruptState {
	return 0
}

func restoreInterrupts(state interruptState) {}
