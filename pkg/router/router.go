package router

import (
	"log/slog"
	"sync"
)

// Fan copies every value from input to each subscriber. A subscriber that has
// not taken its previous value misses the new one; Run never blocks on a slow
// consumer.
type Fan[T any] struct {
	debug   bool
	name    string
	mu      sync.Mutex
	input   <-chan T
	outputs map[string]chan T
	dropped map[string]int
}

func NewFan[T any](name string, input <-chan T) *Fan[T] {
	return &Fan[T]{
		name:    name,
		input:   input,
		outputs: make(map[string]chan T),
		dropped: make(map[string]int),
	}
}

func (f *Fan[T]) SetDebug(debug bool) {
	f.debug = debug
}

func (f *Fan[T]) Subscribe(client string) <-chan T {
	if f.debug {
		slog.Debug("subscribing to fan", "fan", f.name, "client", client)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.outputs[client]; ok {
		panic("client already subscribed")
	}
	c := make(chan T, 1)
	f.outputs[client] = c
	return c
}

func (f *Fan[T]) Unsubscribe(client string) {
	if f.debug {
		slog.Debug("unsubscribing from fan", "fan", f.name, "client", client)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.outputs[client]; !ok {
		panic("client not subscribed")
	}
	close(f.outputs[client])
	delete(f.outputs, client)
	delete(f.dropped, client)
}

// Dropped returns how many values client has missed.
func (f *Fan[T]) Dropped(client string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped[client]
}

// Run forwards values until input is closed, then closes every subscriber.
func (f *Fan[T]) Run() error {
	for v := range f.input {
		f.mu.Lock()
		for k, ch := range f.outputs {
			select {
			case ch <- v:
			default:
				f.dropped[k]++
				if f.debug {
					slog.Debug("fan subscriber busy, value dropped", "subscriber", k, "fan", f.name)
				}
			}
		}
		f.mu.Unlock()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, ch := range f.outputs {
		close(ch)
		delete(f.outputs, k)
	}
	return nil
}
