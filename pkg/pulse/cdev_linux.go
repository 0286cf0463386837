//go:build linux

package pulse

import (
	"context"
	"fmt"

	"github.com/mikesmitty/pwm-scpi/pkg/capture"
	"github.com/warthog618/go-gpiocdev"
)

// CdevSensor reads edges from the Linux GPIO character device. Events carry
// kernel timestamps so user space scheduling latency does not skew widths.
// Both edges are requested once; the selected polarity only filters events.
type CdevSensor struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	offset int
	clock  *Clock
	events chan gpiocdev.LineEvent
	want   gpiocdev.LineEventType
}

func NewCdevSensor(chipName string, offset int, clock *Clock) (*CdevSensor, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	s := &CdevSensor{
		chip:   chip,
		offset: offset,
		clock:  clock,
		events: make(chan gpiocdev.LineEvent, 64),
		want:   gpiocdev.LineEventRisingEdge,
	}
	line, err := chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handle))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request line %d: %w", offset, err)
	}
	s.line = line
	return s, nil
}

// handle runs on the gpiocdev event goroutine and must not block.
func (s *CdevSensor) handle(evt gpiocdev.LineEvent) {
	select {
	case s.events <- evt:
	default:
	}
}

func (s *CdevSensor) SelectRisingEdge() {
	s.want = gpiocdev.LineEventRisingEdge
}

func (s *CdevSensor) SelectFallingEdge() {
	s.want = gpiocdev.LineEventFallingEdge
}

// accept reports whether evt has the selected polarity.
func (s *CdevSensor) accept(evt gpiocdev.LineEvent) bool {
	return evt.Type == s.want
}

func (s *CdevSensor) Run(ctx context.Context, c *capture.Capture, periods chan<- struct{}) func() error {
	return func() error {
		c.Reset()
		done := ctx.Done()
		for {
			select {
			case <-done:
				return nil
			case evt := <-s.events:
				if !s.accept(evt) {
					continue
				}
				if _, ok := c.OnEvent(s.clock.Ticks(evt.Timestamp)); ok {
					notify(periods)
				}
			}
		}
	}
}

func (s *CdevSensor) High() bool {
	v, err := s.line.Value()
	return err == nil && v == 1
}

// Close returns the line to a plain pulled-down input before releasing it.
func (s *CdevSensor) Close() error {
	var errs []error
	if s.line != nil {
		if err := s.line.Reconfigure(gpiocdev.WithoutEdges); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", s.offset, err))
		}
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", s.offset, err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
