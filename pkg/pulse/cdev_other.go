//go:build !linux

package pulse

import (
	"context"

	"github.com/mikesmitty/pwm-scpi/pkg/capture"
)

// CdevSensor is not available on non-Linux platforms.
type CdevSensor struct{}

func NewCdevSensor(chipName string, offset int, clock *Clock) (*CdevSensor, error) {
	return nil, ErrUnsupported
}

func (s *CdevSensor) SelectRisingEdge()  {}
func (s *CdevSensor) SelectFallingEdge() {}

func (s *CdevSensor) Run(ctx context.Context, c *capture.Capture, periods chan<- struct{}) func() error {
	return func() error { return ErrUnsupported }
}

func (s *CdevSensor) High() bool   { return false }
func (s *CdevSensor) Close() error { return nil }
