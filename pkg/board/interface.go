package board

import (
	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
)

// Device is a board (real or mocked) that converts on request and drives the
// indicator and PWM outputs.
type Device interface {
	adc.Source
	actuate.Output
	Connect() error
	Close() error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
