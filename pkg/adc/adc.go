package adc

import (
	"fmt"
	"math"
	"runtime"
	"time"
)

const (
	// DefaultTimeout bounds the busy-wait for conversion completion.
	DefaultTimeout = 10 * time.Millisecond
	// FullScale12 is the largest code of a 12-bit converter.
	FullScale12 = 4095
)

// Reading is a sensor magnitude in the converter's native unit (raw code) or
// in a derived physical unit after Scale.
type Reading uint32

// Source is the analog converter collaborator.
type Source interface {
	StartConversion() error
	IsReady() bool
	Read() (Reading, error)
}

// Convert triggers one conversion on src and spins until it completes.
// The spin is bounded by timeout, which stands for the hardware completion
// latency; a zero timeout uses DefaultTimeout.
func Convert(src Source, timeout time.Duration) (Reading, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if err := src.StartConversion(); err != nil {
		return 0, fmt.Errorf("failed to start conversion: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for !src.IsReady() {
		if time.Now().After(deadline) {
			return 0, ErrNotReady
		}
		runtime.Gosched()
	}

	r, err := src.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read conversion: %w", err)
	}
	return r, nil
}

// Scale converts raw converter codes into a derived unit.
// Formula: units = raw * VRef / FullScale * UnitsPerVolt
// e.g. an LM35 (10 mV/°C) on a 3.3 V 12-bit converter uses
// {VRef: 3.3, FullScale: 4095, UnitsPerVolt: 100}.
type Scale struct {
	VRef         float64 `yaml:"vref"`
	FullScale    uint32  `yaml:"full_scale"`
	UnitsPerVolt float64 `yaml:"units_per_volt"`
}

// Enabled reports whether the scale changes readings at all.
func (s Scale) Enabled() bool {
	return s.UnitsPerVolt > 0 && s.VRef > 0 && s.FullScale > 0
}

// Apply converts r. A disabled scale returns r unchanged.
// Results are truncated toward zero like the integer firmware math and
// saturate at math.MaxUint32.
func (s Scale) Apply(r Reading) Reading {
	if !s.Enabled() {
		return r
	}
	volts := float64(r) * s.VRef / float64(s.FullScale)
	units := volts * s.UnitsPerVolt
	if units < 0 {
		return 0
	}
	if units >= math.MaxUint32 {
		return math.MaxUint32
	}
	return Reading(units)
}
