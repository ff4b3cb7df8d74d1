// Package report renders pipeline results as CRLF-terminated text lines.
//
//	LDR Value: <slot>      one per history slot, oldest first (optional)
//	Media: <mean>          always
//	Duty cycle: <duty>     PWM compare value for the mean (optional)
package report

import (
	"strconv"
	"time"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/history"
)

const (
	LabelSlot = "LDR Value"
	LabelMean = "Media"
	LabelDuty = "Duty cycle"

	// MaxDecimals bounds the fixed-point precision of the mean line.
	MaxDecimals = 6
)

// Record is one result travelling from the Aggregator to the Reporter.
type Record struct {
	Time      time.Time
	Aggregate history.Aggregate
	// Actuation is valid only when Actuated is set.
	Actuation actuate.Result
	Actuated  bool
}

// Options selects the optional report lines.
type Options struct {
	EchoHistory bool `yaml:"echo_history"`
	DutyLine    bool `yaml:"duty_line"`
	// Decimals > 0 prints the mean as a truncated fixed-point number.
	Decimals int `yaml:"decimals"`
}

// Formatter renders Records. It is not safe for concurrent use.
type Formatter struct {
	opts   Options
	pwmTop uint32
}

// NewFormatter creates a Formatter. pwmTop is the PWM period in counts used
// for the duty line.
func NewFormatter(opts Options, pwmTop uint32) *Formatter {
	if opts.Decimals < 0 {
		opts.Decimals = 0
	}
	if opts.Decimals > MaxDecimals {
		opts.Decimals = MaxDecimals
	}
	return &Formatter{opts: opts, pwmTop: pwmTop}
}

// Append renders rec and appends the lines to dst.
func (f *Formatter) Append(dst []byte, rec Record) []byte {
	if f.opts.EchoHistory {
		for _, v := range rec.Aggregate.Slots {
			dst = appendLabel(dst, LabelSlot)
			dst = strconv.AppendUint(dst, uint64(v), 10)
			dst = append(dst, '\r', '\n')
		}
	}

	dst = appendLabel(dst, LabelMean)
	if f.opts.Decimals > 0 {
		dst = append(dst, FixedMean(rec.Aggregate, f.opts.Decimals)...)
	} else {
		dst = strconv.AppendUint(dst, uint64(rec.Aggregate.Value()), 10)
	}
	dst = append(dst, '\r', '\n')

	if f.opts.DutyLine && rec.Actuated {
		dst = appendLabel(dst, LabelDuty)
		dst = strconv.AppendUint(dst, uint64(rec.Actuation.Duty(f.pwmTop)), 10)
		dst = append(dst, '\r', '\n')
	}

	return dst
}

func appendLabel(dst []byte, label string) []byte {
	dst = append(dst, label...)
	return append(dst, ':', ' ')
}
