// Package actuate maps a scalar reading to a discrete indicator tier and a
// proportional duty fraction. Classify is pure: no state, no I/O.
package actuate

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/itohio/rtlab/pkg/adc"
)

// Mode selects how the duty fraction is derived.
type Mode int

const (
	// Stepped uses a fixed fraction per tier.
	Stepped Mode = iota
	// Linear uses clamp(value, Min, Max) / Max.
	Linear
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case Stepped:
		return "stepped"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "stepped" or "linear" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stepped":
		return Stepped, nil
	case "linear":
		return Linear, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != Stepped && m != Linear {
		return nil, fmt.Errorf("%w: %d", ErrBadMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Table configures Classify.
//
// Thresholds are K-1 ascending boundaries splitting readings into K tiers.
// Fractions holds one duty fraction per tier and is only used in Stepped mode.
// Min and Max bound the reading in Linear mode.
type Table struct {
	Mode       Mode          `yaml:"mode"`
	Thresholds []adc.Reading `yaml:"thresholds"`
	Fractions  []float32     `yaml:"fractions,omitempty"`
	Min        adc.Reading   `yaml:"min,omitempty"`
	Max        adc.Reading   `yaml:"max,omitempty"`
}

// Tiers returns the number of tiers the table produces.
func (t Table) Tiers() int {
	return len(t.Thresholds) + 1
}

// Validate checks the table is usable.
func (t Table) Validate() error {
	for i := 1; i < len(t.Thresholds); i++ {
		if t.Thresholds[i] <= t.Thresholds[i-1] {
			return fmt.Errorf("%w: %d at index %d does not exceed %d",
				ErrThresholdOrder, t.Thresholds[i], i, t.Thresholds[i-1])
		}
	}

	switch t.Mode {
	case Stepped:
		if len(t.Fractions) != t.Tiers() {
			return fmt.Errorf("%w: %d tiers need %d fractions, got %d",
				ErrFractions, t.Tiers(), t.Tiers(), len(t.Fractions))
		}
		for i, f := range t.Fractions {
			if math32.IsNaN(f) || f < 0 || f > 1 {
				return fmt.Errorf("%w: fraction %v at index %d outside [0,1]", ErrFractions, f, i)
			}
		}
	case Linear:
		if t.Max == 0 {
			return fmt.Errorf("%w: max must be positive", ErrRange)
		}
		if t.Min > t.Max {
			return fmt.Errorf("%w: min %d exceeds max %d", ErrRange, t.Min, t.Max)
		}
	default:
		return fmt.Errorf("%w: %d", ErrBadMode, int(t.Mode))
	}

	return nil
}

// Result is the outcome of Classify.
type Result struct {
	Tier     int
	Fraction float32 // in [0,1]
}

// dutyTolerance absorbs float32 representation error so that fractions such
// as 0.29 of 1000 truncate to 290 rather than 289.
const dutyTolerance = 1e-6

// Duty scales the fraction to a PWM compare value for a period of top counts.
// The product is truncated, as integer duty arithmetic on the board does.
func (r Result) Duty(top uint32) uint32 {
	d := clampUnit(r.Fraction) * float32(top)
	d = math32.Floor(d + d*dutyTolerance)
	if d >= float32(top) {
		return top
	}
	return uint32(d)
}

// Permille returns the fraction in thousandths.
func (r Result) Permille() int {
	return int(r.Duty(1000))
}

// Classify maps v to a tier and a duty fraction.
//
// The tier is the number of thresholds v is at or above, so values below the
// first boundary are tier 0 and values at or above the last boundary land in
// the top tier. The fraction is always in [0,1]. Classify is total for any
// table; tables that fail Validate still yield a clamped result.
func Classify(v adc.Reading, t Table) Result {
	tier := 0
	for _, boundary := range t.Thresholds {
		if v < boundary {
			break
		}
		tier++
	}

	var f float32
	switch t.Mode {
	case Linear:
		f = linearFraction(v, t.Min, t.Max)
	default:
		f = steppedFraction(tier, t.Fractions)
	}

	return Result{Tier: tier, Fraction: clampUnit(f)}
}

func steppedFraction(tier int, fractions []float32) float32 {
	if len(fractions) == 0 {
		return 0
	}
	if tier >= len(fractions) {
		return fractions[len(fractions)-1]
	}
	return fractions[tier]
}

func linearFraction(v, lo, hi adc.Reading) float32 {
	if hi == 0 {
		return 0
	}
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return float32(v) / float32(hi)
}

func clampUnit(f float32) float32 {
	if math32.IsNaN(f) {
		return 0
	}
	return math32.Max(0, math32.Min(1, f))
}
