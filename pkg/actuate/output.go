package actuate

// Output drives the physical actuators (indicator lights and PWM) from a
// classification result.
type Output interface {
	Apply(r Result) error
}

// OutputFunc adapts a function to Output.
type OutputFunc func(r Result) error

// Apply calls f(r).
func (f OutputFunc) Apply(r Result) error {
	return f(r)
}

// Indicator returns the one-hot mask lighting the LED for r's tier out of n
// indicators. Tiers beyond n-1 light the last indicator.
func Indicator(r Result, n int) uint32 {
	if n <= 0 {
		return 0
	}
	tier := r.Tier
	if tier < 0 {
		tier = 0
	}
	if tier >= n {
		tier = n - 1
	}
	return 1 << uint(tier)
}
