package actuate

import "errors"

var (
	// ErrBadMode indicates an unknown mapper mode.
	ErrBadMode = errors.New("actuate: unknown mode")

	// ErrThresholdOrder indicates thresholds that are not strictly ascending.
	ErrThresholdOrder = errors.New("actuate: thresholds not ascending")

	// ErrFractions indicates a stepped fraction table of the wrong size or range.
	ErrFractions = errors.New("actuate: invalid fractions")

	// ErrRange indicates an invalid linear min/max range.
	ErrRange = errors.New("actuate: invalid range")
)
