//go:build tinygo

package report

import "github.com/itohio/rtlab/pkg/history"

// FixedMean renders Sum / Count truncated (not rounded) to the given number of
// decimals, so that decimals == 0 matches the integer mean exactly.
func FixedMean(a history.Aggregate, decimals int) string {
	return string(appendFixedMean(nil, a, decimals))
}
