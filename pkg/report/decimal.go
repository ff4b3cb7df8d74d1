//go:build !tinygo

package report

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/itohio/rtlab/pkg/history"
)

// FixedMean renders Sum / Count truncated (not rounded) to the given number of
// decimals, so that decimals == 0 matches the integer mean exactly.
func FixedMean(a history.Aggregate, decimals int) string {
	if a.Count == 0 {
		a.Count = 1
		a.Sum = 0
	}

	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundDown

	var q apd.Decimal
	if _, err := ctx.Quo(&q, apd.New(int64(a.Sum), 0), apd.New(int64(a.Count), 0)); err != nil {
		return "NaN"
	}
	if _, err := ctx.Quantize(&q, &q, -int32(decimals)); err != nil {
		return "NaN"
	}
	return q.Text('f')
}
