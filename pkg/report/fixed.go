package report

import (
	"math/bits"
	"strconv"

	"github.com/itohio/rtlab/pkg/history"
)

// appendFixedMean is the integer rendition of FixedMean. The quotient fits in
// 64 bits because the mean of uint32 readings scaled by 10^MaxDecimals does.
func appendFixedMean(dst []byte, a history.Aggregate, decimals int) []byte {
	if a.Count <= 0 {
		a.Count = 1
		a.Sum = 0
	}
	if decimals < 0 {
		decimals = 0
	}

	pow := uint64(1)
	for range decimals {
		pow *= 10
	}

	hi, lo := bits.Mul64(a.Sum, pow)
	if hi >= uint64(a.Count) {
		return append(dst, "NaN"...)
	}
	q, _ := bits.Div64(hi, lo, uint64(a.Count))

	dst = strconv.AppendUint(dst, q/pow, 10)
	if decimals == 0 {
		return dst
	}

	dst = append(dst, '.')
	frac := strconv.AppendUint(nil, q%pow, 10)
	for range decimals - len(frac) {
		dst = append(dst, '0')
	}
	return append(dst, frac...)
}
