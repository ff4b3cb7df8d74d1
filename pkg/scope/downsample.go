package scope

// Downsample decimates src to at most maxPoints entries for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise
// allocates a new slice. Returns the destination slice.
func Downsample[T any](dst []T, src []T, maxPoints int) []T {
	if maxPoints <= 0 || len(src) <= maxPoints {
		if cap(dst) >= len(src) {
			dst = dst[:len(src)]
			copy(dst, src)
			return dst
		}
		result := make([]T, len(src))
		copy(result, src)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]T, 0, maxPoints)
	}

	step := float64(len(src)) / float64(maxPoints)
	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(src) {
			dst = append(dst, src[idx])
		}
	}

	// Keep the newest point so the trace ends at the latest report.
	if n := len(dst); n > 0 {
		dst[n-1] = src[len(src)-1]
	}

	return dst
}
