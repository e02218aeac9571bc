package locate

import "gonum.org/v1/gonum/floats"

// goodWindow reports whether the window of size samples starting at start
// contains no two consecutive bit-identical samples. A run of identical
// samples marks a flat-lined or saturated sensor segment that would corrupt
// the correlation statistics, so such windows are rejected outright.
//
// Precondition: start >= 0 and start+size <= len(signals). Exported callers
// validate the window range before calling.
func goodWindow(signals []float32, start, size int) bool {
	last := signals[start]
	for i := start + 1; i < start+size; i++ {
		if signals[i] == last {
			return false
		}
		last = signals[i]
	}
	return true
}

// windowStats holds the running sums of one correlation window.
type windowStats struct {
	sum, sumSq float64
	min, max   float64
}

// statsOf computes the running sums and extrema of a window already widened
// to float64.
func statsOf(w []float64) windowStats {
	return windowStats{
		sum:   floats.Sum(w),
		sumSq: floats.Dot(w, w),
		min:   floats.Min(w),
		max:   floats.Max(w),
	}
}

// widen copies a float32 window into a float64 scratch slice. float32 to
// float64 conversion is exact, so bit-identity comparisons and sums see the
// same values the wire arrays carry.
func widen(dst []float64, src []float32) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}
