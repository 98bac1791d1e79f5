package calculator

import "math"

// Range returns the minimum and maximum of values. Both are 0 for an empty set.
func Range(values []float64) (low, high float64) {
	if len(values) == 0 {
		return 0, 0
	}
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, v := range values {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high
}

// NormalizeToUnit min-max scales values into [0, 1]. When every value is
// equal there is no signal and each output is 0.5.
func NormalizeToUnit(values []float64) []float64 {
	out := make([]float64, len(values))
	low, high := Range(values)
	if high == low {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range values {
		out[i] = Clamp01((v - low) / (high - low))
	}
	return out
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
