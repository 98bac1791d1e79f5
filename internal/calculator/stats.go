package calculator

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, 0 for an empty set.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation. If mean is non-nil it is
// used instead of the computed mean.
func StdDev(values []float64, mean *float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	if mean != nil {
		m = *mean
	}
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(values))
	if variance == 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// Median sorts a copy of values and returns the middle element, averaging the
// two middle elements for even-length sets.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// ZScores returns (x-mean)/stddev per element. A zero or non-finite stddev
// yields all zeros.
func ZScores(values []float64) []float64 {
	out := make([]float64, len(values))
	m := Mean(values)
	sd := StdDev(values, &m)
	if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return out
	}
	for i, v := range values {
		out[i] = (v - m) / sd
	}
	return out
}
