package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness.
// Every function returns 0 for empty input instead of NaN.

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	if isConstant(data) {
		return data[0]
	}
	return stat.Mean(data, nil)
}

// PopulationStdDev calculates the standard deviation with an N denominator
func PopulationStdDev(data []float64) float64 {
	if len(data) == 0 || isConstant(data) {
		return 0.0
	}
	_, variance := stat.PopMeanVariance(data, nil)
	return math.Sqrt(variance)
}

// isConstant reports whether every value equals the first, so summaries of
// a flat series are exact rather than subject to summation rounding
func isConstant(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}

// Median returns the middle value, averaging the two central values for even lengths
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2.0
	}
	return sorted[mid]
}

// Min returns the smallest value
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Min(data)
}

// Max returns the largest value
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Max(data)
}

// MaxAbs returns the largest absolute value
func MaxAbs(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// CrestFactor is peak amplitude over RMS amplitude, 0 for an all-zero signal
func CrestFactor(data []float64) float64 {
	rms := RMS(data)
	if rms == 0 {
		return 0.0
	}
	return MaxAbs(data) / rms
}

// DropNaN returns the non-NaN values of data in their original order
func DropNaN(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// NaNToZero maps NaN to 0 and leaves every other value untouched
func NaNToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0.0
	}
	return v
}
