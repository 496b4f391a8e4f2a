package core

import "math"

// Clamp limits v to [lo, hi]. lo must not exceed hi.
func Clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// LinearToDB converts an amplitude factor to decibels. Silence maps to
// -Inf and negative factors to NaN.
func LinearToDB(linear float64) float64 {
	switch {
	case linear < 0:
		return math.NaN()
	case linear == 0:
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// Percent maps a 0-100 control value onto a 0-1 factor.
func Percent(v float64) float64 {
	return v / 100
}
