// Package util contains misc internal utilities.
package util

// Arange returns n linearly spaced values starting at origin, stepping by
// step.  It is how axes are materialized from a (origin, step, count)
// calibration.
func Arange(origin, step float64, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = origin + float64(i)*step
	}
	return v
}

// Sum adds up a slice of floats
func Sum(v []float64) float64 {
	s := 0.0
	for _, f := range v {
		s += f
	}
	return s
}

// Clamp returns x restricted to the range [low, high]
func Clamp(x, low, high float64) float64 {
	if x < low {
		return low
	}
	if x > high {
		return high
	}
	return x
}
