// Package utils contains small numeric helpers shared across packages.
package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllFinite reports whether every value in vs is finite.
func AllFinite(vs []float64) bool {
	for _, v := range vs {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}

// AnglesDegToRad converts every angle in degs from degrees to radians, returning a new slice.
func AnglesDegToRad(degs []float64) []float64 {
	out := make([]float64, len(degs))
	for i, d := range degs {
		out[i] = DegToRad(d)
	}
	return out
}
