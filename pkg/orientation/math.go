package orientation

import "math"

// degrees converts radians to degrees.
func degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// vecNorm returns the Euclidean norm of (x, y, z).
func vecNorm(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}
