package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NormalizeAngle reduces a yaw angle in radians to (-π, π]. NaN and
// infinities normalize to 0.
func NormalizeAngle(rad float64) float64 {
	if math.IsNaN(rad) || math.IsInf(rad, 0) {
		return 0
	}
	r := math.Mod(rad, 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	} else if r > math.Pi {
		r -= 2 * math.Pi
	}
	return r
}

// Radians converts degrees to a normalized yaw.
func Radians(deg float64) float64 {
	return NormalizeAngle(mgl64.DegToRad(deg))
}

// Degrees converts a yaw in radians to degrees.
func Degrees(rad float64) float64 {
	return mgl64.RadToDeg(rad)
}
