package race

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	up   = mgl64.Vec3{0, 1, 0}
	down = mgl64.Vec3{0, -1, 0}
)

// HorizontalDistance is the distance between a and b in the XZ plane.
func HorizontalDistance(a, b mgl64.Vec3) float64 {
	return math.Hypot(a.X()-b.X(), a.Z()-b.Z())
}

// rotateY rotates v about the +Y axis by angle radians.
func rotateY(v mgl64.Vec3, angle float64) mgl64.Vec3 {
	return mgl64.Rotate3DY(angle).Mul3x1(v)
}

// forward is the unit vector a car with the given heading drives along. A heading of 0 faces +Z.
func forward(heading float64) mgl64.Vec3 {
	return rotateY(mgl64.Vec3{0, 0, 1}, heading)
}

func horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

func lerp(from, to, factor float64) float64 {
	return from + (to-from)*factor
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}

	if v > maxV {
		return maxV
	}

	return v
}
