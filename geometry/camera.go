package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulIordache/Architecture-Web/core"
)

// Vec2 is a point in normalized device coordinates: x and y in [-1, 1],
// y pointing up.
type Vec2 struct {
	X, Y float64
}

// Camera is a perspective camera looking from Position at Target.
// FovY is the vertical field of view in degrees; Aspect is width/height.
type Camera struct {
	Position core.Vec3
	Target   core.Vec3
	Up       core.Vec3
	FovY     float64
	Aspect   float64
}

// DefaultCamera matches the project view: eye at (0,5,10), 50° fov.
func DefaultCamera(aspect float64) Camera {
	return Camera{
		Position: core.Vec3{X: 0, Y: 5, Z: 10},
		Target:   core.Vec3{},
		Up:       core.Vec3{Y: 1},
		FovY:     50,
		Aspect:   aspect,
	}
}

// Ray is a half-line from Origin along the unit vector Direction.
type Ray struct {
	Origin    core.Vec3
	Direction core.Vec3
}

// ScreenToNDC converts a pixel position inside a viewport of the given size
// to normalized device coordinates.
func ScreenToNDC(px, py, width, height float64) Vec2 {
	if width <= 0 || height <= 0 {
		return Vec2{}
	}
	return Vec2{
		X: (px/width)*2 - 1,
		Y: -(py/height)*2 + 1,
	}
}

// RayFromNDC casts a ray from the camera eye through ndc.
func (c Camera) RayFromNDC(ndc Vec2) Ray {
	eye := vec(c.Position)
	forward := vec(c.Target).Sub(eye).Normalize()
	up := vec(c.Up)
	if up.Len() == 0 {
		up = mgl64.Vec3{0, 1, 0}
	}
	right := forward.Cross(up).Normalize()
	trueUp := right.Cross(forward)

	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	tanHalf := math.Tan(mgl64.DegToRad(c.FovY) / 2)

	dir := forward.
		Add(right.Mul(ndc.X * tanHalf * aspect)).
		Add(trueUp.Mul(ndc.Y * tanHalf))
	return Ray{Origin: c.Position, Direction: fromVec(dir.Normalize())}
}

func vec(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromVec(v mgl64.Vec3) core.Vec3 {
	return core.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
