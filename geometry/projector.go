// Package geometry maps pointer input onto the horizontal placement plane.
package geometry

import (
	"math"

	"github.com/paulIordache/Architecture-Web/core"
)

// parallelEpsilon bounds |dot(normal, direction)| below which a ray is
// treated as parallel to the plane.
const parallelEpsilon = 1e-9

// Plane is the set of points p with dot(Normal, p) + Constant = 0.
type Plane struct {
	Normal   core.Vec3
	Constant float64
}

// HorizontalPlane returns the plane y = height with an upward normal.
func HorizontalPlane(height float64) Plane {
	return Plane{Normal: core.Vec3{Y: 1}, Constant: -height}
}

// IntersectPlane returns where r meets p. ok is false when the ray is
// parallel to the plane or points away from it.
func (r Ray) IntersectPlane(p Plane) (core.Vec3, bool) {
	n, origin, dir := vec(p.Normal), vec(r.Origin), vec(r.Direction)
	denom := n.Dot(dir)
	if math.Abs(denom) < parallelEpsilon {
		return core.Vec3{}, false
	}
	t := -(n.Dot(origin) + p.Constant) / denom
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return core.Vec3{}, false
	}
	return fromVec(origin.Add(dir.Mul(t))), true
}

// Project casts a ray from cam through ndc and intersects it with the
// horizontal plane at height. The returned point has Y == height.
func Project(ndc Vec2, cam Camera, height float64) (core.Vec3, bool) {
	pt, ok := cam.RayFromNDC(ndc).IntersectPlane(HorizontalPlane(height))
	if !ok {
		return core.Vec3{}, false
	}
	pt.Y = height
	return pt, true
}
