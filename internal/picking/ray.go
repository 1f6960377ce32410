// Package picking provides ray casting primitives for terrain queries.
package picking

import (
	gomath "math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    [3]float32
	Direction [3]float32 // Normalized direction
}

// Down returns a ray starting at (x, y, z) pointing straight down (-Y).
func Down(x, y, z float32) Ray {
	return Ray{Origin: [3]float32{x, y, z}, Direction: [3]float32{0, -1, 0}}
}

// PointAt returns the point at distance t along the ray.
func (r Ray) PointAt(t float32) [3]float32 {
	return [3]float32{
		r.Origin[0] + t*r.Direction[0],
		r.Origin[1] + t*r.Direction[1],
		r.Origin[2] + t*r.Direction[2],
	}
}

// IsVertical reports whether the ray has no horizontal component.
func (r Ray) IsVertical() bool {
	return r.Direction[0] == 0 && r.Direction[2] == 0 && r.Direction[1] != 0
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// NewAABB creates an AABB from min and max corners, handling negative scales.
func NewAABB(minX, minY, minZ, maxX, maxY, maxZ float32) AABB {
	box := AABB{
		Min: [3]float32{minX, minY, minZ},
		Max: [3]float32{maxX, maxY, maxZ},
	}
	for i := range 3 {
		if box.Min[i] > box.Max[i] {
			box.Min[i], box.Max[i] = box.Max[i], box.Min[i]
		}
	}
	return box
}

// ContainsXZ reports whether (x, z) lies within the box's horizontal extent.
func (b AABB) ContainsXZ(x, z float32) bool {
	return x >= b.Min[0] && x <= b.Max[0] && z >= b.Min[2] && z <= b.Max[2]
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	for axis := range 3 {
		if r.Direction[axis] != 0 {
			t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
			t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
		} else if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
			return 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}

	// Entry point, or exit point if starting inside
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle tests the ray against triangle (a, b, c) using the
// Möller–Trumbore algorithm. Both faces are hit. Points on an edge count.
func (r Ray) IntersectTriangle(a, b, c [3]float32) (t float32, hit bool) {
	const epsilon = 1e-7

	e1 := sub(b, a)
	e2 := sub(c, a)
	p := cross(r.Direction, e2)
	det := dot(e1, p)
	if det > -epsilon && det < epsilon {
		return 0, false // Parallel to the triangle plane
	}
	inv := 1 / det

	s := sub(r.Origin, a)
	u := dot(s, p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	q := cross(s, e1)
	v := dot(r.Direction, q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = dot(e2, q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
