package terrain

import (
	gomath "math"

	"github.com/Faultbox/grove/internal/picking"
	"github.com/Faultbox/grove/pkg/math"
)

// Hit describes a ray/collider intersection.
type Hit struct {
	Point    math.Vec3
	Normal   math.Vec3 // face normal of the hit triangle
	Distance float32
	Triangle int
}

// Collider is an immutable world-space copy of a mesh used only for ray queries.
// A new collider is built for every mesh change; existing ones are never edited.
type Collider struct {
	positions [][3]float32
	indices   []uint32
	width     int
	depth     int
	origin    math.Vec3
	cell      math.Vec3 // world size of one grid cell on X and Z
	bounds    picking.AABB
}

// NewCollider bakes the mesh into world space using tr.
func NewCollider(m *Mesh, tr Transform) *Collider {
	mat := tr.Matrix()
	positions := make([][3]float32, len(m.Vertices))
	b := Bounds{
		Min: [3]float32{gomath.MaxFloat32, gomath.MaxFloat32, gomath.MaxFloat32},
		Max: [3]float32{-gomath.MaxFloat32, -gomath.MaxFloat32, -gomath.MaxFloat32},
	}
	for i, v := range m.Vertices {
		positions[i] = mat.TransformPoint(v.Position)
		updateBounds(&b, positions[i])
	}

	indices := make([]uint32, len(m.Indices))
	copy(indices, m.Indices)

	return &Collider{
		positions: positions,
		indices:   indices,
		width:     m.Width,
		depth:     m.Depth,
		origin:    tr.Position,
		cell:      tr.Scale,
		bounds:    picking.NewAABB(b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2]),
	}
}

// Bounds returns the world-space bounding box.
func (c *Collider) Bounds() picking.AABB {
	return c.bounds
}

// Raycast returns the nearest hit within maxDistance.
func (c *Collider) Raycast(r picking.Ray, maxDistance float32) (Hit, bool) {
	if _, ok := r.IntersectAABB(c.bounds); !ok {
		return Hit{}, false
	}

	if r.IsVertical() {
		return c.raycastCell(r, maxDistance)
	}

	best := Hit{Distance: gomath.MaxFloat32}
	found := false
	for tri := 0; tri < len(c.indices)/3; tri++ {
		if h, ok := c.testTriangle(r, tri, maxDistance); ok && h.Distance < best.Distance {
			best, found = h, true
		}
	}
	return best, found
}

// raycastCell only tests the grid cell under a vertical ray, then its
// neighbours in case the ray grazes a shared edge.
func (c *Collider) raycastCell(r picking.Ray, maxDistance float32) (Hit, bool) {
	cx := int(gomath.Floor(float64((r.Origin[0] - c.origin.X) / c.cell.X)))
	cz := int(gomath.Floor(float64((r.Origin[2] - c.origin.Z) / c.cell.Z)))
	cx = clampInt(cx, 0, c.width-1)
	cz = clampInt(cz, 0, c.depth-1)

	if h, ok := c.testCell(r, cx, cz, maxDistance); ok {
		return h, true
	}

	best := Hit{Distance: gomath.MaxFloat32}
	found := false
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dz == 0 {
				continue
			}
			if h, ok := c.testCell(r, cx+dx, cz+dz, maxDistance); ok && h.Distance < best.Distance {
				best, found = h, true
			}
		}
	}
	return best, found
}

// testCell tests both triangles of grid cell (x, z).
func (c *Collider) testCell(r picking.Ray, x, z int, maxDistance float32) (Hit, bool) {
	if x < 0 || z < 0 || x >= c.width || z >= c.depth {
		return Hit{}, false
	}
	cell := z*c.width + x
	best := Hit{Distance: gomath.MaxFloat32}
	found := false
	for _, tri := range [2]int{cell * 2, cell*2 + 1} {
		if h, ok := c.testTriangle(r, tri, maxDistance); ok && h.Distance < best.Distance {
			best, found = h, true
		}
	}
	return best, found
}

func (c *Collider) testTriangle(r picking.Ray, tri int, maxDistance float32) (Hit, bool) {
	a := c.positions[c.indices[tri*3]]
	b := c.positions[c.indices[tri*3+1]]
	v := c.positions[c.indices[tri*3+2]]

	t, ok := r.IntersectTriangle(a, b, v)
	if !ok || t > maxDistance {
		return Hit{}, false
	}
	pa := math.FromArray(a)
	n := math.FromArray(b).Sub(pa).Cross(math.FromArray(v).Sub(pa)).Normalize()
	return Hit{
		Point:    math.FromArray(r.PointAt(t)),
		Normal:   n,
		Distance: t,
		Triangle: tri,
	}, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
