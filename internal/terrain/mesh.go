package terrain

import (
	"fmt"
	gomath "math"
)

// Sampler returns a height in [0,1] for normalized (u, v).
type Sampler interface {
	Sample(u, v float32) float32
}

// BuildMesh creates a grid mesh of p.Width x p.Depth cells from a heightmap.
// Vertex (x, z) sits at (x, HeightScale*pow(sample(x/W, z/D), Steepness), z).
// Normals are computed before returning.
func BuildMesh(hm Sampler, p Params) (*Mesh, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if hm == nil {
		return nil, ErrMissingHeightmap
	}

	w, d := p.Width, p.Depth
	mesh := &Mesh{
		Vertices: make([]Vertex, p.VertexCount()),
		Indices:  make([]uint32, 0, p.IndexCount()),
		Width:    w,
		Depth:    d,
	}

	for z := 0; z <= d; z++ {
		for x := 0; x <= w; x++ {
			xn := float32(x) / float32(w)
			zn := float32(z) / float32(d)
			base := hm.Sample(xn, zn)
			y := p.HeightScale * float32(gomath.Pow(float64(base), float64(p.Steepness)))
			mesh.Vertices[mesh.VertexIndex(x, z)].Position = [3]float32{float32(x), y, float32(z)}
		}
	}

	for z := 0; z < d; z++ {
		for x := 0; x < w; x++ {
			// (x,z) (x,z+1) (x+1,z) then (x+1,z) (x,z+1) (x+1,z+1);
			// (b-a)x(c-a) points +Y for this winding.
			v := uint32(mesh.VertexIndex(x, z))
			below := uint32(mesh.VertexIndex(x, z+1))
			mesh.Indices = append(mesh.Indices,
				v, below, v+1,
				v+1, below, below+1)
		}
	}

	RecalculateNormals(mesh)
	mesh.Bounds = computeBounds(mesh.Vertices)
	return mesh, nil
}

// RecalculateNormals rebuilds vertex normals from the current triangles.
// Face normals are accumulated unnormalized, so larger faces weigh more.
func RecalculateNormals(m *Mesh) {
	for i := range m.Vertices {
		m.Vertices[i].Normal = [3]float32{}
	}

	for t := 0; t+2 < len(m.Indices); t += 3 {
		ia, ib, ic := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		a := m.Vertices[ia].Position
		b := m.Vertices[ib].Position
		c := m.Vertices[ic].Position
		n := cross(sub(b, a), sub(c, a))
		for _, idx := range [3]uint32{ia, ib, ic} {
			acc := &m.Vertices[idx].Normal
			acc[0] += n[0]
			acc[1] += n[1]
			acc[2] += n[2]
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = normalize(m.Vertices[i].Normal)
	}
}

// Validate checks the grid invariants: vertex and index counts match the
// resolution and every index is in range.
func (m *Mesh) Validate() error {
	p := Params{Width: m.Width, Depth: m.Depth}
	if len(m.Vertices) != p.VertexCount() {
		return fmt.Errorf("vertex count %d, want %d", len(m.Vertices), p.VertexCount())
	}
	if len(m.Indices) != p.IndexCount() {
		return fmt.Errorf("index count %d, want %d", len(m.Indices), p.IndexCount())
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("index %d out of range: %d >= %d", i, idx, len(m.Vertices))
		}
	}
	return nil
}

// VertexIndex returns the vertex buffer index of lattice point (x, z).
func (m *Mesh) VertexIndex(x, z int) int {
	return z*(m.Width+1) + x
}

func computeBounds(vertices []Vertex) Bounds {
	b := Bounds{
		Min: [3]float32{gomath.MaxFloat32, gomath.MaxFloat32, gomath.MaxFloat32},
		Max: [3]float32{-gomath.MaxFloat32, -gomath.MaxFloat32, -gomath.MaxFloat32},
	}
	for _, v := range vertices {
		updateBounds(&b, v.Position)
	}
	return b
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := range 3 {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := float32(gomath.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l < 0.0001 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
