// Package terrain turns heightmaps into regular-grid triangle meshes and
// answers height/normal queries against them.
package terrain

import (
	"errors"
	"fmt"

	"github.com/Faultbox/grove/pkg/math"
)

// Terrain errors.
var (
	ErrMissingHeightmap  = errors.New("no heightmap assigned")
	ErrInvalidResolution = errors.New("grid resolution must be positive")
	ErrInvalidSteepness  = errors.New("steepness must be positive")
	ErrInvalidTransform  = errors.New("transform scale must be positive")
)

// ProbeClearance is how far above the tallest vertex height probes start,
// so the downward ray always begins outside the surface.
const ProbeClearance float32 = 500

// Vertex is a terrain mesh vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Mesh holds the grid mesh in local space.
// Vertex (x, z) lives at index z*(Width+1)+x.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Width    int // cells along X
	Depth    int // cells along Z
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Params controls mesh generation.
type Params struct {
	Width       int     `yaml:"width"`
	Depth       int     `yaml:"depth"`
	HeightScale float32 `yaml:"height_scale"`
	Steepness   float32 `yaml:"steepness"`
}

// Validate rejects parameters that cannot produce a mesh.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Depth <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidResolution, p.Width, p.Depth)
	}
	if p.Steepness <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSteepness, p.Steepness)
	}
	return nil
}

// VertexCount returns (Width+1)*(Depth+1).
func (p Params) VertexCount() int {
	return (p.Width + 1) * (p.Depth + 1)
}

// IndexCount returns 6*Width*Depth.
func (p Params) IndexCount() int {
	return 6 * p.Width * p.Depth
}

// Transform places the local mesh in the world: world = Position + Scale*local.
type Transform struct {
	Position math.Vec3 `yaml:"position"`
	Scale    math.Vec3 `yaml:"scale"`
}

// DefaultTransform is the identity placement.
func DefaultTransform() Transform {
	return Transform{Scale: math.Vec3{X: 1, Y: 1, Z: 1}}
}

// Validate rejects non-positive scales.
func (t Transform) Validate() error {
	if t.Scale.X <= 0 || t.Scale.Y <= 0 || t.Scale.Z <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidTransform, t.Scale)
	}
	return nil
}

// Matrix returns the local-to-world matrix.
func (t Transform) Matrix() math.Mat4 {
	return math.Translate(t.Position.X, t.Position.Y, t.Position.Z).
		Mul(math.Scale(t.Scale.X, t.Scale.Y, t.Scale.Z))
}

// Footprint is the world-space extent of the generated surface.
type Footprint struct {
	MinX, MaxX float32
	MinY, MaxY float32
	MinZ, MaxZ float32
}
