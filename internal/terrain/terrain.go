package terrain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/grove/internal/heightmap"
	"github.com/Faultbox/grove/internal/logger"
	"github.com/Faultbox/grove/internal/picking"
	"github.com/Faultbox/grove/pkg/math"
)

// Terrain owns a generated mesh and the collider built from it.
// It is not safe for concurrent use: callers regenerate and query from one goroutine.
type Terrain struct {
	mesh      *Mesh
	collider  *Collider
	transform Transform
	footprint Footprint
	params    Params
}

// New returns an empty terrain. It answers every query with a miss until
// Generate succeeds.
func New() *Terrain {
	return &Terrain{}
}

// Generate rebuilds the mesh and collider from hm, placed with tr. Everything
// is validated before anything is replaced; on error nothing changes.
func (t *Terrain) Generate(hm *heightmap.Heightmap, p Params, tr Transform) error {
	log := logger.Named("terrain")

	if err := p.Validate(); err != nil {
		log.Error("refusing to generate terrain", zap.Error(err))
		return err
	}
	if hm == nil {
		log.Error("refusing to generate terrain", zap.Error(ErrMissingHeightmap))
		return ErrMissingHeightmap
	}
	if hm.Width <= 0 || hm.Height <= 0 || len(hm.Samples) != hm.Width*hm.Height {
		err := fmt.Errorf("%w: %dx%d with %d samples", heightmap.ErrInvalidSize, hm.Width, hm.Height, len(hm.Samples))
		log.Error("refusing to generate terrain", zap.Error(err))
		return err
	}
	if err := tr.Validate(); err != nil {
		log.Error("refusing to generate terrain", zap.Error(err))
		return err
	}

	mesh, err := BuildMesh(hm, p)
	if err != nil {
		log.Error("building terrain mesh", zap.Error(err))
		return fmt.Errorf("building mesh: %w", err)
	}

	t.transform = tr
	t.install(mesh)
	t.params = p

	log.Info("terrain generated",
		zap.Int("width", p.Width),
		zap.Int("depth", p.Depth),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", len(mesh.Indices)/3),
		zap.Float32("max_y", t.footprint.MaxY))
	return nil
}

// install swaps in mesh and a fresh collider built with the current
// transform. The old collider is dropped before the new one is assigned.
func (t *Terrain) install(mesh *Mesh) {
	t.collider = nil
	t.mesh = mesh
	t.collider = NewCollider(mesh, t.transform)

	box := t.collider.Bounds()
	t.footprint = Footprint{
		MinX: box.Min[0], MaxX: box.Max[0],
		MinY: box.Min[1], MaxY: box.Max[1],
		MinZ: box.Min[2], MaxZ: box.Max[2],
	}
}

// HeightAt casts a ray straight down at world (x, z) and returns the surface
// height and face normal. ok is false outside the footprint or before the
// first successful Generate.
func (t *Terrain) HeightAt(x, z float32) (y float32, normal math.Vec3, ok bool) {
	if !t.Ready() || !t.collider.Bounds().ContainsXZ(x, z) {
		return 0, math.Up, false
	}

	top := t.footprint.MaxY + ProbeClearance
	maxDist := ProbeClearance + (t.footprint.MaxY - t.footprint.MinY) + 1

	hit, ok := t.collider.Raycast(picking.Down(x, top, z), maxDist)
	if !ok {
		return 0, math.Up, false
	}
	return hit.Point.Y, hit.Normal, true
}

// Ready reports whether a mesh and collider are in place.
func (t *Terrain) Ready() bool {
	return t.collider != nil
}

// Mesh returns the current local-space mesh, or nil.
func (t *Terrain) Mesh() *Mesh {
	return t.mesh
}

// Params returns the parameters of the last successful generation.
func (t *Terrain) Params() Params {
	return t.params
}

// Transform returns the current placement.
func (t *Terrain) Transform() Transform {
	return t.transform
}

// Footprint returns the world-space extent of the current mesh.
func (t *Terrain) Footprint() Footprint {
	return t.footprint
}

// BaseElevation is the terrain origin height, the fallback for failed probes.
func (t *Terrain) BaseElevation() float32 {
	return t.transform.Position.Y
}

// WorldVertices returns the vertex positions transformed to world space.
func (t *Terrain) WorldVertices() [][3]float32 {
	if t.mesh == nil {
		return nil
	}
	mat := t.transform.Matrix()
	out := make([][3]float32, len(t.mesh.Vertices))
	for i, v := range t.mesh.Vertices {
		out[i] = mat.TransformPoint(v.Position)
	}
	return out
}
