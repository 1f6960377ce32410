package world

import (
	"github.com/Faultbox/grove/pkg/formats"
	"github.com/Faultbox/grove/pkg/math"
)

// MeshOBJ returns the terrain in world space, or nil before the first
// successful generation.
func (w *World) MeshOBJ() *formats.OBJMesh {
	if !w.terrain.Ready() {
		return nil
	}
	mesh := w.terrain.Mesh()

	scale := w.terrain.Transform().Scale
	out := &formats.OBJMesh{
		Positions: w.terrain.WorldVertices(),
		Normals:   make([][3]float32, len(mesh.Vertices)),
		Indices:   append([]uint32(nil), mesh.Indices...),
	}
	for i, v := range mesh.Vertices {
		// Axis scale: normals take the inverse.
		n := math.FromArray(v.Normal)
		n = math.Vec3{X: n.X / scale.X, Y: n.Y / scale.Y, Z: n.Z / scale.Z}.Normalize()
		out.Normals[i] = n.Array()
	}
	return out
}

// Placements returns the current trees as a placements document.
func (w *World) Placements() *formats.PlacementFile {
	fp := w.Footprint()
	file := &formats.PlacementFile{
		Seed:      w.seed,
		Footprint: [4]float32{fp.MinX, fp.MaxX, fp.MinZ, fp.MaxZ},
	}
	for _, inst := range w.scatterer.Instances() {
		file.Instances = append(file.Instances, formats.Placement{
			ID:       inst.ID,
			Group:    inst.Group,
			Species:  inst.Species,
			Model:    inst.Model,
			Position: inst.Position.Array(),
			Yaw:      inst.Yaw,
			Rotation: [4]float32{inst.Rotation.X, inst.Rotation.Y, inst.Rotation.Z, inst.Rotation.W},
			Scale:    inst.Scale.Array(),
		})
	}
	return file
}

// Export writes the mesh and placements to the given paths. Empty paths are
// skipped.
func (w *World) Export(meshPath, placementsPath string) error {
	if meshPath != "" {
		if m := w.MeshOBJ(); m != nil {
			if err := formats.WriteOBJFile(meshPath, m); err != nil {
				return err
			}
		}
	}
	if placementsPath != "" {
		if err := formats.WritePlacementsFile(placementsPath, w.Placements()); err != nil {
			return err
		}
	}
	return nil
}
