// Package scatter places clusters of trees on a surface, skipping steep ground.
package scatter

import (
	"errors"
	"fmt"

	"github.com/Faultbox/grove/pkg/math"
)

// ErrInvalidParams is returned for scatter parameters that cannot be honoured.
var ErrInvalidParams = errors.New("invalid scatter parameters")

// Surface answers height/normal queries at world (x, z). ok is false when
// nothing is under the point; callers must supply their own fallback.
type Surface interface {
	HeightAt(x, z float32) (y float32, normal math.Vec3, ok bool)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(x, z float32) (float32, math.Vec3, bool)

// HeightAt implements Surface.
func (f SurfaceFunc) HeightAt(x, z float32) (float32, math.Vec3, bool) {
	return f(x, z)
}

// Species is one entry of the tree palette.
type Species struct {
	Name      string    `yaml:"name"`
	Model     string    `yaml:"model"` // asset handle; empty means unusable
	MinHeight float32   `yaml:"min_height"`
	MaxHeight float32   `yaml:"max_height"`
	BaseScale math.Vec3 `yaml:"base_scale"` // template scale; zero components read as 1
}

// Usable reports whether the species has a model to instantiate.
func (s Species) Usable() bool {
	return s.Model != ""
}

// templateScale returns BaseScale with unset components defaulted to 1.
func (s Species) templateScale() math.Vec3 {
	sc := s.BaseScale
	if sc.X == 0 {
		sc.X = 1
	}
	if sc.Y == 0 {
		sc.Y = 1
	}
	if sc.Z == 0 {
		sc.Z = 1
	}
	return sc
}

// Params controls clustering.
type Params struct {
	Groups        int     `yaml:"groups"`
	TreesPerGroup int     `yaml:"trees_per_group"`
	GroupRadius   float32 `yaml:"group_radius"`
	MaxSlopeAngle float32 `yaml:"max_slope_angle"` // degrees from vertical up
}

// Validate rejects negative counts, negative radius, and slopes outside [0,180].
func (p Params) Validate() error {
	switch {
	case p.Groups < 0:
		return fmt.Errorf("%w: groups %d", ErrInvalidParams, p.Groups)
	case p.TreesPerGroup < 0:
		return fmt.Errorf("%w: trees per group %d", ErrInvalidParams, p.TreesPerGroup)
	case p.GroupRadius < 0:
		return fmt.Errorf("%w: group radius %v", ErrInvalidParams, p.GroupRadius)
	case p.MaxSlopeAngle < 0 || p.MaxSlopeAngle > 180:
		return fmt.Errorf("%w: max slope angle %v", ErrInvalidParams, p.MaxSlopeAngle)
	}
	return nil
}

// Footprint is the world rectangle trees may occupy and the fallback height
// for group centres whose probe misses.
type Footprint struct {
	MinX, MaxX float32
	MinZ, MaxZ float32
	BaseY      float32
}

// Instance is one placed tree.
type Instance struct {
	ID       uint64
	Group    int
	Species  string
	Model    string
	Position math.Vec3
	Yaw      float32 // degrees
	Rotation math.Quat
	Scale    math.Vec3
}

// Stats summarizes one scatter pass.
type Stats struct {
	GroupsPlaced   int
	GroupsRejected int
	TreesPlaced    int
	TreesRejected  int
	Misses         int
}

// Phase is the scatterer's position in a pass.
type Phase int

// Scatter phases, in order.
const (
	PhaseIdle Phase = iota
	PhaseClearing
	PhaseGroupPlacement
	PhaseTreePlacement
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseClearing:
		return "Clearing"
	case PhaseGroupPlacement:
		return "GroupPlacement"
	case PhaseTreePlacement:
		return "TreePlacement"
	case PhaseDone:
		return "Done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}
