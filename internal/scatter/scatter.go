package scatter

import (
	"go.uber.org/zap"

	"github.com/Faultbox/grove/internal/logger"
	"github.com/Faultbox/grove/pkg/math"
)

// Scatterer owns the set of placed trees. Every Scatter call discards the
// previous set and builds a new one from scratch.
type Scatterer struct {
	params    Params
	palette   []Species
	rng       RandomSource
	instances []Instance
	nextID    uint64
	phase     Phase
}

// New creates a scatterer. The palette is copied. A nil rng is replaced by
// NewRandom(0).
func New(params Params, palette []Species, rng RandomSource) *Scatterer {
	s := &Scatterer{params: params}
	s.SetPalette(palette)
	s.SetRandom(rng)
	return s
}

// SetParams replaces the clustering parameters used by the next pass.
func (s *Scatterer) SetParams(p Params) {
	s.params = p
}

// SetPalette replaces the species palette used by the next pass.
func (s *Scatterer) SetPalette(palette []Species) {
	s.palette = append([]Species(nil), palette...)
}

// SetRandom replaces the random source. Instance IDs keep counting up.
// A nil rng is replaced by NewRandom(0).
func (s *Scatterer) SetRandom(rng RandomSource) {
	if rng == nil {
		rng = NewRandom(0)
	}
	s.rng = rng
}

// Params returns the clustering parameters.
func (s *Scatterer) Params() Params {
	return s.params
}

// Scatter clears all previous instances and places new groups of trees on
// surface within fp. Query misses fall back to a best-effort height; slope
// rejection drops a whole group at its centre and single trees at their spot.
// An empty palette clears and places nothing.
func (s *Scatterer) Scatter(surface Surface, fp Footprint) (Stats, error) {
	log := logger.Named("scatter")
	var stats Stats

	if err := s.params.Validate(); err != nil {
		log.Error("refusing to scatter", zap.Error(err))
		return stats, err
	}

	s.phase = PhaseClearing
	s.Clear()

	usable := s.usableSpecies()
	if len(usable) == 0 {
		log.Debug("palette has no usable species, nothing placed")
		s.phase = PhaseDone
		return stats, nil
	}

	r := s.params.GroupRadius
	for g := 0; g < s.params.Groups; g++ {
		s.phase = PhaseGroupPlacement

		cx := shrunkRange(s.rng, fp.MinX, fp.MaxX, r)
		cz := shrunkRange(s.rng, fp.MinZ, fp.MaxZ, r)

		cy, normal, ok := surface.HeightAt(cx, cz)
		if !ok {
			stats.Misses++
			cy, normal = fp.BaseY, math.Up
		}
		if normal.AngleTo(math.Up) > s.params.MaxSlopeAngle {
			stats.GroupsRejected++
			continue
		}
		stats.GroupsPlaced++

		s.phase = PhaseTreePlacement
		for k := 0; k < s.params.TreesPerGroup; k++ {
			p := math.Vec2{X: cx, Y: cz}.Add(InsideUnitCircle(s.rng).Scale(r))
			x := clamp(p.X, fp.MinX, fp.MaxX)
			z := clamp(p.Y, fp.MinZ, fp.MaxZ)

			y, n, ok := surface.HeightAt(x, z)
			if !ok {
				stats.Misses++
				y, n = cy, math.Up
			}
			if n.AngleTo(math.Up) > s.params.MaxSlopeAngle {
				stats.TreesRejected++
				continue
			}

			sp := usable[Index(s.rng, len(usable))]
			lo, hi := sp.MinHeight, sp.MaxHeight
			if lo > hi {
				lo, hi = hi, lo
			}
			height := Range(s.rng, lo, hi)
			yaw := Range(s.rng, 0, 360)

			scale := sp.templateScale()
			scale.Y = height

			s.nextID++
			s.instances = append(s.instances, Instance{
				ID:       s.nextID,
				Group:    g,
				Species:  sp.Name,
				Model:    sp.Model,
				Position: math.Vec3{X: x, Y: y, Z: z},
				Yaw:      yaw,
				Rotation: math.QuatFromYaw(yaw),
				Scale:    scale,
			})
			stats.TreesPlaced++
		}
	}

	s.phase = PhaseDone
	log.Info("trees scattered",
		zap.Int("groups", stats.GroupsPlaced),
		zap.Int("groups_rejected", stats.GroupsRejected),
		zap.Int("trees", stats.TreesPlaced),
		zap.Int("trees_rejected", stats.TreesRejected),
		zap.Int("misses", stats.Misses))
	return stats, nil
}

// Clear drops every placed instance.
func (s *Scatterer) Clear() {
	s.instances = s.instances[:0:0]
}

// Instances returns a copy of the current placements.
func (s *Scatterer) Instances() []Instance {
	return append([]Instance(nil), s.instances...)
}

// Len returns the number of placed instances.
func (s *Scatterer) Len() int {
	return len(s.instances)
}

// Phase returns where the last pass got to.
func (s *Scatterer) Phase() Phase {
	return s.phase
}

func (s *Scatterer) usableSpecies() []Species {
	var out []Species
	for _, sp := range s.palette {
		if sp.Usable() {
			out = append(out, sp)
		}
	}
	return out
}

// shrunkRange draws uniformly from [lo+margin, hi-margin]. When the margin
// leaves nothing, the midpoint is used.
func shrunkRange(r RandomSource, lo, hi, margin float32) float32 {
	a, b := lo+margin, hi-margin
	if a > b {
		r.Float32() // keep the draw sequence stable
		return (lo + hi) / 2
	}
	return Range(r, a, b)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
