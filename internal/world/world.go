// Package world ties a heightmap source, the terrain and the tree scatterer
// into one regeneration pipeline.
package world

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/grove/internal/config"
	"github.com/Faultbox/grove/internal/heightmap"
	"github.com/Faultbox/grove/internal/logger"
	"github.com/Faultbox/grove/internal/scatter"
	"github.com/Faultbox/grove/internal/terrain"
	"github.com/Faultbox/grove/pkg/math"
)

// ErrNoSource is returned by Regenerate when no heightmap source is set.
var ErrNoSource = errors.New("no heightmap source")

// World owns the terrain and its trees. It is not safe for concurrent use;
// Watch runs every mutation on the calling goroutine.
type World struct {
	terrain   *terrain.Terrain
	scatterer *scatter.Scatterer
	source    heightmap.Source
	params    terrain.Params
	transform terrain.Transform

	seed     int64
	interval time.Duration
	stats    scatter.Stats

	frame        uint64
	pending      bool
	requestFrame uint64
	generation   int

	onRegenerate func(*World)
}

// New builds a world from cfg. Nothing is generated until Regenerate or a
// requested Update runs.
func New(cfg *config.Config, source heightmap.Source, rng scatter.RandomSource) *World {
	return &World{
		terrain:   terrain.New(),
		scatterer: scatter.New(cfg.Trees.Params, cfg.Trees.Species, rng),
		source:    source,
		params:    cfg.Terrain.Params,
		transform: cfg.Terrain.Transform,
		seed:      cfg.Trees.Seed,
		interval:  cfg.Watch.FrameInterval(),
	}
}

// Apply stages new settings for the next regeneration. The current terrain
// and trees are untouched until that pass succeeds. A changed tree seed
// restarts the placement random sequence. A new frame rate applies to the
// next Watch.
func (w *World) Apply(cfg *config.Config) error {
	if err := cfg.Terrain.Transform.Validate(); err != nil {
		return err
	}
	w.transform = cfg.Terrain.Transform
	w.params = cfg.Terrain.Params
	w.scatterer.SetParams(cfg.Trees.Params)
	w.scatterer.SetPalette(cfg.Trees.Species)
	if cfg.Trees.Seed != w.seed {
		w.seed = cfg.Trees.Seed
		w.scatterer.SetRandom(scatter.NewRandom(w.seed))
	}
	w.interval = cfg.Watch.FrameInterval()
	return nil
}

// SetSource replaces the heightmap source.
func (w *World) SetSource(s heightmap.Source) {
	w.source = s
}

// Regenerate rebuilds the terrain from the source and scatters trees over it.
// On any error the previous terrain and trees stay in place.
func (w *World) Regenerate() error {
	log := logger.Named("world")

	if w.source == nil {
		log.Error("regeneration skipped", zap.Error(ErrNoSource))
		return ErrNoSource
	}
	if err := w.params.Validate(); err != nil {
		log.Error("regeneration skipped", zap.Error(err))
		return err
	}
	if err := w.transform.Validate(); err != nil {
		log.Error("regeneration skipped", zap.Error(err))
		return err
	}
	if err := w.scatterer.Params().Validate(); err != nil {
		log.Error("regeneration skipped", zap.Error(err))
		return err
	}

	hm, err := w.source.Heightmap()
	if err != nil {
		log.Error("loading heightmap", zap.Error(err))
		return fmt.Errorf("loading heightmap: %w", err)
	}
	if err := w.terrain.Generate(hm, w.params, w.transform); err != nil {
		return err
	}

	stats, err := w.scatterer.Scatter(w.terrain, w.Footprint())
	if err != nil {
		return err
	}
	w.stats = stats
	w.generation++

	log.Debug("world regenerated",
		zap.Int("generation", w.generation),
		zap.Int("trees", w.scatterer.Len()))

	if w.onRegenerate != nil {
		w.onRegenerate(w)
	}
	return nil
}

// OnRegenerate registers fn to run after every successful regeneration.
func (w *World) OnRegenerate(fn func(*World)) {
	w.onRegenerate = fn
}

// RequestRegenerate schedules a regeneration. It runs on the Update after the
// next one, and any further requests before then fold into it.
func (w *World) RequestRegenerate() {
	if w.pending {
		return
	}
	w.pending = true
	w.requestFrame = w.frame
}

// Update advances one frame and runs a due regeneration. It reports whether
// a regeneration ran and its error.
func (w *World) Update() (bool, error) {
	w.frame++
	if !w.pending || w.frame <= w.requestFrame+1 {
		return false, nil
	}
	w.pending = false
	return true, w.Regenerate()
}

// Pending reports whether a regeneration is scheduled.
func (w *World) Pending() bool {
	return w.pending
}

// Frame returns the number of Update calls so far.
func (w *World) Frame() uint64 {
	return w.frame
}

// Generation counts successful regenerations.
func (w *World) Generation() int {
	return w.generation
}

// HeightAt queries the terrain surface at world (x, z).
func (w *World) HeightAt(x, z float32) (float32, math.Vec3, bool) {
	return w.terrain.HeightAt(x, z)
}

// Footprint is the area trees are scattered over: the terrain's world
// extent with its origin height as the fallback.
func (w *World) Footprint() scatter.Footprint {
	fp := w.terrain.Footprint()
	return scatter.Footprint{
		MinX:  fp.MinX,
		MaxX:  fp.MaxX,
		MinZ:  fp.MinZ,
		MaxZ:  fp.MaxZ,
		BaseY: w.terrain.BaseElevation(),
	}
}

// Terrain returns the terrain.
func (w *World) Terrain() *terrain.Terrain {
	return w.terrain
}

// Instances returns a copy of the placed trees.
func (w *World) Instances() []scatter.Instance {
	return w.scatterer.Instances()
}

// Stats returns the counts of the last scatter pass.
func (w *World) Stats() scatter.Stats {
	return w.stats
}

// Seed returns the seed the placement sequence was started from.
func (w *World) Seed() int64 {
	return w.seed
}
