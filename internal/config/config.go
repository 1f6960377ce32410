// Package config handles grove configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/grove/internal/heightmap"
	"github.com/Faultbox/grove/internal/scatter"
	"github.com/Faultbox/grove/internal/terrain"
	"github.com/Faultbox/grove/pkg/math"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all generation settings.
type Config struct {
	Terrain   TerrainConfig   `yaml:"terrain"`
	Heightmap HeightmapConfig `yaml:"heightmap"`
	Trees     TreesConfig     `yaml:"trees"`
	Output    OutputConfig    `yaml:"output"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TerrainConfig holds mesh resolution and placement.
type TerrainConfig struct {
	terrain.Params    `yaml:",inline"`
	terrain.Transform `yaml:",inline"`
}

// HeightmapConfig selects the height source. A non-empty Path loads an image;
// otherwise Noise is used.
type HeightmapConfig struct {
	Path  string                `yaml:"path"`
	Noise heightmap.NoiseConfig `yaml:"noise"`
}

// Source returns the heightmap source described by the config.
func (h HeightmapConfig) Source() heightmap.Source {
	if h.Path != "" {
		return heightmap.FileSource{Path: h.Path}
	}
	return heightmap.NoiseSource{Config: h.Noise}
}

// TreesConfig holds clustering parameters and the species palette.
type TreesConfig struct {
	scatter.Params `yaml:",inline"`
	Seed           int64             `yaml:"seed"`
	Species        []scatter.Species `yaml:"species"`
}

// OutputConfig holds artifact paths. Empty paths are not written.
type OutputConfig struct {
	MeshPath       string `yaml:"mesh_path"`
	PlacementsPath string `yaml:"placements_path"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	FrameRate int `yaml:"frame_rate"` // updates per second
}

// FrameInterval is the time between two Update calls.
func (w WatchConfig) FrameInterval() time.Duration {
	if w.FrameRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(w.FrameRate)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Params: terrain.Params{
				Width:       64,
				Depth:       64,
				HeightScale: 10,
				Steepness:   1,
			},
			Transform: terrain.DefaultTransform(),
		},
		Heightmap: HeightmapConfig{
			Noise: heightmap.DefaultNoiseConfig(),
		},
		Trees: TreesConfig{
			Params: scatter.Params{
				Groups:        12,
				TreesPerGroup: 6,
				GroupRadius:   4,
				MaxSlopeAngle: 30,
			},
			Seed: 1,
			Species: []scatter.Species{
				{Name: "oak", Model: "trees/oak", MinHeight: 4, MaxHeight: 7, BaseScale: math.Vec3{X: 1, Y: 1, Z: 1}},
				{Name: "pine", Model: "trees/pine", MinHeight: 6, MaxHeight: 10, BaseScale: math.Vec3{X: 0.8, Y: 1, Z: 0.8}},
			},
		},
		Output: OutputConfig{
			MeshPath:       "terrain.obj",
			PlacementsPath: "trees.yaml",
		},
		Watch: WatchConfig{
			FrameRate: 30,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var err error
	if e := c.Terrain.Params.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("terrain: %w", e))
	}
	if e := c.Terrain.Transform.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("terrain: %w", e))
	}
	if c.Heightmap.Path == "" {
		n := c.Heightmap.Noise
		if n.Width <= 0 || n.Height <= 0 {
			err = multierr.Append(err, fmt.Errorf("%w: heightmap.noise size %dx%d", ErrInvalid, n.Width, n.Height))
		}
		if n.PlateausMin > n.PlateausMax {
			err = multierr.Append(err, fmt.Errorf("%w: heightmap.noise plateaus_min %d > plateaus_max %d",
				ErrInvalid, n.PlateausMin, n.PlateausMax))
		}
	}
	if e := c.Trees.Params.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("trees: %w", e))
	}
	for i, sp := range c.Trees.Species {
		if sp.MinHeight < 0 || sp.MaxHeight < sp.MinHeight {
			err = multierr.Append(err, fmt.Errorf("%w: trees.species[%d] %q height range [%v, %v]",
				ErrInvalid, i, sp.Name, sp.MinHeight, sp.MaxHeight))
		}
	}
	if c.Watch.FrameRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: watch.frame_rate %d", ErrInvalid, c.Watch.FrameRate))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level))
	}
	return err
}
