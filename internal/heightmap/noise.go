package heightmap

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
)

// NoiseConfig describes a procedural heightmap: Perlin noise plus flattened plateaus.
type NoiseConfig struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Scale   float64 `yaml:"scale"`   // noise frequency across the whole map
	Alpha   float64 `yaml:"alpha"`   // per-octave amplitude falloff
	Beta    float64 `yaml:"beta"`    // per-octave frequency multiplier
	Octaves int32   `yaml:"octaves"` // number of noise octaves
	Seed    int64   `yaml:"seed"`

	PlateausMin     int     `yaml:"plateaus_min"`
	PlateausMax     int     `yaml:"plateaus_max"`     // inclusive
	PlateauHeight   float32 `yaml:"plateau_height"`   // normalized target height
	PlateauDiameter float32 `yaml:"plateau_diameter"` // in texels
}

// DefaultNoiseConfig returns a gentle rolling landscape with a few plateaus.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		Width:           128,
		Height:          128,
		Scale:           4,
		Alpha:           2,
		Beta:            2,
		Octaves:         3,
		Seed:            1,
		PlateausMin:     1,
		PlateausMax:     4,
		PlateauHeight:   0.5,
		PlateauDiameter: 20,
	}
}

// Random supplies uniform floats in [0,1).
type Random interface {
	Float32() float32
}

// Generate builds a heightmap from cfg. Plateau placement draws from rng.
func Generate(cfg NoiseConfig, rng Random) (*Heightmap, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}
	if cfg.Octaves <= 0 {
		cfg.Octaves = 1
	}

	p := perlin.NewPerlin(cfg.Alpha, cfg.Beta, cfg.Octaves, cfg.Seed)

	hm := &Heightmap{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Samples: make([]float32, cfg.Width*cfg.Height),
	}
	for y := range cfg.Height {
		for x := range cfg.Width {
			nx := float64(x) / float64(cfg.Width) * cfg.Scale
			ny := float64(y) / float64(cfg.Height) * cfg.Scale
			// Noise2D is roughly in [-1,1]
			n := (p.Noise2D(nx, ny) + 1) / 2
			hm.Samples[y*cfg.Width+x] = clamp01(float32(n))
		}
	}

	addPlateaus(hm, cfg, rng)
	return hm, nil
}

// addPlateaus flattens circular areas toward cfg.PlateauHeight with a smooth rim.
func addPlateaus(hm *Heightmap, cfg NoiseConfig, rng Random) {
	if rng == nil || cfg.PlateauDiameter <= 0 || cfg.PlateausMax <= 0 {
		return
	}
	lo, hi := cfg.PlateausMin, cfg.PlateausMax
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	count := lo + pick(rng, hi-lo+1)
	radius := cfg.PlateauDiameter / 2
	target := clamp01(cfg.PlateauHeight)

	for range count {
		cx := float32(pick(rng, hm.Width))
		cy := float32(pick(rng, hm.Height))

		for y := range hm.Height {
			for x := range hm.Width {
				dx, dy := float32(x)-cx, float32(y)-cy
				d := float32(math.Sqrt(float64(dx*dx + dy*dy)))
				if d >= radius {
					continue
				}
				edge := 1 - smoothstep(d/radius)
				i := y*hm.Width + x
				hm.Samples[i] += (target - hm.Samples[i]) * edge
			}
		}
	}
}

func pick(rng Random, n int) int {
	i := int(rng.Float32() * float32(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func smoothstep(t float32) float32 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

// Source produces the heightmap for one generation pass.
type Source interface {
	Heightmap() (*Heightmap, error)
}

// FileSource loads a heightmap image from disk on every call, so edits to the
// file are picked up by the next regeneration.
type FileSource struct {
	Path string
}

// Heightmap implements Source.
func (s FileSource) Heightmap() (*Heightmap, error) {
	return LoadFile(s.Path)
}

// NoiseSource generates a procedural heightmap. Output is fully determined by
// the config, including plateau placement.
type NoiseSource struct {
	Config NoiseConfig
}

// Heightmap implements Source.
func (s NoiseSource) Heightmap() (*Heightmap, error) {
	return Generate(s.Config, rand.New(rand.NewSource(s.Config.Seed)))
}

// Static wraps an already loaded heightmap. A nil heightmap is returned as-is.
type Static struct {
	Map *Heightmap
}

// Heightmap implements Source.
func (s Static) Heightmap() (*Heightmap, error) {
	return s.Map, nil
}
