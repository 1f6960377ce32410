// Package heightmap holds grayscale height fields and the sources that produce them.
package heightmap

import (
	"errors"
	"fmt"
)

// Heightmap errors.
var (
	ErrInvalidSize = errors.New("heightmap dimensions must be positive")
	ErrSampleCount = errors.New("heightmap sample count does not match dimensions")
)

// Heightmap is a row-major grid of samples in [0,1].
// Row 0 is v=0 (the bottom of the source image).
type Heightmap struct {
	Width   int
	Height  int
	Samples []float32
}

// New creates a heightmap from raw samples. Samples are clamped to [0,1].
func New(width, height int, samples []float32) (*Heightmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if len(samples) != width*height {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSampleCount, len(samples), width*height)
	}

	hm := &Heightmap{
		Width:   width,
		Height:  height,
		Samples: make([]float32, len(samples)),
	}
	for i, s := range samples {
		hm.Samples[i] = clamp01(s)
	}
	return hm, nil
}

// Constant returns a heightmap where every texel is v.
func Constant(width, height int, v float32) *Heightmap {
	if width <= 0 || height <= 0 {
		return nil
	}
	samples := make([]float32, width*height)
	for i := range samples {
		samples[i] = clamp01(v)
	}
	return &Heightmap{Width: width, Height: height, Samples: samples}
}

// At returns the texel at (x, y), clamping coordinates to the edges.
func (h *Heightmap) At(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= h.Width {
		x = h.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h.Height {
		y = h.Height - 1
	}
	return h.Samples[y*h.Width+x]
}

// Sample returns the bilinearly interpolated height at normalized (u, v).
// u and v are clamped to [0,1]. Texel centres sit at (i+0.5)/size, so sampling
// exactly on a centre returns that texel unchanged.
func (h *Heightmap) Sample(u, v float32) float32 {
	u = clamp01(u)
	v = clamp01(v)

	fx := u*float32(h.Width) - 0.5
	fy := v*float32(h.Height) - 0.5

	x0 := floor(fx)
	y0 := floor(fy)
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	// South edge (lower v), then north edge, then blend
	s := h.At(x0, y0)*(1-tx) + h.At(x0+1, y0)*tx
	n := h.At(x0, y0+1)*(1-tx) + h.At(x0+1, y0+1)*tx
	return s*(1-ty) + n*ty
}

// Range returns the minimum and maximum sample.
func (h *Heightmap) Range() (min, max float32) {
	if len(h.Samples) == 0 {
		return 0, 0
	}
	min, max = h.Samples[0], h.Samples[0]
	for _, s := range h.Samples {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return min, max
}

func floor(f float32) int {
	i := int(f)
	if f < 0 && float32(i) != f {
		i--
	}
	return i
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
