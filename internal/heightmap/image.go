package heightmap

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png" // register PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp" // register BMP decoder
)

// FromImage converts an image to a heightmap using grayscale intensity
// (0.299R + 0.587G + 0.114B). The bottom image row becomes row 0.
func FromImage(img image.Image) *Heightmap {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	samples := make([]float32, w*h)
	for y := range h {
		row := h - 1 - y
		for x := range w {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			gray := 0.299*float32(r) + 0.587*float32(g) + 0.114*float32(bl)
			samples[row*w+x] = clamp01(gray / 0xffff)
		}
	}
	return &Heightmap{Width: w, Height: h, Samples: samples}
}

// Decode reads a BMP or PNG image and converts it to a heightmap.
func Decode(r io.Reader) (*Heightmap, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding heightmap image: %w", err)
	}
	hm := FromImage(img)
	if hm == nil {
		return nil, fmt.Errorf("%w: empty %s image", ErrInvalidSize, format)
	}
	return hm, nil
}

// LoadFile decodes a heightmap image from disk.
func LoadFile(path string) (*Heightmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading heightmap file: %w", err)
	}
	hm, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hm, nil
}
