package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrDuplicatePlacementID is returned when two placements share an ID.
var ErrDuplicatePlacementID = errors.New("duplicate placement ID")

// PlacementFile is the YAML document listing every placed tree of one pass.
type PlacementFile struct {
	Seed      int64       `yaml:"seed"`
	Footprint [4]float32  `yaml:"footprint,flow"` // min x, max x, min z, max z
	Instances []Placement `yaml:"instances"`
}

// Placement is one tree instance.
type Placement struct {
	ID       uint64     `yaml:"id"`
	Group    int        `yaml:"group"`
	Species  string     `yaml:"species"`
	Model    string     `yaml:"model"`
	Position [3]float32 `yaml:"position,flow"`
	Yaw      float32    `yaml:"yaw"`           // degrees about +Y
	Rotation [4]float32 `yaml:"rotation,flow"` // quaternion x, y, z, w
	Scale    [3]float32 `yaml:"scale,flow"`
}

// WritePlacements encodes f as YAML.
func WritePlacements(w io.Writer, f *PlacementFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encoding placements: %w", err)
	}
	return enc.Close()
}

// WritePlacementsFile writes f to path, creating parent directories.
func WritePlacementsFile(path string, f *PlacementFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WritePlacements(&buf, f); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing placements file: %w", err)
	}
	return nil
}

// ParsePlacements decodes a placements document and rejects duplicate IDs.
func ParsePlacements(data []byte) (*PlacementFile, error) {
	f := &PlacementFile{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("decoding placements: %w", err)
	}

	seen := make(map[uint64]bool, len(f.Instances))
	for _, p := range f.Instances {
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePlacementID, p.ID)
		}
		seen[p.ID] = true
	}
	return f, nil
}

// LoadPlacements parses a placements file from disk.
func LoadPlacements(path string) (*PlacementFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading placements file: %w", err)
	}
	return ParsePlacements(data)
}
