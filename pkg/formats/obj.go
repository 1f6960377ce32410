package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrOBJIndexCount  = errors.New("index count is not a multiple of 3")
	ErrOBJIndexRange  = errors.New("face index out of range")
	ErrOBJNormalCount = errors.New("normal count does not match position count")
	ErrMalformedOBJ   = errors.New("malformed OBJ data")
)

// OBJMesh is an indexed triangle mesh with one normal per position.
type OBJMesh struct {
	Positions [][3]float32
	Normals   [][3]float32 // optional; len must match Positions when set
	Indices   []uint32     // three per triangle, 0-based
}

// TriangleCount returns the number of faces.
func (m *OBJMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *OBJMesh) validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d", ErrOBJIndexCount, len(m.Indices))
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normals, %d positions", ErrOBJNormalCount, len(m.Normals), len(m.Positions))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: index %d at %d (have %d vertices)", ErrOBJIndexRange, idx, i, len(m.Positions))
		}
	}
	return nil
}

// WriteOBJ writes m as Wavefront OBJ. Faces use 1-based v//vn references.
func WriteOBJ(w io.Writer, m *OBJMesh) error {
	if err := m.validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d vertices, %d triangles\n", len(m.Positions), m.TriangleCount())
	for _, p := range m.Positions {
		fmt.Fprintf(bw, "v %s %s %s\n", ftoa(p[0]), ftoa(p[1]), ftoa(p[2]))
	}
	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %s %s %s\n", ftoa(n[0]), ftoa(n[1]), ftoa(n[2]))
	}

	withNormals := len(m.Normals) > 0
	for i := 0; i < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i]+1, m.Indices[i+1]+1, m.Indices[i+2]+1
		if withNormals {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", a, b, c)
		}
	}
	return bw.Flush()
}

// WriteOBJFile writes m to path, creating parent directories.
func WriteOBJFile(path string, m *OBJMesh) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, m); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing OBJ file: %w", err)
	}
	return nil
}

// ParseOBJ reads the subset WriteOBJ produces: v, vn and triangular f lines.
// Other statements are ignored. Normals are taken from the vn index of each
// face corner.
func ParseOBJ(data []byte) (*OBJMesh, error) {
	var (
		positions [][3]float32
		normals   [][3]float32
		faces     [][3][2]int
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v", "vn":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: %q needs 3 components", ErrMalformedOBJ, line, fields[0])
			}
			var v [3]float32
			for i := range 3 {
				f, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
				}
				v[i] = float32(f)
			}
			if fields[0] == "v" {
				positions = append(positions, v)
			} else {
				normals = append(normals, v)
			}
		case "f":
			if len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: only triangles are supported", ErrMalformedOBJ, line)
			}
			var face [3][2]int
			for i := range 3 {
				vi, ni, err := parseCorner(fields[i+1])
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
				}
				face[i] = [2]int{vi, ni}
			}
			faces = append(faces, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	m := &OBJMesh{Positions: positions}
	if len(normals) > 0 {
		m.Normals = make([][3]float32, len(positions))
	}
	for _, face := range faces {
		for _, corner := range face {
			vi, ni := corner[0]-1, corner[1]-1
			if vi < 0 || vi >= len(positions) {
				return nil, fmt.Errorf("%w: vertex %d", ErrOBJIndexRange, corner[0])
			}
			if ni >= 0 && m.Normals != nil {
				if ni >= len(normals) {
					return nil, fmt.Errorf("%w: normal %d", ErrOBJIndexRange, corner[1])
				}
				m.Normals[vi] = normals[ni]
			}
			m.Indices = append(m.Indices, uint32(vi))
		}
	}
	return m, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

// parseCorner splits "v", "v/t" or "v//n". A missing normal returns 0.
func parseCorner(s string) (v, n int, err error) {
	parts := strings.Split(s, "/")
	v, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 3 && parts[2] != "" {
		n, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, err
		}
	}
	return v, n, nil
}

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
