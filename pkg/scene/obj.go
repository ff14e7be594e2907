package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/log"
	"github.com/taigrr/raysphere/pkg/math3d"
)

// OBJProxyLoader replaces each object or group of a Wavefront OBJ file by
// the bounding sphere of the vertices its faces use.
type OBJProxyLoader struct {
	Material Material
}

// NewOBJProxyLoader creates a loader using the default material.
func NewOBJProxyLoader() *OBJProxyLoader {
	return &OBJProxyLoader{Material: DefaultMaterial()}
}

// LoadOBJProxies loads bounding-sphere proxies from an OBJ file.
func LoadOBJProxies(path string) ([]Sphere, error) {
	return NewOBJProxyLoader().Load(path)
}

// Load reads path and converts its groups.
func (l *OBJProxyLoader) Load(path string) ([]Sphere, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()
	spheres, err := l.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	log.Infof("Loaded %d sphere proxies from %s", len(spheres), filepath.Base(path))
	return spheres, nil
}

// Parse reads OBJ text. Faces before the first "o" or "g" line form their
// own group; groups without faces produce nothing.
func (l *OBJProxyLoader) Parse(r io.Reader) ([]Sphere, error) {
	var (
		positions []math3d.Vec3
		spheres   []Sphere
		b         box
	)
	flush := func() {
		if sp, ok := b.sphere(l.Material); ok {
			spheres = append(spheres, sp)
		}
		b = box{}
	}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: invalid vertex (need x y z)", lineNum)
			}
			p, err := parseXYZ(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			positions = append(positions, p)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}
			for _, ref := range fields[1:] {
				idx, err := faceVertexIndex(ref, len(positions))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				b.add(positions[idx])
			}
		case "o", "g":
			flush()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading OBJ: %w", err)
	}
	flush()
	return spheres, nil
}

// faceVertexIndex resolves the position part of a face vertex (v, v/vt,
// v/vt/vn or v//vn) to a 0-based index. Negative indices count back from
// the last vertex read.
func faceVertexIndex(ref string, count int) (int, error) {
	pos, _, _ := strings.Cut(ref, "/")
	idx, err := strconv.Atoi(pos)
	if err != nil {
		return 0, fmt.Errorf("invalid vertex index: %s", pos)
	}
	switch {
	case idx < 0:
		idx += count
	case idx > 0:
		idx--
	default:
		return 0, fmt.Errorf("invalid vertex index: %s", pos)
	}
	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("position index %s out of range", pos)
	}
	return idx, nil
}
