package scene

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/log"
	"github.com/taigrr/raysphere/pkg/math3d"
)

// STLProxyLoader replaces each solid of an STL (stereolithography) file, in
// ASCII or binary form, by its bounding sphere.
type STLProxyLoader struct {
	Material Material
}

// NewSTLProxyLoader creates a loader using the default material.
func NewSTLProxyLoader() *STLProxyLoader {
	return &STLProxyLoader{Material: DefaultMaterial()}
}

// LoadSTLProxies loads bounding-sphere proxies from an STL file.
func LoadSTLProxies(path string) ([]Sphere, error) {
	return NewSTLProxyLoader().Load(path)
}

// Load reads path and converts its solids.
func (l *STLProxyLoader) Load(path string) ([]Sphere, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}
	spheres, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	log.Infof("Loaded %d sphere proxies from %s", len(spheres), filepath.Base(path))
	return spheres, nil
}

// Parse detects the STL flavour of data and converts it.
func (l *STLProxyLoader) Parse(data []byte) ([]Sphere, error) {
	if isBinarySTL(data) {
		return l.parseBinary(data)
	}
	return l.parseASCII(data)
}

// isBinarySTL reports whether data is binary STL: an 80-byte header and a
// triangle count matching the size. ASCII files start with "solid", but so
// do some binary headers.
func isBinarySTL(data []byte) bool {
	if len(data) < 84 {
		return false
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return true
	}
	triCount := binary.LittleEndian.Uint32(data[80:84])
	return uint64(len(data)) == 84+uint64(triCount)*50
}

func (l *STLProxyLoader) parseBinary(data []byte) ([]Sphere, error) {
	triCount := binary.LittleEndian.Uint32(data[80:84])
	if want := 84 + uint64(triCount)*50; uint64(len(data)) < want {
		return nil, fmt.Errorf("binary STL truncated: expected %d bytes, got %d", want, len(data))
	}
	var b box
	offset := 84
	for range triCount {
		offset += 12 // facet normal
		for range 3 {
			b.add(math3d.V3(
				float64(readFloat32LE(data[offset:])),
				float64(readFloat32LE(data[offset+4:])),
				float64(readFloat32LE(data[offset+8:])),
			))
			offset += 12
		}
		offset += 2 // attribute byte count
	}
	if sp, ok := b.sphere(l.Material); ok {
		return []Sphere{sp}, nil
	}
	return nil, nil
}

func readFloat32LE(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func (l *STLProxyLoader) parseASCII(data []byte) ([]Sphere, error) {
	var (
		spheres []Sphere
		b       box
	)
	flush := func() {
		if sp, ok := b.sphere(l.Material); ok {
			spheres = append(spheres, sp)
		}
		b = box{}
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "solid":
			flush()
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs x y z", lineNum)
			}
			p, err := parseXYZ(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			b.add(p)
		case "endsolid":
			flush()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	flush()
	return spheres, nil
}

// parseXYZ parses three coordinate fields.
func parseXYZ(fields []string) (math3d.Vec3, error) {
	var v [3]float64
	for i, f := range fields[:3] {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("invalid coordinate %q: %w", f, err)
		}
		v[i] = x
	}
	return math3d.V3(v[0], v[1], v[2]), nil
}
