package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taigrr/raysphere/pkg/math3d"
)

// ErrNoProxies is returned by Open for models without any bounded mesh.
var ErrNoProxies = errors.New("model has no meshes with bounds")

// Open loads a scene file, or a glTF, STL or OBJ model converted to proxies under
// the default camera and lights, framed to fit the view.
func Open(path string) (Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf":
		return proxyScene(path, LoadGLTFProxies)
	case ".stl":
		return proxyScene(path, LoadSTLProxies)
	case ".obj":
		return proxyScene(path, LoadOBJProxies)
	default:
		return Load(path)
	}
}

func proxyScene(path string, load func(string) ([]Sphere, error)) (Scene, error) {
	spheres, err := load(path)
	if err != nil {
		return Scene{}, err
	}
	if len(spheres) == 0 {
		return Scene{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoProxies)
	}
	return Default().WithSpheres(spheres).Framed(), nil
}

// box accumulates an axis-aligned bounding box over mesh vertices.
type box struct {
	lo, hi math3d.Vec3
	n      int
}

func (b *box) add(p math3d.Vec3) {
	if b.n == 0 {
		b.lo, b.hi = p, p
	} else {
		b.lo, b.hi = b.lo.Min(p), b.hi.Max(p)
	}
	b.n++
}

// sphere returns the sphere circumscribing the box. Empty and degenerate
// (single point) boxes have no proxy.
func (b *box) sphere(mat Material) (Sphere, bool) {
	if b.n == 0 {
		return Sphere{}, false
	}
	radius := b.hi.Sub(b.lo).Len() / 2
	if radius == 0 {
		return Sphere{}, false
	}
	return Sphere{
		Kind:     KindSphere,
		Center:   b.lo.Add(b.hi).Scale(0.5),
		Radius:   radius,
		Material: mat,
	}, true
}
