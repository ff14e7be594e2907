// Package scene describes what the ray tracer renders: camera, point lights,
// analytic spheres and the background colour.
//
// A Scene is a plain value. Nothing in it is shared mutable state; the With*
// helpers return copies whose slices never alias the original, so one Scene
// can be rendered from many goroutines at once.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/raysphere/pkg/math3d"
)

// Kind tags the primitive a Sphere value describes.
type Kind string

// KindSphere is the analytic sphere primitive.
const KindSphere Kind = "sphere"

var (
	ErrInvalidSphere     = errors.New("invalid sphere")
	ErrInvalidCamera     = errors.New("invalid camera")
	ErrUnknownKind       = errors.New("unknown object type")
	ErrUnsupportedFormat = errors.New("unsupported scene format")
)

// Material holds the shading constants of a surface.
type Material struct {
	BaseColor math3d.Vec3 // Diffuse colour, channels in [0, 1]
	Specular  math3d.Vec3 // Specular colour, channels in [0, 1]
	Ambient   float64     // Ambient coefficient applied to BaseColor
	Shininess float64     // Specular exponent
}

// Sphere is a tagged primitive. Kind is always KindSphere for now.
type Sphere struct {
	Kind     Kind
	Center   math3d.Vec3
	Radius   float64
	Material Material
}

// Light is a point light.
type Light struct {
	Position math3d.Vec3
	Color    math3d.Vec3
}

// Camera is a pinhole camera looking from Eye towards LookAt.
type Camera struct {
	Eye    math3d.Vec3
	LookAt math3d.Vec3
	Up     math3d.Vec3
	FovY   float64 // Vertical field of view in degrees
}

// Scene is an immutable scene description.
type Scene struct {
	Camera     Camera
	Lights     []Light
	Spheres    []Sphere
	Background math3d.Vec3
}

// DefaultBackground returns the background colour of the reference scene.
func DefaultBackground() math3d.Vec3 {
	return math3d.V3(0.25, 0.25, 0.25)
}

// DefaultMaterial returns the red material of the reference sphere.
func DefaultMaterial() Material {
	return Material{
		BaseColor: math3d.V3(1, 0, 0),
		Specular:  math3d.V3(0.6, 0.6, 0.6),
		Ambient:   0.1,
		Shininess: 50,
	}
}

// DefaultCamera returns the reference camera, slightly above the sphere
// looking at the origin.
func DefaultCamera() Camera {
	return Camera{
		Eye:    math3d.V3(0, 0.5, -4),
		LookAt: math3d.V3(0, 0, 0),
		Up:     math3d.Up(),
		FovY:   60,
	}
}

// DefaultLights returns the key and fill lights of the reference scene.
func DefaultLights() []Light {
	return []Light{
		{Position: math3d.V3(-5, 5, -5), Color: math3d.V3(1, 1, 1)},
		{Position: math3d.V3(6, -6, -6), Color: math3d.V3(0.25, 0.25, 0.25)},
	}
}

// UnitSphere returns a sphere of radius 1 at the origin with the default material.
func UnitSphere() Sphere {
	return Sphere{Kind: KindSphere, Radius: 1, Material: DefaultMaterial()}
}

// Default returns the reference scene.
func Default() Scene {
	return Scene{
		Camera:     DefaultCamera(),
		Lights:     DefaultLights(),
		Spheres:    []Sphere{UnitSphere()},
		Background: DefaultBackground(),
	}
}

// Clone returns a deep copy of s.
func (s Scene) Clone() Scene {
	c := s
	c.Lights = append([]Light(nil), s.Lights...)
	c.Spheres = append([]Sphere(nil), s.Spheres...)
	return c
}

// WithCamera returns a copy of s using cam.
func (s Scene) WithCamera(cam Camera) Scene {
	c := s.Clone()
	c.Camera = cam
	return c
}

// WithBackground returns a copy of s using bg as background colour.
func (s Scene) WithBackground(bg math3d.Vec3) Scene {
	c := s.Clone()
	c.Background = bg
	return c
}

// WithLights returns a copy of s lit by lights.
func (s Scene) WithLights(lights []Light) Scene {
	c := s.Clone()
	c.Lights = append([]Light(nil), lights...)
	return c
}

// WithSpheres returns a copy of s containing spheres.
func (s Scene) WithSpheres(spheres []Sphere) Scene {
	c := s.Clone()
	c.Spheres = append([]Sphere(nil), spheres...)
	return c
}

// Validate reports the first problem that would make the scene unrenderable.
// A scene without lights is valid and renders with the ambient term only.
func (s Scene) Validate() error {
	if err := s.Camera.Validate(); err != nil {
		return err
	}
	for i, sp := range s.Spheres {
		if sp.Kind != KindSphere {
			return fmt.Errorf("object %d: %w: %q", i, ErrUnknownKind, sp.Kind)
		}
		if !(sp.Radius > 0) || math.IsInf(sp.Radius, 0) {
			return fmt.Errorf("object %d: %w: radius %v", i, ErrInvalidSphere, sp.Radius)
		}
	}
	return nil
}

// Validate checks that the camera defines a usable view basis.
func (c Camera) Validate() error {
	if !(c.FovY > 0 && c.FovY < 180) {
		return fmt.Errorf("%w: fov %v outside (0, 180)", ErrInvalidCamera, c.FovY)
	}
	forward := c.LookAt.Sub(c.Eye)
	if forward.LenSq() == 0 {
		return fmt.Errorf("%w: eye and look-at coincide", ErrInvalidCamera)
	}
	if forward.Normalize().Cross(c.Up).LenSq() < 1e-12 {
		return fmt.Errorf("%w: up vector parallel to view direction", ErrInvalidCamera)
	}
	return nil
}

// Bounds returns the axis-aligned box enclosing every sphere. ok is false for
// a scene without spheres.
func (s Scene) Bounds() (minV, maxV math3d.Vec3, ok bool) {
	for i, sp := range s.Spheres {
		r := math3d.V3(sp.Radius, sp.Radius, sp.Radius)
		lo, hi := sp.Center.Sub(r), sp.Center.Add(r)
		if i == 0 {
			minV, maxV = lo, hi
			continue
		}
		minV, maxV = minV.Min(lo), maxV.Max(hi)
	}
	return minV, maxV, len(s.Spheres) > 0
}

// Framed returns a copy whose camera looks at the centre of the spheres'
// bounds, backed off along its current viewing direction until the bounding
// sphere fits the vertical field of view with a 10% margin.
func (s Scene) Framed() Scene {
	lo, hi, ok := s.Bounds()
	if !ok {
		return s.Clone()
	}
	center := lo.Add(hi).Scale(0.5)
	radius := hi.Sub(lo).Len() / 2
	back := s.Camera.Eye.Sub(s.Camera.LookAt).Normalize()
	if back.LenSq() == 0 {
		back = DefaultCamera().Eye.Sub(DefaultCamera().LookAt).Normalize()
	}
	cam := s.Camera
	cam.LookAt = center
	cam.Eye = center.Add(back.Scale(1.1 * radius / math.Sin(cam.FovY*math.Pi/360)))
	return s.WithCamera(cam)
}
