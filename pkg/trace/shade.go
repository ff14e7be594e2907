package trace

import (
	"math"

	"github.com/taigrr/raysphere/pkg/math3d"
	"github.com/taigrr/raysphere/pkg/scene"
)

// Shade evaluates the ambient + diffuse + reflection-vector specular model
// for a hit. A miss returns background unchanged. Lights are never occluded.
// The result is clamped per channel to [0, 1].
func Shade(hit Hit, dir math3d.Vec3, mat scene.Material, lights []scene.Light, background math3d.Vec3) math3d.Vec3 {
	if !hit.OK {
		return background
	}
	color := mat.BaseColor.Scale(mat.Ambient)
	view := dir.Negate().Normalize()

	for _, light := range lights {
		l := light.Position.Sub(hit.Point).Normalize()
		diffuse := math.Max(0, hit.Normal.Dot(l))
		if diffuse <= 0 {
			continue
		}
		specular := 0.0
		if rv := math.Max(0, l.Negate().Reflect(hit.Normal).Dot(view)); rv > 0 {
			specular = math.Pow(rv, mat.Shininess)
		}
		color = color.Add(light.Color.Mul(
			mat.BaseColor.Scale(diffuse).Add(mat.Specular.Scale(specular)),
		))
	}
	return color.Clamp01()
}

// Trace intersects ray with sc and shades the closest hit.
func Trace(sc *scene.Scene, ray math3d.Ray) math3d.Vec3 {
	hit := Intersect(sc, ray)
	if !hit.OK {
		return sc.Background
	}
	return Shade(hit, ray.Dir, sc.Spheres[hit.Index].Material, sc.Lights, sc.Background)
}
