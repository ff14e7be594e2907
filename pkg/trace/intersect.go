// Package trace intersects rays with scene primitives and shades the hits.
//
// Everything here is a pure function of its arguments: no package state, no
// allocation per ray, safe to call from any number of goroutines.
package trace

import (
	"math"

	"github.com/taigrr/raysphere/pkg/math3d"
	"github.com/taigrr/raysphere/pkg/scene"
)

// Epsilon is the smallest accepted hit distance. Roots at or below it are
// rejected so rays leaving a surface do not re-hit it.
const Epsilon = 1e-4

// Hit describes a ray/primitive intersection. OK is false on a miss, in which
// case the other fields are meaningless.
type Hit struct {
	OK     bool
	T      float64     // Distance along the ray
	Point  math3d.Vec3 // origin + T*dir
	Normal math3d.Vec3 // Outward unit normal at Point
	Index  int         // Index of the primitive in the scene; set by Intersect only, -1 otherwise
}

// Miss is the zero-hit value.
var Miss = Hit{Index: -1}

// IntersectSphere solves |origin + t*dir - center|² = radius² for the nearest
// t > Epsilon. The sphere has no scene position here, so Index stays -1.
func IntersectSphere(origin, dir, center math3d.Vec3, radius float64) Hit {
	oc := origin.Sub(center)
	a := dir.Dot(dir)
	b := 2 * oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return Miss
	}
	sqrtDisc := math.Sqrt(disc)
	t1 := (-b - sqrtDisc) / (2 * a)
	t2 := (-b + sqrtDisc) / (2 * a)

	var t float64
	switch {
	case t1 > Epsilon:
		t = t1
	case t2 > Epsilon:
		t = t2
	default:
		return Miss
	}

	p := origin.Add(dir.Scale(t))
	return Hit{
		OK:     true,
		T:      t,
		Point:  p,
		Normal: p.Sub(center).Div(radius),
		Index:  -1,
	}
}

// IntersectShape dispatches on the primitive's kind. Unknown kinds never hit.
func IntersectShape(s scene.Sphere, ray math3d.Ray) Hit {
	switch s.Kind {
	case scene.KindSphere:
		return IntersectSphere(ray.Origin, ray.Dir, s.Center, s.Radius)
	default:
		return Miss
	}
}

// Intersect returns the closest hit over every primitive of sc. On equal
// distances the primitive listed first wins.
func Intersect(sc *scene.Scene, ray math3d.Ray) Hit {
	best := Miss
	for i := range sc.Spheres {
		h := IntersectShape(sc.Spheres[i], ray)
		if !h.OK {
			continue
		}
		if !best.OK || h.T < best.T {
			h.Index = i
			best = h
		}
	}
	return best
}
