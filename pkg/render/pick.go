package render

import (
	"github.com/taigrr/raysphere/pkg/scene"
	"github.com/taigrr/raysphere/pkg/trace"
)

// Pick returns the sphere seen through pixel (x, y) of a width x height
// image of sc, using the same primary ray as Render. ok is false when the
// pixel is outside the image or the ray hits nothing.
func Pick(sc scene.Scene, width, height, x, y int) (index int, t float64, ok bool) {
	if x < 0 || x >= width || y < 0 || y >= height {
		return -1, 0, false
	}
	hit := trace.Intersect(&sc, NewView(sc.Camera, width, height).Ray(x, y))
	if !hit.OK {
		return -1, 0, false
	}
	return hit.Index, hit.T, true
}
