package render

import (
	"math"

	"github.com/taigrr/raysphere/pkg/math3d"
	"github.com/taigrr/raysphere/pkg/scene"
)

// View is the camera basis for one image size. Build it once per frame; it
// is read-only afterwards.
type View struct {
	Eye     math3d.Vec3
	Forward math3d.Vec3
	Right   math3d.Vec3
	Up      math3d.Vec3
	Half    math3d.Vec2 // Half extents of the image plane at distance 1
	Width   int
	Height  int
}

// NewView derives the camera basis for a width x height image.
func NewView(cam scene.Camera, width, height int) View {
	forward := cam.LookAt.Sub(cam.Eye).Normalize()
	right := forward.Cross(cam.Up).Normalize()
	// right and forward are orthonormal, so up is already unit length.
	up := right.Cross(forward)

	halfH := math.Tan(cam.FovY * math.Pi / 180 / 2)
	aspect := float64(width) / float64(height)
	return View{
		Eye:     cam.Eye,
		Forward: forward,
		Right:   right,
		Up:      up,
		Half:    math3d.V2(aspect*halfH, halfH),
		Width:   width,
		Height:  height,
	}
}

// NDC maps the centre of pixel (i, j) to normalized device coordinates.
// Y is flipped so row 0 is the top of the image.
func (v View) NDC(i, j int) math3d.Vec2 {
	return math3d.V2(
		2*(float64(i)+0.5)/float64(v.Width)-1,
		1-2*(float64(j)+0.5)/float64(v.Height),
	)
}

// Ray returns the primary ray through the centre of pixel (i, j).
func (v View) Ray(i, j int) math3d.Ray {
	p := v.NDC(i, j).Mul(v.Half)
	dir := v.Forward.Add(v.Right.Scale(p.X).Add(v.Up.Scale(p.Y)))
	return math3d.NewRay(v.Eye, dir)
}
