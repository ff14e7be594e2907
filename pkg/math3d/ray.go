package math3d

// Ray is a half-line with an origin and a unit direction.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// NewRay creates a ray, normalizing dir.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

// At returns the point origin + t*dir.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}
