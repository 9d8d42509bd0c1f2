package contact

import (
	"lumen/ray"
	"lumen/vmath/vec3"
)

// Contact describes where a ray struck a surface.  It only lives for a single
// hit-and-shade step.
type Contact struct {
	T float64
	R ray.Ray
	P vec3.T

	// N is unit length and always points back against R.
	N vec3.T

	// FrontFace is true when the geometry's outward normal already faced the
	// ray, i.e. the ray arrived from outside the surface.
	FrontFace bool

	// Material indexes the scene's material table.  Geometry leaves it zero;
	// the scene fills it in for the element that was hit.
	Material int
}

// New builds a contact from the geometry's outward unit normal, flipping it
// when the ray arrives from the inside.
func New(t float64, r ray.Ray, p, outwardNormal vec3.T) Contact {
	frontFace := vec3.IProd(r.Slope, outwardNormal) < 0.0
	n := outwardNormal
	if !frontFace {
		n = vec3.Neg(outwardNormal)
	}
	return Contact{
		T:         t,
		R:         r,
		P:         p,
		N:         n,
		FrontFace: frontFace,
	}
}
