package geometry

import (
	"math"

	"lumen/contact"
	"lumen/ray"
	"lumen/vmath/vec3"
)

// Geometry is anything a ray can strike.  RayInto reports the first contact
// whose parameter lies strictly inside the query segment.
type Geometry interface {
	RayInto(query ray.RaySegment) (contact.Contact, bool)
}

type Sphere struct {
	Center vec3.T
	Radius float64
}

// NewSphere builds a sphere, clamping negative radii to zero.
func NewSphere(center vec3.T, radius float64) *Sphere {
	return &Sphere{
		Center: center,
		Radius: math.Max(0, radius),
	}
}

func (s *Sphere) RayInto(query ray.RaySegment) (contact.Contact, bool) {
	// A zero-radius sphere would produce a NaN normal.
	if s.Radius <= 0 {
		return contact.Contact{}, false
	}

	r := query.TheRay
	oc := vec3.SubVV(s.Center, r.Point)
	a := r.Slope.NormSquared()
	h := vec3.IProd(r.Slope, oc)
	c := oc.NormSquared() - s.Radius*s.Radius

	discriminant := h*h - a*c
	if discriminant < 0 {
		return contact.Contact{}, false
	}
	sqrtd := math.Sqrt(discriminant)

	// Try the nearer root first.  The segment bounds are exclusive so that a
	// scattered ray doesn't re-hit the surface it just left.
	root := (h - sqrtd) / a
	if !query.TheSegment.Surrounds(root) {
		root = (h + sqrtd) / a
		if !query.TheSegment.Surrounds(root) {
			return contact.Contact{}, false
		}
	}

	p := r.Eval(root)
	outward := vec3.DivVS(vec3.SubVV(p, s.Center), s.Radius)
	return contact.New(root, r, p, outward), true
}

// Box is an axis-aligned box given by one span per axis.
type Box struct {
	Spans [3]ray.Span
}

// NewBox builds the box spanned by two opposite corners.
func NewBox(a, b vec3.T) *Box {
	box := &Box{}
	for i := 0; i < 3; i++ {
		box.Spans[i] = ray.Span{Lo: math.Min(a[i], b[i]), Hi: math.Max(a[i], b[i])}
	}
	return box
}

func (b *Box) RayInto(query ray.RaySegment) (contact.Contact, bool) {
	r := query.TheRay

	// cover tracks the parameter range inside all slabs seen so far.
	cover := ray.UniverseSpan()
	entryAxis, exitAxis := -1, -1
	entrySign, exitSign := 0.0, 0.0

	for i := 0; i < 3; i++ {
		if r.Slope[i] == 0 {
			if !b.Spans[i].Contains(r.Point[i]) {
				return contact.Contact{}, false
			}
			continue
		}

		cur := ray.Span{
			Lo: (b.Spans[i].Lo - r.Point[i]) / r.Slope[i],
			Hi: (b.Spans[i].Hi - r.Point[i]) / r.Slope[i],
		}

		// Entering through the Lo face means the outward normal points down
		// the axis.
		normalComponent := -1.0
		if cur.Hi < cur.Lo {
			cur.Hi, cur.Lo = cur.Lo, cur.Hi
			normalComponent = 1.0
		}

		if cover.Lo < cur.Lo {
			cover.Lo = cur.Lo
			entryAxis = i
			entrySign = normalComponent
		}
		if cur.Hi < cover.Hi {
			cover.Hi = cur.Hi
			exitAxis = i
			exitSign = -normalComponent
		}
		if cover.Hi < cover.Lo {
			return contact.Contact{}, false
		}
	}

	t, axis, sign := cover.Lo, entryAxis, entrySign
	if !query.TheSegment.Surrounds(t) || axis == -1 {
		t, axis, sign = cover.Hi, exitAxis, exitSign
		if !query.TheSegment.Surrounds(t) || axis == -1 {
			return contact.Contact{}, false
		}
	}

	outward := vec3.T{}
	outward[axis] = sign
	return contact.New(t, r, r.Eval(t), outward), true
}
