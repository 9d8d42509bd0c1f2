package ray

import (
	"math"

	"lumen/vmath/vec3"
)

// Span is an interval of the ray parameter.  Depending on the query it is
// read as closed (Contains) or open (Surrounds).
type Span struct {
	Lo, Hi float64
}

// EmptySpan contains nothing.  It deliberately has Lo > Hi.
func EmptySpan() Span {
	return Span{math.Inf(1), math.Inf(-1)}
}

// UniverseSpan contains every value.
func UniverseSpan() Span {
	return Span{math.Inf(-1), math.Inf(1)}
}

func (s Span) Size() float64 {
	return s.Hi - s.Lo
}

// Contains reports whether Lo <= x <= Hi.
func (s Span) Contains(x float64) bool {
	return s.Lo <= x && x <= s.Hi
}

// Surrounds reports whether Lo < x < Hi.
func (s Span) Surrounds(x float64) bool {
	return s.Lo < x && x < s.Hi
}

func (s Span) Clamp(x float64) float64 {
	if x < s.Lo {
		return s.Lo
	}
	if x > s.Hi {
		return s.Hi
	}
	return x
}

// Ray is the half-line Point + t*Slope.  Slope is not required to be
// normalized, so t is not a distance in general.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func (r Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

// RaySegment restricts a ray to the parameter values admitted by TheSegment.
type RaySegment struct {
	TheRay     Ray
	TheSegment Span
}
