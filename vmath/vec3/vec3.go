// Package vec3 is the 3-vector arithmetic shared by every stage of the
// renderer.  A T is used interchangeably as a point, a direction and a linear
// RGB color.
package vec3

import (
	"math"
	"math/rand"
)

// nearZeroEps is the magnitude below which a vector is treated as degenerate.
const nearZeroEps = 1e-8

type T [3]float64

// Y is the vertical component.
func (v T) Y() float64 { return v[1] }

func (v T) Norm() float64 {
	return math.Sqrt(v.NormSquared())
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// NearZero reports whether every component is smaller than 1e-8 in
// magnitude.
func (v T) NearZero() bool {
	return math.Abs(v[0]) < nearZeroEps && math.Abs(v[1]) < nearZeroEps && math.Abs(v[2]) < nearZeroEps
}

// Normalize returns v scaled to unit length.  Vectors of length 1e-8 or less
// come back as the zero vector instead of a vector of NaNs.
func Normalize(v T) T {
	l := v.Norm()
	if l <= nearZeroEps {
		return T{}
	}
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the componentwise (Hadamard) product.  It is how attenuation
// colors combine; it is not the dot product.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func MulSV(a float64, b T) T {
	return MulVS(b, a)
}

func DivVS(a T, b float64) T {
	return MulVS(a, 1/b)
}

func Neg(a T) T {
	return T{-a[0], -a[1], -a[2]}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Lerp blends linearly from a (t == 0) to b (t == 1).
func Lerp(a, b T, t float64) T {
	return AddVV(MulVS(a, 1-t), MulVS(b, t))
}

func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// Refract bends the unit vector uv through a surface with unit normal n facing
// against uv.  etaRatio is the ratio of the incident index to the transmitted
// index.
func Refract(uv, n T, etaRatio float64) T {
	cosTheta := math.Min(IProd(Neg(uv), n), 1.0)
	perp := MulVS(AddVV(uv, MulVS(n, cosTheta)), etaRatio)
	parallel := MulVS(n, -math.Sqrt(math.Abs(1.0-perp.NormSquared())))
	return AddVV(perp, parallel)
}

// Random returns a vector with each component uniform in [0, 1).
func Random(rng *rand.Rand) T {
	return T{rng.Float64(), rng.Float64(), rng.Float64()}
}

// RandomRange returns a vector with each component uniform in [min, max).
func RandomRange(min, max float64, rng *rand.Rand) T {
	return T{
		min + (max-min)*rng.Float64(),
		min + (max-min)*rng.Float64(),
		min + (max-min)*rng.Float64(),
	}
}

// UniformUnitDistribution draws a direction uniformly from the unit sphere by
// rejection sampling the [-1, 1) cube.
//
// Candidates with squared length below 1e-160 are rejected too, since their
// normalization would underflow.
func UniformUnitDistribution(rng *rand.Rand) T {
	result := T{}
	for {
		result[0] = 2 * (rng.Float64() - 0.5)
		result[1] = 2 * (rng.Float64() - 0.5)
		result[2] = 2 * (rng.Float64() - 0.5)
		normSquared := result.NormSquared()
		if 1e-160 <= normSquared && normSquared <= 1.0 {
			break
		}
	}
	return DivVS(result, math.Sqrt(result.NormSquared()))
}

func HemisphereUnitVec3Distribution(normal T, rng *rand.Rand) T {
	candidate := UniformUnitDistribution(rng)
	if IProd(candidate, normal) < 0.0 {
		candidate = Neg(candidate)
	}
	return candidate
}

// RandomInUnitDisk returns a point uniformly distributed in the unit disk of
// the z = 0 plane.
func RandomInUnitDisk(rng *rand.Rand) T {
	for {
		p := T{2*rng.Float64() - 1, 2*rng.Float64() - 1, 0}
		if p.NormSquared() < 1.0 {
			return p
		}
	}
}
