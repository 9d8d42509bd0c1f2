package material

import (
	"math"
	"math/rand"

	"lumen/contact"
	"lumen/ray"
	"lumen/vmath/vec3"
)

// ScatterInfo is the outcome of a ray striking a material that did not absorb
// it.
type ScatterInfo struct {
	// Attenuation multiplies, componentwise, the radiance carried back along
	// Scattered.
	Attenuation vec3.T
	Scattered   ray.Ray
}

// Material decides what happens to a ray at a contact.  A false return means
// the ray was absorbed and the path ends.
//
// Implementations must be safe for concurrent use; all randomness comes from
// rng.
type Material interface {
	Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (ScatterInfo, bool)
}

// Lambertian is an ideal diffuse reflector.
type Lambertian struct {
	Albedo vec3.T
}

func NewLambertian(albedo vec3.T) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

func (l *Lambertian) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (ScatterInfo, bool) {
	dir := vec3.AddVV(c.N, vec3.UniformUnitDistribution(rng))

	// The random unit vector can cancel the normal almost exactly.
	if dir.NearZero() {
		dir = c.N
	}

	return ScatterInfo{
		Attenuation: l.Albedo,
		Scattered: ray.Ray{
			Point: c.P,
			Slope: dir,
		},
	}, true
}

// Metal is a specular reflector.  Fuzz perturbs the mirror direction; 0 is a
// perfect mirror.
type Metal struct {
	Albedo vec3.T
	Fuzz   float64
}

// NewMetal builds a metal, clamping fuzz to [0, 1].
func NewMetal(albedo vec3.T, fuzz float64) *Metal {
	return &Metal{
		Albedo: albedo,
		Fuzz:   math.Min(1, math.Max(0, fuzz)),
	}
}

func (m *Metal) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (ScatterInfo, bool) {
	reflected := vec3.Reflect(in.Slope, c.N)
	dir := vec3.AddVV(reflected, vec3.MulVS(vec3.UniformUnitDistribution(rng), m.Fuzz))

	// Fuzz can push the ray below the surface, where it is absorbed.
	if vec3.IProd(dir, c.N) <= 0.0 {
		return ScatterInfo{}, false
	}

	return ScatterInfo{
		Attenuation: m.Albedo,
		Scattered: ray.Ray{
			Point: c.P,
			Slope: dir,
		},
	}, true
}

// Dielectric is a clear refractive material such as glass or water.
// RefractiveIndex is relative to the medium on the outside of the surface; an
// index below 1 models an air bubble inside a denser medium.
type Dielectric struct {
	RefractiveIndex float64
}

func NewDielectric(refractiveIndex float64) *Dielectric {
	return &Dielectric{RefractiveIndex: refractiveIndex}
}

func (d *Dielectric) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (ScatterInfo, bool) {
	ratio := d.RefractiveIndex
	if c.FrontFace {
		ratio = 1.0 / d.RefractiveIndex
	}

	unitDir := vec3.Normalize(in.Slope)
	cosTheta := math.Min(vec3.IProd(vec3.Neg(unitDir), c.N), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	var dir vec3.T
	if ratio*sinTheta > 1.0 || Reflectance(cosTheta, ratio) > rng.Float64() {
		// Total internal reflection, or the Fresnel coin came up reflect.
		dir = vec3.Reflect(unitDir, c.N)
	} else {
		dir = vec3.Refract(unitDir, c.N, ratio)
	}

	return ScatterInfo{
		Attenuation: vec3.T{1, 1, 1},
		Scattered: ray.Ray{
			Point: c.P,
			Slope: dir,
		},
	}, true
}

// Reflectance is Schlick's approximation of the Fresnel reflection
// coefficient for a ray at the given incidence cosine crossing an interface
// with the given index ratio.
func Reflectance(cosine, ratio float64) float64 {
	r0 := (1 - ratio) / (1 + ratio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
