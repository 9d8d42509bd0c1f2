package mat33

import (
	"lumen/vmath/vec3"
)

// T is a 3x3 matrix stored in row-major order.
type T struct {
	Elts [9]float64
}

// FromColumns builds the matrix whose columns are a, b and c.  Multiplying it
// by (x, y, z) yields x*a + y*b + z*c, which is how the camera maps lens
// coordinates into world space.
func FromColumns(a, b, c vec3.T) T {
	return T{[9]float64{
		a[0], b[0], c[0],
		a[1], b[1], c[1],
		a[2], b[2], c[2],
	}}
}

// Column returns column i.
func (m T) Column(i int) vec3.T {
	return vec3.T{m.Elts[i], m.Elts[3+i], m.Elts[6+i]}
}

func MulMV(a T, b vec3.T) vec3.T {
	return vec3.T{
		a.Elts[0]*b[0] + a.Elts[1]*b[1] + a.Elts[2]*b[2],
		a.Elts[3]*b[0] + a.Elts[4]*b[1] + a.Elts[5]*b[2],
		a.Elts[6]*b[0] + a.Elts[7]*b[1] + a.Elts[8]*b[2],
	}
}
