package vec3

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestNormalizeUnitLength(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := RandomRange(-100, 100, rng)
		if v.Norm() <= 1e-8 {
			continue
		}
		if got := Normalize(v).Norm(); math.Abs(got-1.0) > 1e-12 {
			t.Fatalf("Normalize(%v).Norm() = %v, want 1", v, got)
		}
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	testCases := []T{
		{0, 0, 0},
		{1e-9, 0, 0},
		{0, -5e-9, 5e-9},
	}
	for _, tc := range testCases {
		got := Normalize(tc)
		if diff := cmp.Diff(got, T{}); diff != "" {
			t.Errorf("Normalize(%v) bad result; diff (-got +want)\n%s", tc, diff)
		}
		for _, c := range got {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				t.Errorf("Normalize(%v) = %v, contains non-finite component", tc, got)
			}
		}
	}
}

func TestProductSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		a := RandomRange(-10, 10, rng)
		b := RandomRange(-10, 10, rng)

		if diff := cmp.Diff(CProd(a, b), Neg(CProd(b, a))); diff != "" {
			t.Fatalf("a x b != -(b x a) for a=%v b=%v; diff (-got +want)\n%s", a, b, diff)
		}
		if IProd(a, b) != IProd(b, a) {
			t.Fatalf("a.b != b.a for a=%v b=%v", a, b)
		}
	}
}

func TestArithmetic(t *testing.T) {
	a := T{1, 2, 3}
	b := T{4, -5, 6}

	testCases := []struct {
		desc string
		got  T
		want T
	}{
		{"AddVV", AddVV(a, b), T{5, -3, 9}},
		{"SubVV", SubVV(a, b), T{-3, 7, -3}},
		{"MulVV", MulVV(a, b), T{4, -10, 18}},
		{"MulVS", MulVS(a, 2), T{2, 4, 6}},
		{"MulSV", MulSV(2, a), T{2, 4, 6}},
		{"DivVS", DivVS(a, 2), T{0.5, 1, 1.5}},
		{"Neg", Neg(a), T{-1, -2, -3}},
		{"CProd", CProd(T{1, 0, 0}, T{0, 1, 0}), T{0, 0, 1}},
		{"Lerp", Lerp(T{1, 1, 1}, T{0.5, 0.7, 1.0}, 0.5), T{0.75, 0.85, 1.0}},
		{"Reflect", Reflect(T{1, -1, 0}, T{0, 1, 0}), T{1, 1, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if diff := cmp.Diff(tc.got, tc.want, approx); diff != "" {
				t.Errorf("Bad result; diff (-got +want)\n%s", diff)
			}
		})
	}

	if got := IProd(a, b); got != 12 {
		t.Errorf("IProd(%v, %v) = %v, want 12", a, b, got)
	}
	if got := (T{3, 4, 0}).NormSquared(); got != 25 {
		t.Errorf("NormSquared = %v, want 25", got)
	}
	if got := (T{3, 4, 0}).Norm(); got != 5 {
		t.Errorf("Norm = %v, want 5", got)
	}
}

func TestRefractStraightThrough(t *testing.T) {
	// Normal incidence is not bent regardless of the index ratio.
	got := Refract(T{0, 0, -1}, T{0, 0, 1}, 1/1.5)
	if diff := cmp.Diff(got, T{0, 0, -1}, approx); diff != "" {
		t.Errorf("Bad refraction; diff (-got +want)\n%s", diff)
	}
}

func TestRefractSnell(t *testing.T) {
	eta := 1 / 1.5
	theta := math.Pi / 6
	in := T{math.Sin(theta), -math.Cos(theta), 0}
	got := Refract(in, T{0, 1, 0}, eta)

	if math.Abs(got.Norm()-1) > 1e-12 {
		t.Errorf("Refracted vector has length %v, want 1", got.Norm())
	}
	if want := eta * math.Sin(theta); math.Abs(got[0]-want) > 1e-12 {
		t.Errorf("sin(theta') = %v, want %v", got[0], want)
	}
	if got[1] >= 0 {
		t.Errorf("Refracted vector %v does not cross the surface", got)
	}
}

func TestNearZero(t *testing.T) {
	if !(T{1e-9, -1e-9, 0}).NearZero() {
		t.Errorf("Expected tiny vector to be near zero")
	}
	if (T{1e-9, 1e-7, 0}).NearZero() {
		t.Errorf("Expected vector with one large component to not be near zero")
	}
}

func TestDistributions(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	normal := T{0, 1, 0}
	for i := 0; i < 1000; i++ {
		u := UniformUnitDistribution(rng)
		if math.Abs(u.Norm()-1) > 1e-12 {
			t.Fatalf("UniformUnitDistribution gave %v with length %v", u, u.Norm())
		}

		h := HemisphereUnitVec3Distribution(normal, rng)
		if IProd(h, normal) < 0 {
			t.Fatalf("HemisphereUnitVec3Distribution gave %v below the hemisphere", h)
		}

		d := RandomInUnitDisk(rng)
		if d[2] != 0 || d.NormSquared() >= 1 {
			t.Fatalf("RandomInUnitDisk gave %v outside the unit disk", d)
		}

		r := RandomRange(-2, 3, rng)
		for _, c := range r {
			if c < -2 || c >= 3 {
				t.Fatalf("RandomRange(-2, 3) gave out-of-range %v", r)
			}
		}

		p := Random(rng)
		for _, c := range p {
			if c < 0 || c >= 1 {
				t.Fatalf("Random gave out-of-range %v", p)
			}
		}
	}
}
