package scene

import (
	"math"
	"math/rand"
	"testing"

	"lumen/contact"
	"lumen/geometry"
	"lumen/material"
	"lumen/ray"
	"lumen/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	result := [][]int{}
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := make([]int, 0, n)
			q = append(q, p[:i]...)
			q = append(q, n-1)
			q = append(q, p[i:]...)
			result = append(result, q)
		}
	}
	return result
}

func TestHitNearestRegardlessOfOrder(t *testing.T) {
	spheres := []*geometry.Sphere{
		geometry.NewSphere(vec3.T{0, 0, -3}, 0.5),
		geometry.NewSphere(vec3.T{0, 0, -1}, 0.5),
		geometry.NewSphere(vec3.T{0, 0, -6}, 2),
		geometry.NewSphere(vec3.T{0, 5, -2}, 0.5),
	}
	q := ray.RaySegment{
		TheRay:     ray.Ray{Slope: vec3.T{0, 0, -1}},
		TheSegment: ray.Span{Lo: 0.001, Hi: math.Inf(1)},
	}

	for _, perm := range permutations(len(spheres)) {
		s := &Scene{}
		for _, i := range perm {
			// Tag each element with its sphere's original index.
			s.AddElement(spheres[i], i)
		}

		c, ok := s.Hit(q)
		if !ok {
			t.Fatalf("order %v: expected a hit", perm)
		}
		if c.T != 0.5 {
			t.Errorf("order %v: T = %v, want 0.5", perm, c.T)
		}
		if c.Material != 1 {
			t.Errorf("order %v: hit element tagged %d, want 1", perm, c.Material)
		}
	}
}

func TestHitRespectsSegment(t *testing.T) {
	s := &Scene{}
	s.AddElement(geometry.NewSphere(vec3.T{0, 0, -1}, 0.5), 0)
	s.AddElement(geometry.NewSphere(vec3.T{0, 0, -3}, 0.5), 0)

	c, ok := s.Hit(ray.RaySegment{
		TheRay:     ray.Ray{Slope: vec3.T{0, 0, -1}},
		TheSegment: ray.Span{Lo: 2, Hi: 10},
	})
	if !ok {
		t.Fatalf("Expected a hit")
	}
	if c.T != 2.5 {
		t.Errorf("T = %v, want 2.5", c.T)
	}

	if _, ok := (&Scene{}).Hit(ray.RaySegment{TheRay: ray.Ray{Slope: vec3.T{0, 0, -1}}, TheSegment: ray.UniverseSpan()}); ok {
		t.Errorf("Empty scene reported a hit")
	}
}

func TestTraceDepthZeroIsBlack(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := &Scene{}
	s.AddElement(geometry.NewSphere(vec3.T{0, 0, -1}, 0.5), s.AddMaterial(material.NewLambertian(vec3.T{0.5, 0.5, 0.5})))

	for _, slope := range []vec3.T{{0, 0, -1}, {0, 1, 0}, {1, 1, 1}} {
		for _, depth := range []int{0, -1} {
			got := s.Trace(ray.Ray{Slope: slope}, rng, depth)
			if diff := cmp.Diff(got, vec3.T{}); diff != "" {
				t.Errorf("Trace(%v, depth=%d) not black; diff (-got +want)\n%s", slope, depth, diff)
			}
		}
	}
}

func TestTraceMissIsSkyGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := &Scene{}

	testCases := []struct {
		slope vec3.T
		want  vec3.T
	}{
		{vec3.T{0, 1, 0}, vec3.T{0.5, 0.7, 1.0}},
		{vec3.T{0, -3, 0}, vec3.T{1, 1, 1}},
		{vec3.T{0, 0, -1}, vec3.T{0.75, 0.85, 1.0}},
	}
	for _, tc := range testCases {
		got := s.Trace(ray.Ray{Slope: tc.slope}, rng, 1)
		if diff := cmp.Diff(got, tc.want, approx); diff != "" {
			t.Errorf("Bad sky for %v; diff (-got +want)\n%s", tc.slope, diff)
		}
	}
}

func TestTraceMirrorChain(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := &Scene{Background: SolidBackground{vec3.T{1, 1, 1}}}
	mirror := s.AddMaterial(material.NewMetal(vec3.T{0.5, 0.25, 1.0}, 0))
	s.AddElement(geometry.NewSphere(vec3.T{0, 0, -2}, 1), mirror)

	// Straight back off the front of the sphere, then out to the background.
	got := s.Trace(ray.Ray{Slope: vec3.T{0, 0, -1}}, rng, 2)
	if diff := cmp.Diff(got, vec3.T{0.5, 0.25, 1.0}); diff != "" {
		t.Errorf("Bad radiance; diff (-got +want)\n%s", diff)
	}

	// One bounce isn't enough to reach the background.
	got = s.Trace(ray.Ray{Slope: vec3.T{0, 0, -1}}, rng, 1)
	if diff := cmp.Diff(got, vec3.T{}); diff != "" {
		t.Errorf("Bad radiance; diff (-got +want)\n%s", diff)
	}
}

type absorber struct{}

func (absorber) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (material.ScatterInfo, bool) {
	return material.ScatterInfo{}, false
}

func TestTraceAbsorbedIsBlack(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := &Scene{}
	s.AddElement(geometry.NewSphere(vec3.T{0, 0, -1}, 0.5), s.AddMaterial(absorber{}))

	got := s.Trace(ray.Ray{Slope: vec3.T{0, 0, -1}}, rng, 50)
	if diff := cmp.Diff(got, vec3.T{}); diff != "" {
		t.Errorf("Bad radiance; diff (-got +want)\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	s := &Scene{}
	s.AddElement(geometry.NewSphere(vec3.T{}, 1), 0)
	if err := s.Validate(); err == nil {
		t.Errorf("Expected an error for a dangling material index")
	}

	s.AddMaterial(material.NewLambertian(vec3.T{}))
	if err := s.Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	s.Clear()
	if len(s.Elements) != 0 || len(s.Materials) != 1 {
		t.Errorf("Clear left %d elements and %d materials, want 0 and 1", len(s.Elements), len(s.Materials))
	}
}
