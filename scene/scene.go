package scene

import (
	"fmt"
	"math"
	"math/rand"

	"lumen/contact"
	"lumen/geometry"
	"lumen/material"
	"lumen/ray"
	"lumen/vmath/vec3"
)

// shadowAcneEpsilon is the lower bound of every scene query.  Scattered rays
// start exactly on a surface; floating-point error would otherwise let them
// re-hit it at t ~ 0.
const shadowAcneEpsilon = 0.001

type Element struct {
	TheGeometry   geometry.Geometry
	MaterialIndex int
}

// Background supplies the radiance of rays that escape the scene.
type Background interface {
	Radiance(r ray.Ray) vec3.T
}

// SkyGradient blends from white at the horizon to sky blue overhead, keyed on
// the vertical component of the normalized ray direction.
type SkyGradient struct{}

func (SkyGradient) Radiance(r ray.Ray) vec3.T {
	unit := vec3.Normalize(r.Slope)
	a := 0.5 * (unit.Y() + 1.0)
	return vec3.Lerp(vec3.T{1, 1, 1}, vec3.T{0.5, 0.7, 1.0}, a)
}

// SolidBackground is a constant radiance in every direction.
type SolidBackground struct {
	Color vec3.T
}

func (s SolidBackground) Radiance(r ray.Ray) vec3.T {
	return s.Color
}

// Scene owns its elements outright.  Materials live in a shared table so that
// any number of elements can use the same one by index.  A Scene must not be
// modified while a render is reading it.
type Scene struct {
	Materials []material.Material
	Elements  []*Element

	// Background defaults to SkyGradient when nil.
	Background Background
}

// AddMaterial is a convenience function to register a material and get its
// index.
func (s *Scene) AddMaterial(m material.Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

func (s *Scene) AddElement(g geometry.Geometry, materialIndex int) int {
	s.Elements = append(s.Elements, &Element{
		TheGeometry:   g,
		MaterialIndex: materialIndex,
	})
	return len(s.Elements) - 1
}

// Clear removes every element, keeping the material table.
func (s *Scene) Clear() {
	s.Elements = nil
}

// Validate checks that every element refers to a registered material.
func (s *Scene) Validate() error {
	for i, e := range s.Elements {
		if e.MaterialIndex < 0 || e.MaterialIndex >= len(s.Materials) {
			return fmt.Errorf("element %d refers to material %d, but only %d materials are registered", i, e.MaterialIndex, len(s.Materials))
		}
		if e.TheGeometry == nil {
			return fmt.Errorf("element %d has no geometry", i)
		}
	}
	return nil
}

// Hit finds the nearest contact along the query.  Each element is asked only
// about the part of the segment in front of the closest contact found so far,
// so the result does not depend on element order.
func (s *Scene) Hit(query ray.RaySegment) (contact.Contact, bool) {
	minContact := contact.Contact{}
	found := false

	for _, elt := range s.Elements {
		c, ok := elt.TheGeometry.RayInto(query)
		if !ok {
			continue
		}
		query.TheSegment.Hi = c.T
		c.Material = elt.MaterialIndex
		minContact = c
		found = true
	}

	return minContact, found
}

func (s *Scene) background() Background {
	if s.Background == nil {
		return SkyGradient{}
	}
	return s.Background
}

// Trace estimates the radiance arriving along r, following at most depthLim
// scatter events.
//
// This is the recursive definition
//
//	trace(r, d) = 0                                  if d <= 0
//	            = 0                                  if absorbed
//	            = attenuation * trace(scattered, d-1) on a hit
//	            = background(r)                       on a miss
//
// unrolled into a loop that carries the product of attenuations.
func (s *Scene) Trace(initialQuery ray.Ray, rng *rand.Rand, depthLim int) vec3.T {
	curK := vec3.T{1, 1, 1}
	curRay := initialQuery

	for depth := depthLim; depth > 0; depth-- {
		c, ok := s.Hit(ray.RaySegment{
			TheRay:     curRay,
			TheSegment: ray.Span{Lo: shadowAcneEpsilon, Hi: math.Inf(1)},
		})
		if !ok {
			return vec3.MulVV(curK, s.background().Radiance(curRay))
		}

		info, ok := s.Materials[c.Material].Scatter(curRay, c, rng)
		if !ok {
			return vec3.T{}
		}

		curK = vec3.MulVV(curK, info.Attenuation)
		curRay = info.Scattered
	}

	return vec3.T{}
}
