// Package scenes is the catalogue of built-in scenes the renderer knows how
// to build.
package scenes

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"lumen/camera"
	"lumen/geometry"
	"lumen/material"
	"lumen/scene"
	"lumen/vmath/vec3"
)

// BuildFunc constructs a scene and a camera suited to it.  Scenes with random
// layouts draw from rng.
type BuildFunc func(rng *rand.Rand) (*scene.Scene, camera.Config)

type entry struct {
	description string
	build       BuildFunc
}

var catalogue = map[string]entry{
	"single": {
		description: "A red diffuse sphere under the sky",
		build:       Single,
	},
	"materials": {
		description: "Diffuse, hollow glass and metal spheres on a diffuse ground",
		build:       Materials,
	},
	"defocus": {
		description: "The materials scene from a distance, with depth of field",
		build:       Defocus,
	},
	"final": {
		description: "A field of small random spheres around three large ones",
		build:       Final,
	},
	"cornell": {
		description: "Two boxes in an open-topped colored room",
		build:       Cornell,
	},
}

// Names lists the catalogue in sorted order.
func Names() []string {
	var names []string
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Describe(name string) string {
	return catalogue[name].description
}

// Lookup builds the named scene.  seed controls random layouts.
func Lookup(name string, seed int64) (*scene.Scene, camera.Config, error) {
	e, ok := catalogue[name]
	if !ok {
		return nil, camera.Config{}, fmt.Errorf("unknown scene %q (known scenes: %s)", name, strings.Join(Names(), ", "))
	}

	sc, cfg := e.build(rand.New(rand.NewSource(seed)))
	if err := sc.Validate(); err != nil {
		return nil, camera.Config{}, fmt.Errorf("while validating scene %q: %w", name, err)
	}
	return sc, cfg, nil
}

func Single(rng *rand.Rand) (*scene.Scene, camera.Config) {
	sc := &scene.Scene{}
	red := sc.AddMaterial(material.NewLambertian(vec3.T{0.7, 0.3, 0.3}))
	sc.AddElement(geometry.NewSphere(vec3.T{0, 0, -1}, 0.5), red)

	return sc, camera.DefaultConfig()
}

func materialsScene() *scene.Scene {
	sc := &scene.Scene{}

	ground := sc.AddMaterial(material.NewLambertian(vec3.T{0.8, 0.8, 0.0}))
	center := sc.AddMaterial(material.NewLambertian(vec3.T{0.1, 0.2, 0.5}))
	glass := sc.AddMaterial(material.NewDielectric(1.5))
	bubble := sc.AddMaterial(material.NewDielectric(1.0 / 1.5))
	metal := sc.AddMaterial(material.NewMetal(vec3.T{0.8, 0.6, 0.2}, 1.0))

	sc.AddElement(geometry.NewSphere(vec3.T{0, -100.5, -1}, 100), ground)
	sc.AddElement(geometry.NewSphere(vec3.T{0, 0, -1.2}, 0.5), center)
	sc.AddElement(geometry.NewSphere(vec3.T{-1, 0, -1}, 0.5), glass)
	sc.AddElement(geometry.NewSphere(vec3.T{-1, 0, -1}, 0.4), bubble)
	sc.AddElement(geometry.NewSphere(vec3.T{1, 0, -1}, 0.5), metal)

	return sc
}

func Materials(rng *rand.Rand) (*scene.Scene, camera.Config) {
	cfg := camera.DefaultConfig()
	cfg.ImageWidth = 400
	cfg.MaxDepth = 50
	return materialsScene(), cfg
}

func Defocus(rng *rand.Rand) (*scene.Scene, camera.Config) {
	cfg := camera.DefaultConfig()
	cfg.ImageWidth = 400
	cfg.MaxDepth = 50
	cfg.VFOV = 20
	cfg.LookFrom = vec3.T{-2, 2, 1}
	cfg.LookAt = vec3.T{0, 0, -1}
	cfg.DefocusAngle = 10.0
	cfg.FocusDist = 3.4
	return materialsScene(), cfg
}

func Final(rng *rand.Rand) (*scene.Scene, camera.Config) {
	sc := &scene.Scene{}

	ground := sc.AddMaterial(material.NewLambertian(vec3.T{0.5, 0.5, 0.5}))
	sc.AddElement(geometry.NewSphere(vec3.T{0, -1000, 0}, 1000), ground)

	// Small spheres all share one glass material.
	glass := sc.AddMaterial(material.NewDielectric(1.5))

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := rng.Float64()
			center := vec3.T{float64(a) + 0.9*rng.Float64(), 0.2, float64(b) + 0.9*rng.Float64()}

			if vec3.SubVV(center, vec3.T{4, 0.2, 0}).Norm() <= 0.9 {
				continue
			}

			var mat int
			switch {
			case chooseMat < 0.8:
				albedo := vec3.MulVV(vec3.Random(rng), vec3.Random(rng))
				mat = sc.AddMaterial(material.NewLambertian(albedo))
			case chooseMat < 0.95:
				albedo := vec3.RandomRange(0.5, 1, rng)
				fuzz := 0.5 * rng.Float64()
				mat = sc.AddMaterial(material.NewMetal(albedo, fuzz))
			default:
				mat = glass
			}
			sc.AddElement(geometry.NewSphere(center, 0.2), mat)
		}
	}

	sc.AddElement(geometry.NewSphere(vec3.T{0, 1, 0}, 1.0), glass)
	sc.AddElement(geometry.NewSphere(vec3.T{-4, 1, 0}, 1.0), sc.AddMaterial(material.NewLambertian(vec3.T{0.4, 0.2, 0.1})))
	sc.AddElement(geometry.NewSphere(vec3.T{4, 1, 0}, 1.0), sc.AddMaterial(material.NewMetal(vec3.T{0.7, 0.6, 0.5}, 0.0)))

	cfg := camera.DefaultConfig()
	cfg.ImageWidth = 1200
	cfg.SamplesPerPixel = 500
	cfg.MaxDepth = 50
	cfg.VFOV = 20
	cfg.LookFrom = vec3.T{13, 2, 3}
	cfg.LookAt = vec3.T{0, 0, 0}
	cfg.DefocusAngle = 0.6
	cfg.FocusDist = 10.0

	return sc, cfg
}

// Cornell has no emitters: light enters through the open top and front from
// a uniform white background.
func Cornell(rng *rand.Rand) (*scene.Scene, camera.Config) {
	sc := &scene.Scene{Background: scene.SolidBackground{Color: vec3.T{1, 1, 1}}}

	red := sc.AddMaterial(material.NewLambertian(vec3.T{0.65, 0.05, 0.05}))
	white := sc.AddMaterial(material.NewLambertian(vec3.T{0.73, 0.73, 0.73}))
	green := sc.AddMaterial(material.NewLambertian(vec3.T{0.12, 0.45, 0.15}))
	mirror := sc.AddMaterial(material.NewMetal(vec3.T{0.9, 0.9, 0.9}, 0.05))

	// The room spans [0, 10] on every axis, with walls 0.1 thick.
	sc.AddElement(geometry.NewBox(vec3.T{-0.1, 0, 0}, vec3.T{0, 10, 10}), red)
	sc.AddElement(geometry.NewBox(vec3.T{10, 0, 0}, vec3.T{10.1, 10, 10}), green)
	sc.AddElement(geometry.NewBox(vec3.T{-0.1, -0.1, 0}, vec3.T{10.1, 0, 10}), white)
	sc.AddElement(geometry.NewBox(vec3.T{-0.1, 0, -0.1}, vec3.T{10.1, 10, 0}), white)

	sc.AddElement(geometry.NewBox(vec3.T{1.5, 0, 2}, vec3.T{4.5, 6, 5}), white)
	sc.AddElement(geometry.NewBox(vec3.T{6, 0, 5}, vec3.T{8.5, 3, 7.5}), mirror)
	sc.AddElement(geometry.NewSphere(vec3.T{7.25, 4, 6.25}, 1), sc.AddMaterial(material.NewDielectric(1.5)))

	cfg := camera.DefaultConfig()
	cfg.AspectRatio = 1
	cfg.ImageWidth = 300
	cfg.MaxDepth = 50
	cfg.VFOV = 40
	cfg.LookFrom = vec3.T{5, 5, 24}
	cfg.LookAt = vec3.T{5, 5, 0}

	return sc, cfg
}
