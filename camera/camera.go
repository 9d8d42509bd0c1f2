package camera

import (
	"math"
	"math/rand"

	"lumen/ray"
	"lumen/vmath/mat33"
	"lumen/vmath/vec3"
)

// Config holds the user-facing camera parameters.  Zero-valued fields are
// replaced by the corresponding DefaultConfig value in New, except for
// DefocusAngle and FocusDist whose zero values are meaningful.
type Config struct {
	AspectRatio float64
	ImageWidth  int

	SamplesPerPixel int
	MaxDepth        int

	// VFOV is the vertical field of view in degrees.
	VFOV float64

	LookFrom vec3.T
	LookAt   vec3.T
	Up       vec3.T

	// DefocusAngle is the cone angle, in degrees, subtended by the lens at
	// the focus plane.  Zero disables depth of field.
	DefocusAngle float64

	// FocusDist is the distance from LookFrom to the plane of perfect focus.
	// Zero means |LookFrom - LookAt|.
	FocusDist float64
}

func DefaultConfig() Config {
	return Config{
		AspectRatio:     16.0 / 9.0,
		ImageWidth:      100,
		SamplesPerPixel: 100,
		MaxDepth:        10,
		VFOV:            90,
		LookFrom:        vec3.T{0, 0, 0},
		LookAt:          vec3.T{0, 0, -1},
		Up:              vec3.T{0, 1, 0},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AspectRatio <= 0 {
		c.AspectRatio = d.AspectRatio
	}
	if c.ImageWidth <= 0 {
		c.ImageWidth = d.ImageWidth
	}
	if c.SamplesPerPixel <= 0 {
		c.SamplesPerPixel = d.SamplesPerPixel
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.VFOV <= 0 {
		c.VFOV = d.VFOV
	}
	if c.LookFrom == c.LookAt {
		c.LookFrom, c.LookAt = d.LookFrom, d.LookAt
	}
	if c.Up == (vec3.T{}) {
		c.Up = d.Up
	}
	return c
}

// Camera maps image coordinates to world-space rays.  Everything is derived
// once in New; a Camera is immutable and safe for concurrent use.
type Camera struct {
	config Config

	imageWidth, imageHeight int

	center vec3.T

	// cameraToWorld has the camera basis u (right), v (up) and w (backward)
	// as its columns.
	cameraToWorld mat33.T

	pixel00     vec3.T
	pixelDeltaU vec3.T
	pixelDeltaV vec3.T

	// lensToWorld maps unit-disk points onto the defocus disk.
	lensToWorld mat33.T
}

func New(config Config) *Camera {
	cfg := config.withDefaults()

	imageHeight := int(float64(cfg.ImageWidth) / cfg.AspectRatio)
	if imageHeight < 1 {
		imageHeight = 1
	}

	focusDist := cfg.FocusDist
	if focusDist <= 0 {
		focusDist = vec3.SubVV(cfg.LookFrom, cfg.LookAt).Norm()
	}

	h := math.Tan(degreesToRadians(cfg.VFOV) / 2)
	viewportHeight := 2 * h * focusDist
	viewportWidth := viewportHeight * (float64(cfg.ImageWidth) / float64(imageHeight))

	w := vec3.Normalize(vec3.SubVV(cfg.LookFrom, cfg.LookAt))
	u := vec3.Normalize(vec3.CProd(cfg.Up, w))
	v := vec3.CProd(w, u)

	// Image rows run down the viewport, so the vertical edge is along -v.
	viewportU := vec3.MulVS(u, viewportWidth)
	viewportV := vec3.MulVS(v, -viewportHeight)

	c := &Camera{
		config:        cfg,
		imageWidth:    cfg.ImageWidth,
		imageHeight:   imageHeight,
		center:        cfg.LookFrom,
		cameraToWorld: mat33.FromColumns(u, v, w),
		pixelDeltaU:   vec3.DivVS(viewportU, float64(cfg.ImageWidth)),
		pixelDeltaV:   vec3.DivVS(viewportV, float64(imageHeight)),
	}

	// Upper-left corner of the viewport, in the focus plane.
	upperLeft := vec3.SubVV(cfg.LookFrom, vec3.MulVS(w, focusDist))
	upperLeft = vec3.SubVV(upperLeft, vec3.DivVS(viewportU, 2))
	upperLeft = vec3.SubVV(upperLeft, vec3.DivVS(viewportV, 2))

	// Sample at pixel centers, not corners.
	c.pixel00 = vec3.AddVV(upperLeft, vec3.MulVS(vec3.AddVV(c.pixelDeltaU, c.pixelDeltaV), 0.5))

	defocusRadius := focusDist * math.Tan(degreesToRadians(cfg.DefocusAngle/2))
	c.lensToWorld = mat33.FromColumns(vec3.MulVS(u, defocusRadius), vec3.MulVS(v, defocusRadius), vec3.T{})

	return c
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}

func (c *Camera) Config() Config {
	return c.config
}

func (c *Camera) ImageWidth() int {
	return c.imageWidth
}

func (c *Camera) ImageHeight() int {
	return c.imageHeight
}

func (c *Camera) SamplesPerPixel() int {
	return c.config.SamplesPerPixel
}

func (c *Camera) MaxDepth() int {
	return c.config.MaxDepth
}

// Basis returns the camera's right, up and backward unit vectors.
func (c *Camera) Basis() (u, v, w vec3.T) {
	return c.cameraToWorld.Column(0), c.cameraToWorld.Column(1), c.cameraToWorld.Column(2)
}

// PixelCenter returns the world-space center of pixel (x, y) on the focus
// plane.
func (c *Camera) PixelCenter(x, y int) vec3.T {
	return c.imageToWorld(float64(x), float64(y))
}

func (c *Camera) imageToWorld(x, y float64) vec3.T {
	return vec3.AddVV(c.pixel00, vec3.AddVV(vec3.MulVS(c.pixelDeltaU, x), vec3.MulVS(c.pixelDeltaV, y)))
}

// GetRay returns a ray through a uniformly jittered point of pixel (x, y).
// With depth of field enabled the ray starts at a random point of the lens
// disk and still passes through the same focus-plane point.
func (c *Camera) GetRay(x, y int, rng *rand.Rand) ray.Ray {
	sample := c.imageToWorld(float64(x)+rng.Float64()-0.5, float64(y)+rng.Float64()-0.5)

	origin := c.center
	if c.config.DefocusAngle > 0 {
		origin = vec3.AddVV(origin, mat33.MulMV(c.lensToWorld, vec3.RandomInUnitDisk(rng)))
	}

	return ray.Ray{
		Point: origin,
		Slope: vec3.SubVV(sample, origin),
	}
}
