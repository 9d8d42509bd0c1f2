// Package ppm writes films as plain-text (P3) Netpbm images, and converts
// them to image.Image for other encoders.
package ppm

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"lumen/film"
	"lumen/ray"
	"lumen/vmath/vec3"
)

type Options struct {
	// Gamma applies a gamma-2 transfer (square root) before quantizing.
	Gamma bool
}

var intensity = ray.Span{Lo: 0, Hi: 0.999}

// Channel maps one linear colour channel to a byte.
func Channel(linear float64, opts Options) uint8 {
	v := linear
	if opts.Gamma {
		if v > 0 {
			v = math.Sqrt(v)
		} else {
			v = 0
		}
	}
	if math.IsNaN(v) {
		v = 0
	}
	return uint8(256 * intensity.Clamp(v))
}

func Color(c vec3.T, opts Options) [3]uint8 {
	return [3]uint8{
		Channel(c[0], opts),
		Channel(c[1], opts),
		Channel(c[2], opts),
	}
}

// Encode writes the mean colour of every pixel of f, top row first.
func Encode(w io.Writer, f *film.Film, opts Options) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", f.Cols, f.Rows); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			px := Color(f.Mean(r, c), opts)
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", px[0], px[1], px[2]); err != nil {
				return fmt.Errorf("while writing pixel (%d, %d): %w", c, r, err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while flushing: %w", err)
	}
	return nil
}

// ToImage quantizes f exactly as Encode does.
func ToImage(f *film.Film, opts Options) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Cols, f.Rows))
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			px := Color(f.Mean(r, c), opts)
			img.SetRGBA(c, r, color.RGBA{R: px[0], G: px[1], B: px[2], A: 255})
		}
	}
	return img
}
