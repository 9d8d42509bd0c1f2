package main

import (
	"context"
	"errors"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lumen/camera"
	"lumen/film"
	"lumen/ppm"
	"lumen/render"
	"lumen/scenes"
	"lumen/vmath/vec3"

	"github.com/google/go-cmp/cmp"
)

func testFilm() *film.Film {
	f := film.New(2, 3)
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			f.RecordSample(r, c, vec3.T{float64(c) / 3, float64(r) / 2, 0.5})
		}
	}
	return f
}

func TestWriteImagePPM(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out.ppm")
	if err := writeImage(context.Background(), testFilm(), name, ppm.Options{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := ioutil.ReadFile(name)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(got), "P3\n3 2\n255\n") {
		t.Errorf("Bad PPM header in %q", got)
	}
}

func TestWriteImagePNG(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out.PNG")
	f := testFilm()
	if err := writeImage(context.Background(), f, name, ppm.Options{Gamma: true}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	in, err := os.Open(name)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer in.Close()

	img, err := png.Decode(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(img.Bounds().Size().X, 3); diff != "" {
		t.Errorf("Bad width; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(img.Bounds().Size().Y, 2); diff != "" {
		t.Errorf("Bad height; diff (-got +want)\n%s", diff)
	}
}

func TestWriteFilm(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out.film")
	f := testFilm()
	if err := writeFilm(context.Background(), f, name); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := film.ReadFile(name)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, f); diff != "" {
		t.Errorf("Film changed on disk; diff (-got +want)\n%s", diff)
	}
}

// setFilmFlags points the film flags at the given values for one test.
func setFilmFlags(t *testing.T, file string, resuming bool) {
	t.Helper()
	oldFile, oldResume := *filmFile, *resume
	*filmFile, *resume = file, resuming
	t.Cleanup(func() {
		*filmFile, *resume = oldFile, oldResume
	})
}

func TestLoadFilm(t *testing.T) {
	dir := t.TempDir()
	cam := camera.New(camera.Config{AspectRatio: 1, ImageWidth: 4})

	existing := filepath.Join(dir, "existing.film")
	saved := film.New(4, 4)
	saved.RecordSample(2, 3, vec3.T{1, 1, 1})
	if err := film.WriteFile(saved, existing); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	wrongSize := filepath.Join(dir, "wrong-size.film")
	if err := film.WriteFile(film.New(3, 4), wrongSize); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	testCases := []struct {
		desc     string
		file     string
		resuming bool
		wantErr  bool
		want     *film.Film
	}{
		{"no film file", "", false, false, film.New(4, 4)},
		{"fresh film file", filepath.Join(dir, "fresh.film"), false, false, film.New(4, 4)},
		{"existing film without resume", existing, false, true, nil},
		{"resume without film file", "", true, true, nil},
		{"resume missing film", filepath.Join(dir, "missing.film"), true, true, nil},
		{"resume wrong size", wrongSize, true, true, nil},
		{"resume", existing, true, false, saved},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			setFilmFlags(t, tc.file, tc.resuming)

			got, err := loadFilm(context.Background(), cam)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Bad film; diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestInterruptedRenderIsSaved(t *testing.T) {
	sc, cfg, err := scenes.Lookup("single", 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	cfg.ImageWidth = 8
	cfg.SamplesPerPixel = 2
	cam := camera.New(cfg)

	f := film.New(cam.ImageHeight(), cam.ImageWidth())
	f.RecordSample(0, 0, vec3.T{0.5, 0.5, 0.5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, renderErr := render.Render(ctx, sc, cam, render.Options{Workers: 2, Film: f})
	if !errors.Is(renderErr, context.Canceled) {
		t.Fatalf("Got error %v, want context.Canceled", renderErr)
	}

	name := filepath.Join(t.TempDir(), "interrupted.film")
	if err := writeFilm(context.Background(), f, name); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	setFilmFlags(t, name, true)
	got, err := loadFilm(context.Background(), cam)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, f); diff != "" {
		t.Errorf("Saved film differs; diff (-got +want)\n%s", diff)
	}
	if got.Count(0, 0) != 1 {
		t.Errorf("Count(0, 0) = %d, want the 1 sample recorded before the interruption", got.Count(0, 0))
	}
}
