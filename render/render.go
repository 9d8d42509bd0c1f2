// Package render drives the camera over every pixel of the image, tracing
// rays into a scene and accumulating the results on a film.
package render

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"lumen/camera"
	"lumen/film"
	"lumen/scene"

	"github.com/golang/glog"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	sampleCount = stats.Int64("lumen/render/samples", "Camera rays traced", stats.UnitDimensionless)
	rowCount    = stats.Int64("lumen/render/rows", "Image rows completed", stats.UnitDimensionless)

	sceneKey = tag.MustNewKey("scene")
)

// Views are the metrics views over the render measures.  Binaries that
// export metrics register them with RegisterViews.
var Views = []*view.View{
	{
		Name:        "lumen/render/samples",
		Description: "Count of camera rays traced",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     sampleCount,
		Aggregation: view.Sum(),
	},
	{
		Name:        "lumen/render/rows",
		Description: "Count of image rows completed",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     rowCount,
		Aggregation: view.Sum(),
	},
}

func RegisterViews() error {
	if err := view.Register(Views...); err != nil {
		return fmt.Errorf("while registering render views: %w", err)
	}
	return nil
}

type ProgressFunction func(rowsDone, rowsTotal int)

type Options struct {
	// Workers bounds the number of rows rendered at once.  Values <= 1 render
	// serially in the calling goroutine.
	Workers int

	Seed int64

	// Name labels traces and metrics.
	Name string

	// Film, if set, is resumed: pixels only receive the samples they are
	// missing.  Its dimensions must match the camera's.
	Film *film.Film

	// Progress is called after every completed row.  Calls are serialized.
	Progress ProgressFunction
}

// Render traces the camera's samples-per-pixel rays through every pixel of
// sc.  The result depends only on the scene, the camera, Seed and the
// starting film, never on Workers.
func Render(ctx context.Context, sc *scene.Scene, cam *camera.Camera, opts Options) (*film.Film, error) {
	tracer := otel.Tracer("lumen/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Render")
	defer span.End()

	rows, cols := cam.ImageHeight(), cam.ImageWidth()

	span.SetAttributes(
		attribute.String("scene", opts.Name),
		attribute.Int("rows", rows),
		attribute.Int("cols", cols),
		attribute.Int("samples_per_pixel", cam.SamplesPerPixel()),
		attribute.Int("max_depth", cam.MaxDepth()),
		attribute.Int("workers", opts.Workers),
	)

	if err := sc.Validate(); err != nil {
		err = fmt.Errorf("while validating scene: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	f := opts.Film
	if f == nil {
		f = film.New(rows, cols)
	} else if f.Rows != rows || f.Cols != cols {
		err := fmt.Errorf("film is %dx%d, but the camera produces %dx%d images", f.Cols, f.Rows, cols, rows)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	glog.V(1).Infof("Rendering scene=%q %dx%d spp=%d depth=%d workers=%d existing-samples=%d",
		opts.Name, cols, rows, cam.SamplesPerPixel(), cam.MaxDepth(), opts.Workers, f.TotalSamples())

	ctx, err := tag.New(ctx, tag.Upsert(sceneKey, opts.Name))
	if err != nil {
		err = fmt.Errorf("while tagging context: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	r := &renderer{
		scene:    sc,
		camera:   cam,
		film:     f,
		seed:     opts.Seed,
		progress: opts.Progress,
	}

	if opts.Workers <= 1 {
		err = r.renderSerial(ctx)
	} else {
		err = r.renderParallel(ctx, opts.Workers)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return f, nil
}

type renderer struct {
	scene    *scene.Scene
	camera   *camera.Camera
	seed     int64
	progress ProgressFunction

	// mu locks film and rowsDone.
	mu       sync.Mutex
	film     *film.Film
	rowsDone int
}

func (r *renderer) renderSerial(ctx context.Context) error {
	for row := 0; row < r.film.Rows; row++ {
		if err := r.renderRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderParallel(ctx context.Context, workers int) error {
	eg, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))

	for row := 0; row < r.film.Rows; row++ {
		row := row

		if err := sem.Acquire(ctx, 1); err != nil {
			// Running rows may hold the error that cancelled ctx.
			if werr := eg.Wait(); werr != nil {
				return fmt.Errorf("while waiting for completion of errgroup: %w", werr)
			}
			return fmt.Errorf("while acquiring concurrency limiter semaphore: %w", err)
		}

		eg.Go(func() error {
			defer sem.Release(1)
			return r.renderRow(ctx, row)
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("while waiting for completion of errgroup: %w", err)
	}
	return nil
}

// renderRow tops up every pixel of one row to the target sample count.
func (r *renderer) renderRow(ctx context.Context, row int) error {
	r.mu.Lock()
	rowFilm := r.film.Cut(row, row+1, 0, r.film.Cols)
	r.mu.Unlock()

	existing := rowFilm.TotalSamples()
	rng := rand.New(rand.NewSource(rowSeed(r.seed, row, existing)))

	target := r.camera.SamplesPerPixel()
	maxDepth := r.camera.MaxDepth()

	traced := 0
	for col := 0; col < rowFilm.Cols; col++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("while rendering row %d: %w", row, err)
		}

		for s := rowFilm.Count(0, col); s < target; s++ {
			query := r.camera.GetRay(col, row, rng)
			rowFilm.RecordSample(0, col, r.scene.Trace(query, rng, maxDepth))
			traced++
		}
	}

	stats.Record(ctx, sampleCount.M(int64(traced)), rowCount.M(1))
	glog.V(2).Infof("Row %d: traced %d samples", row, traced)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.film.Paste(rowFilm, row, 0)
	r.rowsDone++
	if r.progress != nil {
		r.progress(r.rowsDone, r.film.Rows)
	}
	return nil
}

// rowSeed derives a row's random stream from the render seed, the row, and
// how many samples the row already holds, so that a resumed render draws new
// samples instead of repeating old ones.
func rowSeed(seed int64, row, existing int) int64 {
	h := mix64(uint64(seed))
	h = mix64(h ^ uint64(row))
	h = mix64(h ^ uint64(existing))
	return int64(h)
}

// mix64 is the splitmix64 finalizer.
func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
