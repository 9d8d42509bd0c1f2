// renderer path-traces one of the built-in scenes and writes the result as a
// PPM or PNG image.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"lumen/camera"
	"lumen/film"
	"lumen/output"
	"lumen/ppm"
	"lumen/render"
	"lumen/scenes"
	"lumen/status"

	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

var (
	sceneName  = flag.String("scene", "single", "Scene to render: "+strings.Join(scenes.Names(), ", "))
	outputFile = flag.String("output-file", "image.ppm", "Output image (local path or gs://bucket/object).  A .png suffix selects PNG, anything else PPM.")
	filmFile   = flag.String("film-file", "", "If set, the accumulated samples are saved here so the render can be resumed.")
	resume     = flag.Bool("resume", false, "Should we re-open the film file to add more samples?")

	imageWidth      = flag.Int("width", 0, "Output image width.  0 uses the scene's default.")
	samplesPerPixel = flag.Int("samples", 0, "Samples per pixel.  0 uses the scene's default.")
	maxDepth        = flag.Int("max-depth", 0, "Maximum number of bounces to consider.  0 uses the scene's default.")
	seed            = flag.Int64("seed", 1, "Random seed for both the scene layout and the render.")
	workers         = flag.Int("workers", runtime.NumCPU(), "Rows rendered concurrently.  1 renders serially.")
	gamma           = flag.Bool("gamma", true, "Apply gamma-2 correction to the output image.")

	debugListen          = flag.String("debug-listen", "", "If set, server address:port for the debug endpoint.")
	monitoring           = flag.Bool("monitoring", false, "Enable monitoring?")
	monitoringProject    = flag.String("monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	monitoringTraceRatio = flag.Float64("monitoring-trace-ratio", 1.0, "What ratio of traces should be exported?")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile = flag.String("mem-profile", "", "write memory profile to `file`")
)

func main() {
	flag.Parse()

	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	glog.Infof("flags:")
	flag.VisitAll(func(f *flag.Flag) {
		glog.Infof("%s: %q", f.Name, f.Value.String())
	})

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Exitf("Could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Exitf("Could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	if err := do(); err != nil {
		pprof.StopCPUProfile()
		glog.Exitf("Error: %v", err)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Exitf("Could not create memory profile: %v", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			glog.Exitf("Could not write memory profile: %v", err)
		}
	}
}

func do() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *monitoring {
		shutdown, err := installMonitoring()
		if err != nil {
			return err
		}
		defer shutdown()
	}

	sc, cfg, err := scenes.Lookup(*sceneName, *seed)
	if err != nil {
		return err
	}
	if *imageWidth > 0 {
		cfg.ImageWidth = *imageWidth
	}
	if *samplesPerPixel > 0 {
		cfg.SamplesPerPixel = *samplesPerPixel
	}
	if *maxDepth > 0 {
		cfg.MaxDepth = *maxDepth
	}
	cam := camera.New(cfg)

	f, err := loadFilm(ctx, cam)
	if err != nil {
		return err
	}

	progress := status.NewProgress(*sceneName)
	if *debugListen != "" {
		startDebugServer(progress)
	}

	reporter := newProgressReporter(progress)
	_, renderErr := render.Render(ctx, sc, cam, render.Options{
		Workers:  *workers,
		Seed:     *seed,
		Name:     *sceneName,
		Film:     f,
		Progress: reporter.report,
	})
	reporter.finish()

	// An interrupted render still saves its completed rows for -resume.
	if *filmFile != "" {
		if err := writeFilm(context.Background(), f, *filmFile); err != nil {
			return err
		}
		glog.Infof("Saved %d samples to %s", f.TotalSamples(), *filmFile)
	}

	if renderErr != nil {
		return fmt.Errorf("while rendering: %w", renderErr)
	}

	if err := writeImage(ctx, f, *outputFile, ppm.Options{Gamma: *gamma}); err != nil {
		return err
	}
	glog.Infof("Wrote %s", *outputFile)

	return nil
}

func loadFilm(ctx context.Context, cam *camera.Camera) (*film.Film, error) {
	if *resume {
		if *filmFile == "" {
			return nil, fmt.Errorf("resumption requested, but no -film-file given")
		}

		in, err := output.Open(ctx, *filmFile)
		if err != nil {
			return nil, fmt.Errorf("resumption requested, but encountered error opening existing film: %w", err)
		}
		defer in.Close()

		f, err := film.Read(in)
		if err != nil {
			return nil, fmt.Errorf("resumption requested, but encountered error loading existing film: %w", err)
		}

		if f.Rows != cam.ImageHeight() || f.Cols != cam.ImageWidth() {
			return nil, fmt.Errorf("resumption requested, but the existing film is %dx%d, want %dx%d", f.Cols, f.Rows, cam.ImageWidth(), cam.ImageHeight())
		}

		glog.Infof("Resuming from %d existing samples", f.TotalSamples())
		return f, nil
	}

	if *filmFile != "" {
		// Check that the film doesn't exist, to avoid blowing away hours of
		// render time.
		exists, err := output.Exists(ctx, *filmFile)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("resumption not requested, but film file %s exists", *filmFile)
		}
	}

	return film.New(cam.ImageHeight(), cam.ImageWidth()), nil
}

func writeFilm(ctx context.Context, f *film.Film, path string) error {
	out, err := output.Create(ctx, path)
	if err != nil {
		return err
	}

	if err := film.Write(f, out); err != nil {
		out.Close()
		return fmt.Errorf("while writing film: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing film: %w", err)
	}
	return nil
}

func writeImage(ctx context.Context, f *film.Film, path string, opts ppm.Options) error {
	out, err := output.Create(ctx, path)
	if err != nil {
		return err
	}

	if strings.HasSuffix(strings.ToLower(path), ".png") {
		err = png.Encode(out, ppm.ToImage(f, opts))
	} else {
		err = ppm.Encode(out, f, opts)
	}
	if err != nil {
		out.Close()
		return fmt.Errorf("while encoding image: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing image: %w", err)
	}
	return nil
}

func installMonitoring() (func(), error) {
	traceOpts := []cloudtrace.Option{}
	if *monitoringProject != "" {
		traceOpts = append(traceOpts, cloudtrace.WithProjectID(*monitoringProject))
	}

	_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*monitoringTraceRatio)))
	if err != nil {
		return nil, fmt.Errorf("while installing Cloud Trace OpenTelemetry trace pipeline: %w", err)
	}

	if err := render.RegisterViews(); err != nil {
		traceShutdown()
		return nil, err
	}

	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:         *monitoringProject,
		MetricPrefix:      "lumen",
		ReportingInterval: 60 * time.Second,
	})
	if err != nil {
		traceShutdown()
		return nil, fmt.Errorf("while initializing metrics exporter: %w", err)
	}
	if err := exporter.StartMetricsExporter(); err != nil {
		traceShutdown()
		return nil, fmt.Errorf("while starting metrics exporter: %w", err)
	}

	return func() {
		exporter.Flush()
		exporter.StopMetricsExporter()
		traceShutdown()
	}, nil
}

func startDebugServer(progress *status.Progress) {
	debugServeMux := http.NewServeMux()
	status.RegisterHandlers(debugServeMux, progress)
	debugServer := &http.Server{
		Addr:    *debugListen,
		Handler: debugServeMux,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := debugServer.ListenAndServe(); err != nil {
			glog.Errorf("Debug server died: %v", err)
		}
	}()
}

// progressReporter mirrors render progress to the debug endpoint, and to
// stderr at a limited rate: an overwritten line on a terminal, log lines
// otherwise.
type progressReporter struct {
	progress *status.Progress
	limiter  *rate.Limiter
	tty      bool
}

func newProgressReporter(progress *status.Progress) *progressReporter {
	return &progressReporter{
		progress: progress,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		tty:      term.IsTerminal(int(os.Stderr.Fd())),
	}
}

func (p *progressReporter) report(rowsDone, rowsTotal int) {
	p.progress.Update(rowsDone, rowsTotal)

	if rowsDone != rowsTotal && !p.limiter.Allow() {
		return
	}

	if p.tty {
		fmt.Fprintf(os.Stderr, "\rScanlines remaining: %d ", rowsTotal-rowsDone)
	} else {
		glog.Infof("Scanlines remaining: %d", rowsTotal-rowsDone)
	}
}

func (p *progressReporter) finish() {
	if p.tty {
		fmt.Fprintf(os.Stderr, "\nDone.\n")
	}
}
