// Package output opens render artifacts by name, either on the local
// filesystem or as Google Cloud Storage objects named gs://bucket/object.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/golang/glog"
	googleopt "google.golang.org/api/option"
)

const gcsScheme = "gs://"

// ParseGCSPath splits gs://bucket/object.  ok is false for anything else,
// including a GCS path without an object name.
func ParseGCSPath(path string) (bucket, object string, ok bool) {
	if !strings.HasPrefix(path, gcsScheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, gcsScheme)
	slash := strings.Index(rest, "/")
	if slash <= 0 || slash == len(rest)-1 {
		return "", "", false
	}
	return rest[:slash], rest[slash+1:], true
}

func IsGCSPath(path string) bool {
	return strings.HasPrefix(path, gcsScheme)
}

// Create opens path for writing, truncating it.  For GCS objects nothing is
// visible until Close returns successfully.
func Create(ctx context.Context, path string) (io.WriteCloser, error) {
	if !IsGCSPath(path) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("while creating %q: %w", path, err)
		}
		return f, nil
	}

	bucket, object, ok := ParseGCSPath(path)
	if !ok {
		return nil, fmt.Errorf("malformed GCS path %q, want gs://bucket/object", path)
	}

	gcs, err := storage.NewClient(ctx, googleopt.WithGRPCConnectionPool(1))
	if err != nil {
		return nil, fmt.Errorf("while creating GCS client: %w", err)
	}

	glog.V(1).Infof("Writing gs://%s/%s", bucket, object)
	return &gcsWriter{
		w:   gcs.Bucket(bucket).Object(object).NewWriter(ctx),
		gcs: gcs,
	}, nil
}

// Open opens path for reading.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !IsGCSPath(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("while opening %q: %w", path, err)
		}
		return f, nil
	}

	bucket, object, ok := ParseGCSPath(path)
	if !ok {
		return nil, fmt.Errorf("malformed GCS path %q, want gs://bucket/object", path)
	}

	gcs, err := storage.NewClient(ctx, googleopt.WithGRPCConnectionPool(1))
	if err != nil {
		return nil, fmt.Errorf("while creating GCS client: %w", err)
	}

	r, err := gcs.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		gcs.Close()
		return nil, fmt.Errorf("while creating reader for %q: %w", path, err)
	}

	return &gcsReader{r: r, gcs: gcs}, nil
}

// Exists reports whether path names an existing file or object.
func Exists(ctx context.Context, path string) (bool, error) {
	if !IsGCSPath(path) {
		_, err := os.Stat(path)
		if err == nil {
			return true, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("while checking %q: %w", path, err)
	}

	bucket, object, ok := ParseGCSPath(path)
	if !ok {
		return false, fmt.Errorf("malformed GCS path %q, want gs://bucket/object", path)
	}

	gcs, err := storage.NewClient(ctx, googleopt.WithGRPCConnectionPool(1))
	if err != nil {
		return false, fmt.Errorf("while creating GCS client: %w", err)
	}
	defer gcs.Close()

	_, err = gcs.Bucket(bucket).Object(object).Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("while checking %q: %w", path, err)
	}
	return true, nil
}

type gcsWriter struct {
	w   *storage.Writer
	gcs *storage.Client
}

func (g *gcsWriter) Write(p []byte) (int, error) {
	return g.w.Write(p)
}

func (g *gcsWriter) Close() error {
	defer g.gcs.Close()
	if err := g.w.Close(); err != nil {
		return fmt.Errorf("while finalizing GCS object: %w", err)
	}
	return nil
}

type gcsReader struct {
	r   *storage.Reader
	gcs *storage.Client
}

func (g *gcsReader) Read(p []byte) (int, error) {
	return g.r.Read(p)
}

func (g *gcsReader) Close() error {
	defer g.gcs.Close()
	return g.r.Close()
}
