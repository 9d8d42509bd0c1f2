// Package film accumulates per-pixel radiance samples and persists them, so
// that a long render can be resumed with more samples later.
package film

import (
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"

	"lumen/vmath/vec3"

	"golang.org/x/xerrors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const dataLayoutVersion = 1

const (
	// maxHeaderLength bounds the header allocation when reading a film.
	maxHeaderLength = 1 << 20

	// maxPixels bounds the sample allocation when reading a film.
	maxPixels = 1 << 28
)

// Film is a Rows x Cols grid of sample accumulators, in raster order (row 0
// is the top of the image).
type Film struct {
	Rows, Cols int

	// Sums holds three channels per pixel.
	Sums   []float64
	Counts []uint32
}

func New(rows, cols int) *Film {
	f := &Film{}
	f.Resize(rows, cols)
	return f
}

func (f *Film) Resize(rows, cols int) {
	f.Rows = rows
	f.Cols = cols
	f.Sums = make([]float64, 3*rows*cols)
	f.Counts = make([]uint32, rows*cols)
}

func (f *Film) RecordSample(r, c int, color vec3.T) {
	idx := r*f.Cols + c
	f.Sums[3*idx+0] += color[0]
	f.Sums[3*idx+1] += color[1]
	f.Sums[3*idx+2] += color[2]
	f.Counts[idx]++
}

func (f *Film) Count(r, c int) int {
	return int(f.Counts[r*f.Cols+c])
}

func (f *Film) Sum(r, c int) vec3.T {
	idx := r*f.Cols + c
	return vec3.T{f.Sums[3*idx+0], f.Sums[3*idx+1], f.Sums[3*idx+2]}
}

// Mean returns the average of the samples recorded at (r, c), or black if
// there are none.
func (f *Film) Mean(r, c int) vec3.T {
	n := f.Count(r, c)
	if n == 0 {
		return vec3.T{}
	}
	return vec3.MulVS(f.Sum(r, c), 1/float64(n))
}

// TotalSamples counts every sample recorded so far.
func (f *Film) TotalSamples() int {
	total := 0
	for _, n := range f.Counts {
		total += int(n)
	}
	return total
}

// Cut copies the rectangle [rowSrc, rowLim) x [colSrc, colLim) into a new
// film.
func (f *Film) Cut(rowSrc, rowLim, colSrc, colLim int) *Film {
	dst := New(rowLim-rowSrc, colLim-colSrc)

	for r := rowSrc; r < rowLim; r++ {
		for c := colSrc; c < colLim; c++ {
			srcIndex := r*f.Cols + c
			dstIndex := (r-rowSrc)*dst.Cols + (c - colSrc)

			copy(dst.Sums[3*dstIndex:3*dstIndex+3], f.Sums[3*srcIndex:3*srcIndex+3])
			dst.Counts[dstIndex] = f.Counts[srcIndex]
		}
	}

	return dst
}

// Paste overwrites the rectangle of f starting at (rowSrc, colSrc) with src.
func (f *Film) Paste(src *Film, rowSrc, colSrc int) {
	for r := 0; r < src.Rows; r++ {
		for c := 0; c < src.Cols; c++ {
			srcIndex := r*src.Cols + c
			dstIndex := (r+rowSrc)*f.Cols + (c + colSrc)

			copy(f.Sums[3*dstIndex:3*dstIndex+3], src.Sums[3*srcIndex:3*srcIndex+3])
			f.Counts[dstIndex] = src.Counts[srcIndex]
		}
	}
}

// Read parses a film written by Write: an 8-byte little-endian header length,
// the header as a serialized protobuf Struct, then the zlib-compressed sums
// and counts.
func Read(in io.Reader) (*Film, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, xerrors.Errorf("while reading header length: %w", err)
	}

	if headerLength > maxHeaderLength {
		return nil, xerrors.Errorf("header length %d exceeds limit %d", headerLength, maxHeaderLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, xerrors.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, xerrors.Errorf("while unmarshaling header: %w", err)
	}

	fields := hdr.GetFields()
	if v := int(fields["dataLayoutVersion"].GetNumberValue()); v != dataLayoutVersion {
		return nil, xerrors.Errorf("bad data layout version: %v", v)
	}

	rowsValue := fields["rows"].GetNumberValue()
	colsValue := fields["cols"].GetNumberValue()
	if !(rowsValue >= 1 && colsValue >= 1 && rowsValue*colsValue <= maxPixels) {
		return nil, xerrors.Errorf("bad film dimensions %vx%v", colsValue, rowsValue)
	}
	rows, cols := int(rowsValue), int(colsValue)

	f := New(rows, cols)

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, xerrors.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if err := binary.Read(zipReader, binary.LittleEndian, f.Sums); err != nil {
		return nil, xerrors.Errorf("while reading sample sums: %w", err)
	}

	if err := binary.Read(zipReader, binary.LittleEndian, f.Counts); err != nil {
		return nil, xerrors.Errorf("while reading sample counts: %w", err)
	}

	return f, nil
}

func ReadFile(name string) (*Film, error) {
	in, err := os.Open(name)
	if err != nil {
		return nil, xerrors.Errorf("while opening file: %w", err)
	}
	defer in.Close()

	return Read(in)
}

// Header describes the film's layout, as stored ahead of its sample data.
func (f *Film) Header() (*structpb.Struct, error) {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"rows":              f.Rows,
		"cols":              f.Cols,
		"dataLayoutVersion": dataLayoutVersion,
	})
	if err != nil {
		return nil, xerrors.Errorf("while building header: %w", err)
	}
	return hdr, nil
}

func Write(f *Film, w io.Writer) error {
	hdr, err := f.Header()
	if err != nil {
		return err
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return xerrors.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return xerrors.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return xerrors.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, f.Sums); err != nil {
		return xerrors.Errorf("while writing sample sums: %w", err)
	}

	if err := binary.Write(zipWriter, binary.LittleEndian, f.Counts); err != nil {
		return xerrors.Errorf("while writing sample counts: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return xerrors.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

func WriteFile(f *Film, name string) error {
	out, err := os.Create(name)
	if err != nil {
		return xerrors.Errorf("while creating file: %w", err)
	}

	if err := Write(f, out); err != nil {
		out.Close()
		return err
	}

	if err := out.Close(); err != nil {
		return xerrors.Errorf("while closing file: %w", err)
	}
	return nil
}
