// filmtool inspects saved films and converts them to images.
package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"strings"

	"lumen/film"
	"lumen/output"
	"lumen/ppm"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/prototext"
)

var cmdRoot = &cobra.Command{
	Use: "filmtool",
}

var cmdInfo = &cobra.Command{
	Use:   "info FILM",
	Short: "Print a film's header and sample statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f, err := readFilm(ctx, args[0])
		if err != nil {
			return err
		}

		hdr, err := f.Header()
		if err != nil {
			return err
		}
		fmt.Println(prototext.Format(hdr))

		minCount, maxCount := countRange(f)
		fmt.Printf("total samples: %d\n", f.TotalSamples())
		fmt.Printf("samples per pixel: min %d, max %d\n", minCount, maxCount)
		return nil
	},
}

var convertGamma bool

var cmdConvert = &cobra.Command{
	Use:   "convert FILM IMAGE",
	Short: "Write a film as a PPM image, or PNG if IMAGE ends in .png",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f, err := readFilm(ctx, args[0])
		if err != nil {
			return err
		}

		out, err := output.Create(ctx, args[1])
		if err != nil {
			return err
		}

		opts := ppm.Options{Gamma: convertGamma}
		if strings.HasSuffix(strings.ToLower(args[1]), ".png") {
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
	},
}

func init() {
	cmdConvert.Flags().BoolVar(&convertGamma, "gamma", true, "Apply gamma-2 correction")
}

func readFilm(ctx context.Context, path string) (*film.Film, error) {
	in, err := output.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	f, err := film.Read(in)
	if err != nil {
		return nil, fmt.Errorf("while reading film %s: %w", path, err)
	}
	return f, nil
}

func countRange(f *film.Film) (minCount, maxCount int) {
	for i, n := range f.Counts {
		if i == 0 || int(n) < minCount {
			minCount = int(n)
		}
		if int(n) > maxCount {
			maxCount = int(n)
		}
	}
	return minCount, maxCount
}

func main() {
	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	cmdRoot.AddCommand(cmdInfo, cmdConvert)

	if err := cmdRoot.Execute(); err != nil {
		glog.Flush()
		os.Exit(1)
	}
}
