package main

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/go-raster/atlaspack/atlas"
)

var errInvalidSize = errors.New("width and height must be positive integers")

func newAllocCommand() *command {
	fs := flag.NewFlagSet("alloc", flag.ContinueOnError)
	cfgPath := fs.StringP("config", "c", "", "path to a JSONC config file")
	cols := fs.Int32P("columns", "n", 0, "number of independent columns (0 uses config default)")
	alignW := fs.Int32P("align-width", "a", 0, "allocation width alignment (0 uses config default)")
	alignH := fs.Int32("align-height", 0, "allocation height alignment (0 uses config default)")
	vertical := fs.Bool("vertical", false, "run shelves along the x axis")
	svgOut := fs.StringP("out", "o", "", "write an SVG dump of the resulting atlas to this path")

	return &command{
		Flags: fs,
		Usage: "alloc <w> <h> [-c config] [-n cols] [-a align] [--vertical] [-o out.svg]",
		Short: "allocate a single rectangle in a fresh atlas and print its placement",
		Exec: func(o *consoleIO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: expected exactly 2 positional arguments, got %d", errInvalidSize, len(args))
			}

			w, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil || w <= 0 {
				return fmt.Errorf("%w: width %q", errInvalidSize, args[0])
			}
			h, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil || h <= 0 {
				return fmt.Errorf("%w: height %q", errInvalidSize, args[1])
			}

			cfg, err := loadConfig(*cfgPath, nil)
			if err != nil {
				return err
			}

			opts := atlas.Options{
				Alignment:       atlas.Size{Width: cfg.AlignWidth, Height: cfg.AlignHeight},
				NumColumns:      cfg.NumColumns,
				VerticalShelves: cfg.VerticalShelves,
			}
			if *cols != 0 {
				opts.NumColumns = *cols
			}
			if *alignW != 0 {
				opts.Alignment.Width = *alignW
			}
			if *alignH != 0 {
				opts.Alignment.Height = *alignH
			}
			if *vertical {
				opts.VerticalShelves = true
			}

			a := atlas.NewWithOptions(atlas.Size{Width: int32(w), Height: int32(h)}, opts)

			alloc, ok := a.Allocate(atlas.Size{Width: int32(w), Height: int32(h)})
			if !ok {
				return fmt.Errorf("%w: %dx%d does not fit a fresh %dx%d atlas under the given options",
					errInvalidSize, w, h, w, h)
			}

			o.Printf("id=%d rect=(%d,%d)-(%d,%d)\n",
				alloc.ID.Uint32(), alloc.Rectangle.Min.X, alloc.Rectangle.Min.Y, alloc.Rectangle.Max.X, alloc.Rectangle.Max.Y)

			if *svgOut != "" {
				var buf bytes.Buffer
				if err := a.DumpSVG(&buf); err != nil {
					return fmt.Errorf("rendering svg: %w", err)
				}
				if err := atomic.WriteFile(*svgOut, &buf); err != nil {
					return fmt.Errorf("writing %s: %w", *svgOut, err)
				}
			}

			return nil
		},
	}
}
