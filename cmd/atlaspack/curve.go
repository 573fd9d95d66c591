package main

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/go-raster/atlaspack/raster"
)

var errInvalidCurve = errors.New("expected 8 integer coordinates x1 y1 x2 y2 x3 y3 x4 y4, in 28.4 fixed point")

func newCurveCommand() *command {
	fs := flag.NewFlagSet("curve", flag.ContinueOnError)
	cfgPath := fs.StringP("config", "c", "", "path to a JSONC config file")
	tolerance := fs.Int32P("tolerance", "t", 0, "chord error tolerance in 28.4 units (0 uses config default)")
	svgOut := fs.StringP("out", "o", "", "write an SVG polyline of the flattened curve to this path")

	return &command{
		Flags: fs,
		Usage: "curve <x1> <y1> <x2> <y2> <x3> <y3> <x4> <y4> [-o out.svg]",
		Short: "flatten a cubic Bezier curve and print its line-segment points",
		Exec: func(o *consoleIO, args []string) error {
			if len(args) != 8 {
				return fmt.Errorf("%w (got %d arguments)", errInvalidCurve, len(args))
			}

			coords := make([]int32, 8)
			for i, a := range args {
				v, err := strconv.ParseInt(a, 10, 32)
				if err != nil {
					return fmt.Errorf("%w: %q is not an integer", errInvalidCurve, a)
				}
				coords[i] = int32(v)
			}

			cfg, err := loadConfig(*cfgPath, nil)
			if err != nil {
				return err
			}
			tol := cfg.ToleranceQ28_4
			if *tolerance != 0 {
				tol = *tolerance
			}

			pts := [4]raster.Point28_4{
				{X: coords[0], Y: coords[1]},
				{X: coords[2], Y: coords[3]},
				{X: coords[4], Y: coords[5]},
				{X: coords[6], Y: coords[7]},
			}

			b := raster.NewBezier(pts, nil, raster.WithTolerance(tol))
			points := b.FlattenAll()

			for _, p := range points {
				o.Printf("%d,%d\n", p.X, p.Y)
			}

			if *svgOut != "" {
				if err := atomic.WriteFile(*svgOut, strings.NewReader(curveSVG(points))); err != nil {
					return fmt.Errorf("writing %s: %w", *svgOut, err)
				}
			}

			return nil
		},
	}
}

func curveSVG(points []raster.Point28_4) string {
	var b bytes.Buffer
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg"><polyline fill="none" stroke="black" points="`)
	for i, p := range points {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%g,%g", float64(p.X)/16, float64(p.Y)/16)
	}
	b.WriteString(`"/></svg>`)
	return b.String()
}
