package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"

	"github.com/go-raster/atlaspack/atlas"
	"github.com/go-raster/atlaspack/raster"
)

// replSession keeps one atlas alive across commands, so a user can
// allocate, inspect, and free rectangles interactively without
// re-specifying the atlas's dimensions every time.
type replSession struct {
	a     *atlas.Allocator
	ids   map[uint32]atlas.AllocID
	nexID uint32
}

func runREPL(o *consoleIO, cfgPath string) error {
	cfg, err := loadConfig(cfgPath, nil)
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	sess := &replSession{ids: make(map[uint32]atlas.AllocID)}

	o.Println("atlaspack repl - type 'help' for commands, 'exit' to quit")

	for {
		input, err := line.Prompt("atlaspack> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return err
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "exit", "quit", "q":
			return nil
		case "help":
			printREPLHelp(o)
		case "new":
			sess.cmdNew(o, fields[1:], cfg)
		case "alloc":
			sess.cmdAlloc(o, fields[1:])
		case "free":
			sess.cmdFree(o, fields[1:])
		case "info":
			sess.cmdInfo(o)
		case "clear":
			sess.cmdClear(o)
		case "dump":
			sess.cmdDump(o, fields[1:])
		case "curve":
			sess.cmdCurve(o, fields[1:], cfg)
		default:
			o.ErrPrintln("unknown command:", fields[0], "(type 'help' for a list)")
		}
	}
}

func printREPLHelp(o *consoleIO) {
	o.Println("  new <w> <h>        start a fresh atlas of the given size")
	o.Println("  alloc <w> <h>      allocate a rectangle, printing its handle id")
	o.Println("  free <id>          deallocate a rectangle by handle id")
	o.Println("  info               print allocated/free space and emptiness")
	o.Println("  clear              drop every shelf and bucket")
	o.Println("  dump svg <path>           write an SVG snapshot of the atlas")
	o.Println("  dump ascii <path>         write an ASCII-art snapshot of the atlas")
	o.Println("  dump into <path> <w> <h>  write the atlas rescaled into a w x h canvas")
	o.Println("  curve <x1> <y1> <x2> <y2> <x3> <y3> <x4> <y4> [tolerance]")
	o.Println("                     flatten a cubic Bezier curve and print its points")
	o.Println("  exit               leave the repl")
}

func (s *replSession) cmdNew(o *consoleIO, args []string, cfg config) {
	if len(args) != 2 {
		o.ErrPrintln("usage: new <w> <h>")
		return
	}
	w, err1 := strconv.ParseInt(args[0], 10, 32)
	h, err2 := strconv.ParseInt(args[1], 10, 32)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		o.ErrPrintln("width and height must be positive integers")
		return
	}

	s.a = atlas.NewWithOptions(atlas.Size{Width: int32(w), Height: int32(h)}, atlas.Options{
		Alignment:       atlas.Size{Width: cfg.AlignWidth, Height: cfg.AlignHeight},
		NumColumns:      cfg.NumColumns,
		VerticalShelves: cfg.VerticalShelves,
	})
	s.ids = make(map[uint32]atlas.AllocID)
	s.nexID = 0
	o.Printf("atlas ready: %dx%d\n", w, h)
}

func (s *replSession) cmdAlloc(o *consoleIO, args []string) {
	if s.a == nil {
		o.ErrPrintln("no atlas yet; run 'new <w> <h>' first")
		return
	}
	if len(args) != 2 {
		o.ErrPrintln("usage: alloc <w> <h>")
		return
	}
	w, err1 := strconv.ParseInt(args[0], 10, 32)
	h, err2 := strconv.ParseInt(args[1], 10, 32)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		o.ErrPrintln("width and height must be positive integers")
		return
	}

	alloc, ok := s.a.Allocate(atlas.Size{Width: int32(w), Height: int32(h)})
	if !ok {
		o.ErrPrintln("allocation failed: no room for", w, "x", h)
		return
	}

	s.nexID++
	s.ids[s.nexID] = alloc.ID
	o.Printf("handle=%d rect=(%d,%d)-(%d,%d)\n",
		s.nexID, alloc.Rectangle.Min.X, alloc.Rectangle.Min.Y, alloc.Rectangle.Max.X, alloc.Rectangle.Max.Y)
}

func (s *replSession) cmdFree(o *consoleIO, args []string) {
	if s.a == nil {
		o.ErrPrintln("no atlas yet; run 'new <w> <h>' first")
		return
	}
	if len(args) != 1 {
		o.ErrPrintln("usage: free <handle>")
		return
	}
	handle, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		o.ErrPrintln("handle must be an integer")
		return
	}
	id, ok := s.ids[uint32(handle)]
	if !ok {
		o.ErrPrintln("unknown handle:", handle)
		return
	}
	s.a.Deallocate(id)
	delete(s.ids, uint32(handle))
	o.Printf("freed handle %d\n", handle)
}

func (s *replSession) cmdInfo(o *consoleIO) {
	if s.a == nil {
		o.ErrPrintln("no atlas yet; run 'new <w> <h>' first")
		return
	}
	size := s.a.Size()
	o.Printf("size=%dx%d allocated=%d free=%d empty=%t\n",
		size.Width, size.Height, s.a.AllocatedSpace(), s.a.FreeSpace(), s.a.IsEmpty())
}

func (s *replSession) cmdClear(o *consoleIO) {
	if s.a == nil {
		o.ErrPrintln("no atlas yet; run 'new <w> <h>' first")
		return
	}
	s.a.Clear()
	s.ids = make(map[uint32]atlas.AllocID)
	o.Println("cleared")
}

// cmdDump writes a snapshot of the live atlas to disk, either as a
// standalone SVG, an ASCII-art rendering, or an SVG rescaled to fit an
// arbitrary destination canvas (exercising DumpIntoSVG's composable form,
// the way a caller assembling several atlases into one document would).
func (s *replSession) cmdDump(o *consoleIO, args []string) {
	if s.a == nil {
		o.ErrPrintln("no atlas yet; run 'new <w> <h>' first")
		return
	}
	if len(args) < 2 {
		o.ErrPrintln("usage: dump svg|ascii <path>  or  dump into <path> <w> <h>")
		return
	}

	var buf bytes.Buffer
	path := args[1]

	switch args[0] {
	case "svg":
		if len(args) != 2 {
			o.ErrPrintln("usage: dump svg <path>")
			return
		}
		if err := s.a.DumpSVG(&buf); err != nil {
			o.ErrPrintln("rendering svg:", err)
			return
		}
	case "ascii":
		if len(args) != 2 {
			o.ErrPrintln("usage: dump ascii <path>")
			return
		}
		if err := s.a.DumpASCII(&buf); err != nil {
			o.ErrPrintln("rendering ascii:", err)
			return
		}
	case "into":
		if len(args) != 4 {
			o.ErrPrintln("usage: dump into <path> <w> <h>")
			return
		}
		w, err1 := strconv.ParseInt(args[2], 10, 32)
		h, err2 := strconv.ParseInt(args[3], 10, 32)
		if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
			o.ErrPrintln("canvas width and height must be positive integers")
			return
		}
		dest := &atlas.Rectangle{Max: atlas.Point{X: int32(w), Y: int32(h)}}
		fmt.Fprintf(&buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\">\n", w, h)
		if err := s.a.DumpIntoSVG(&buf, dest); err != nil {
			o.ErrPrintln("rendering svg:", err)
			return
		}
		buf.WriteString("</svg>\n")
	default:
		o.ErrPrintln("unknown dump kind:", args[0], "(expected svg, ascii, or into)")
		return
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		o.ErrPrintln("writing", path+":", err)
		return
	}
	o.Printf("wrote %s\n", path)
}

// cmdCurve flattens a cubic Bezier curve and prints its points, mirroring
// the standalone "curve" command for interactive use.
func (s *replSession) cmdCurve(o *consoleIO, args []string, cfg config) {
	if len(args) != 8 && len(args) != 9 {
		o.ErrPrintln("usage: curve <x1> <y1> <x2> <y2> <x3> <y3> <x4> <y4> [tolerance]")
		return
	}

	coords := make([]int32, 8)
	for i := 0; i < 8; i++ {
		v, err := strconv.ParseInt(args[i], 10, 32)
		if err != nil {
			o.ErrPrintln("coordinate", args[i], "is not an integer")
			return
		}
		coords[i] = int32(v)
	}

	tol := cfg.ToleranceQ28_4
	if len(args) == 9 {
		v, err := strconv.ParseInt(args[8], 10, 32)
		if err != nil {
			o.ErrPrintln("tolerance", args[8], "is not an integer")
			return
		}
		tol = int32(v)
	}

	pts := [4]raster.Point28_4{
		{X: coords[0], Y: coords[1]},
		{X: coords[2], Y: coords[3]},
		{X: coords[4], Y: coords[5]},
		{X: coords[6], Y: coords[7]},
	}

	b := raster.NewBezier(pts, nil, raster.WithTolerance(tol))
	for _, p := range b.FlattenAll() {
		o.Printf("%d,%d\n", p.X, p.Y)
	}
}
