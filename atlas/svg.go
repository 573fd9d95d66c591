package atlas

import (
	"fmt"
	"io"

	"github.com/go-raster/atlaspack/f32"
)

// DumpSVG writes a standalone SVG document visualizing the atlas: shelves
// as rows, buckets as columns within a row, live allocations in blue and
// free space in gray.
func (a *Allocator) DumpSVG(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\">\n", a.width, a.height); err != nil {
		return err
	}
	if err := a.DumpIntoSVG(w, nil); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</svg>\n")
	return err
}

// DumpIntoSVG writes the atlas's markup without the enclosing <svg> tag, so
// a caller can embed several atlases into a larger document. If dest is
// non-nil, the output is translated and scaled to fit it.
func (a *Allocator) DumpIntoSVG(w io.Writer, dest *Rectangle) error {
	full := f32.Rectangle{Max: f32.Point{X: float32(a.width), Y: float32(a.height)}}
	scale, offset := svgTransform(full, dest)

	bg := scaleRect(full, scale, offset)
	if err := writeSVGRect(w, bg, "rgb(40,40,40)"); err != nil {
		return err
	}

	for i := range a.shelves {
		sh := &a.shelves[i]
		y := float32(sh.y)
		h := float32(sh.height)

		bi := sh.firstBucket
		for bi != bucketInvalid {
			b := &a.buckets[bi]

			x := float32(b.x)
			used := float32(sh.bucketWidth - b.freeSpace)

			usedRect := orientRect(a.flipXY, f32.Rectangle{
				Min: f32.Point{X: x, Y: y},
				Max: f32.Point{X: x + used, Y: y + h},
			})
			if err := writeSVGRect(w, scaleRect(usedRect, scale, offset), "rgb(70,70,180)"); err != nil {
				return err
			}

			if b.freeSpace > 0 {
				free := float32(b.freeSpace)
				freeRect := orientRect(a.flipXY, f32.Rectangle{
					Min: f32.Point{X: x + used, Y: y},
					Max: f32.Point{X: x + used + free, Y: y + h},
				})
				if err := writeSVGRect(w, scaleRect(freeRect, scale, offset), "rgb(50,50,50)"); err != nil {
					return err
				}
			}

			bi = b.next
		}
	}

	return nil
}

// DumpASCII writes a text-art rendering of the atlas: one line per shelf
// (zero-height shelves are skipped), one character per pixel column of each
// bucket, '#' for live space and '.' for free space. It is the ASCII
// counterpart of DumpSVG for terminals that can't render SVG.
func (a *Allocator) DumpASCII(w io.Writer) error {
	for i := range a.shelves {
		sh := &a.shelves[i]
		if sh.height == 0 {
			continue
		}

		bi := sh.firstBucket
		for bi != bucketInvalid {
			b := &a.buckets[bi]
			used := sh.bucketWidth - b.freeSpace
			for x := uint16(0); x < sh.bucketWidth; x++ {
				ch := byte('.')
				if x < used {
					ch = '#'
				}
				if _, err := w.Write([]byte{ch}); err != nil {
					return err
				}
			}
			bi = b.next
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func svgTransform(full f32.Rectangle, dest *Rectangle) (scale, offset f32.Point) {
	if dest == nil {
		return f32.Point{X: 1, Y: 1}, f32.Point{}
	}
	size := full.Size()
	destW := float32(dest.Max.X - dest.Min.X)
	destH := float32(dest.Max.Y - dest.Min.Y)
	sx, sy := float32(1), float32(1)
	if size.X != 0 {
		sx = destW / size.X
	}
	if size.Y != 0 {
		sy = destH / size.Y
	}
	return f32.Point{X: sx, Y: sy}, f32.Point{X: float32(dest.Min.X), Y: float32(dest.Min.Y)}
}

func scaleRect(r f32.Rectangle, scale, offset f32.Point) f32.Rectangle {
	return f32.Rectangle{
		Min: f32.Point{X: r.Min.X * scale.X, Y: r.Min.Y * scale.Y}.Add(offset),
		Max: f32.Point{X: r.Max.X * scale.X, Y: r.Max.Y * scale.Y}.Add(offset),
	}
}

func orientRect(flipXY bool, r f32.Rectangle) f32.Rectangle {
	if !flipXY {
		return r
	}
	return f32.Rectangle{
		Min: f32.Point{X: r.Min.Y, Y: r.Min.X},
		Max: f32.Point{X: r.Max.Y, Y: r.Max.X},
	}
}

func writeSVGRect(w io.Writer, r f32.Rectangle, fill string) error {
	size := r.Size()
	_, err := fmt.Fprintf(w, "    <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"black\" stroke-width=\"1\"/>\n",
		r.Min.X, r.Min.Y, size.X, size.Y, fill)
	return err
}
