// SPDX-License-Identifier: Unlicense OR MIT

/*
Package f32 is a float32 implementation of package image's Point and
Rectangle, used by the atlas package to scale and translate its debug SVG
output into a caller-supplied destination rectangle.

The coordinate space has the origin in the top left corner with the axes
extending right and down.
*/
package f32

// A Point is a two dimensional point.
type Point struct {
	X, Y float32
}

// A Rectangle contains the points (X, Y) where Min.X <= X < Max.X,
// Min.Y <= Y < Max.Y.
type Rectangle struct {
	Min, Max Point
}

// Add return the point p+p2.
func (p Point) Add(p2 Point) Point {
	return Point{X: p.X + p2.X, Y: p.Y + p2.Y}
}

// Size returns r's width and height.
func (r Rectangle) Size() Point {
	return Point{X: r.Max.X - r.Min.X, Y: r.Max.Y - r.Min.Y}
}
