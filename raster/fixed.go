// Package raster implements a hybrid forward-differencing (HFD) cubic
// Bezier flattener: it turns four control points into a sequence of line
// segment endpoints whose maximum chord error from the true curve is
// bounded, fast enough to run without heap allocation once constructed and
// without using the call stack for recursion. It is the numeric core a
// software rasterizer calls into while walking a path's curve segments.
//
// The flattener offers two precision variants selected automatically at
// construction: a 32-bit basis for curves whose control points fit a safe
// 10-bit domain after normalization, and a 64-bit two-level basis for
// everything else. Both operate entirely in fixed-point integers — no
// floating point is involved in stepping the curve, so the chord-error
// bound holds exactly, not just to floating-point tolerance.
package raster

// Point28_4 is a point in 28.4 fixed-point: a signed 32-bit integer whose
// low 4 bits are the fraction, so one pixel equals 16 units.
type Point28_4 struct {
	X, Y int32
}

// Rect28_4 is an axis-aligned rectangle in 28.4 fixed-point, with Min the
// top-left corner and Max the bottom-right corner.
type Rect28_4 struct {
	Min, Max Point28_4
}

func boundingBox(pts [4]Point28_4) Rect28_4 {
	left, right := pts[0].X, pts[0].X
	top, bottom := pts[0].Y, pts[0].Y

	for _, p := range pts[1:] {
		if p.X < left {
			left = p.X
		}
		if p.X > right {
			right = p.X
		}
		if p.Y < top {
			top = p.Y
		}
		if p.Y > bottom {
			bottom = p.Y
		}
	}

	// Loosen the bounds by one pixel (16 units in 28.4) on every side, for
	// the nominal width stroke case.
	return Rect28_4{
		Min: Point28_4{X: left - 16, Y: top - 16},
		Max: Point28_4{X: right + 16, Y: bottom + 16},
	}
}

func rectsIntersect(a, b Rect28_4) bool {
	return a.Min.X < b.Max.X && a.Min.Y < b.Max.Y && a.Max.X > b.Min.X && a.Max.Y > b.Min.Y
}
