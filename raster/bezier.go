package raster

import "errors"

// ErrEmptyBuffer is the value Flatten panics with when called with a
// zero-length output buffer, since no cracker can make progress without one.
var ErrEmptyBuffer = errors.New("raster: flatten buffer must not be empty")

// defaultTolerance is a quarter pixel in 28.4 units, matching the
// nominal-width stroke tolerance the cracker was designed around.
const defaultTolerance = hfd32DefaultTolerance

// Option configures a Bezier flattener.
type Option func(*options)

type options struct {
	tolerance int32
}

// WithTolerance sets the maximum chord error to allow between the
// flattened line segments and the true curve, in 28.4 fixed-point units.
// The default is a quarter pixel.
func WithTolerance(q28_4 int32) Option {
	return func(o *options) {
		o.tolerance = q28_4
	}
}

// Bezier flattens a single cubic Bezier curve into line segments of
// bounded chord error. It selects a 32-bit or 64-bit fixed-point cracker
// at construction depending on the magnitude of the control points, and
// from then on produces identical output through either path: an
// unbroken sequence of points ending at the curve's last control point.
type Bezier struct {
	use64 bool
	b32   bezier32
	b64   bezier64
}

// NewBezier constructs a flattener for the cubic curve with the given
// control points (points[0] and points[3] are the curve's endpoints),
// already in 28.4 fixed point. If clip is non-nil, the cracker spends no
// extra steps refining curve detail outside of it.
func NewBezier(points [4]Point28_4, clip *Rect28_4, opts ...Option) *Bezier {
	o := options{tolerance: defaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Bezier{}
	if !b.b32.init(points, clip, o.tolerance) {
		b.use64 = true
		b.b64.init(points, clip, o.tolerance)
	}
	return b
}

// Flatten writes successive points on the curve into out, starting with
// the point immediately after points[0] (the caller already has that) and
// ending with points[3] on the final call. It returns the number of
// points written and whether further calls are needed to reach the
// curve's end.
//
// Flatten panics if out has zero length, since neither cracker can make
// forward progress without somewhere to write.
func (b *Bezier) Flatten(out []Point28_4) (n int, more bool) {
	if len(out) == 0 {
		panic(ErrEmptyBuffer)
	}
	if b.use64 {
		return b.b64.flatten(out)
	}
	return b.b32.flatten(out)
}

// FlattenAll runs Flatten to completion and returns every point.
func (b *Bezier) FlattenAll() []Point28_4 {
	var pts []Point28_4
	buf := make([]Point28_4, 64)
	for {
		n, more := b.Flatten(buf)
		pts = append(pts, buf[:n]...)
		if !more {
			return pts
		}
	}
}
