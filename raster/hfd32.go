package raster

// Constants and shift bookkeeping below reproduce the hybrid
// forward-differencing cracker used by WPF's GPU rasterizer bit-for-bit:
// Kirk Olynyk's error factor, as described in Goossen and Olynyk, "System
// and Method of Hybrid Forward Differencing to Render Bezier Splines", and
// Lien, Shantz and Pratt, "Adaptive Forward Differencing for Rendering
// Curves and Surfaces" (Computer Graphics, July 1987).

const (
	// First conversion from the 28.4 input format to 18.14.
	hfd32InitialShift = 10
	// Second conversion, from 18.14 to the steady-state 15.17 format.
	hfd32AdditionalShift = 3
	// The shift to the steady-state 15.17 format.
	hfd32Shift = hfd32InitialShift + hfd32AdditionalShift
	// Added to output numbers before rounding back to 28.4.
	hfd32Round = int32(1) << (hfd32Shift - 1)

	// The default flattening tolerance: a quarter pixel in 28.4 format.
	hfd32DefaultTolerance = int32(4)

	// The maximum size of coefficients HfdBasis32 can handle. Kept
	// exactly as upstream (0xffff_c000, more conservative than its own
	// derivation comment implies, by design — see the package's open
	// questions in DESIGN.md).
	hfd32MaxSize = int64(0xffffc000)
)

// hfdBasis32 is one axis (x or y) of a cubic curve represented in hybrid
// forward-differencing form: e0 is the current point on the curve, e1 the
// first forward difference, e2 and e3 the second and "parent" differences
// (proportional to the local curvature error).
type hfdBasis32 struct {
	e0, e1, e2, e3 int32
}

func (b *hfdBasis32) parentErrorDividedBy4() int32 {
	return max32(abs32(b.e3), abs32(b.e2+b.e2-b.e3))
}

func (b *hfdBasis32) error() int32 {
	return max32(abs32(b.e2), abs32(b.e3))
}

func (b *hfdBasis32) value() int32 {
	return (b.e0 + hfd32Round) >> hfd32Shift
}

// init changes basis from the four control points p1..p4 (already
// converted to 28.4) and converts to 18.14 format. It reports false if the
// resulting error is too large for the 32-bit cracker to subdivide.
func (b *hfdBasis32) init(p1, p2, p3, p4, maxError int32) bool {
	b.e0 = p1 << hfd32InitialShift
	b.e1 = (p4 - p1) << hfd32InitialShift

	b.e2 = 6 * (p2 - p3 - p3 + p4)
	b.e3 = 6 * (p1 - p2 - p2 + p3)

	if b.error() >= maxError {
		return false
	}

	b.e2 <<= hfd32InitialShift
	b.e3 <<= hfd32InitialShift

	return true
}

func (b *hfdBasis32) lazyHalveStepSize(cShift int32) {
	b.e2 = exactShiftRight32(b.e2+b.e3, 1)
	b.e1 = (b.e1 - (b.e2 >> cShift)) >> 1
}

// steadyState converts from 18.14 to the 15.17 steady-state format.
func (b *hfdBasis32) steadyState(cShift int32) {
	b.e0 <<= hfd32AdditionalShift
	b.e1 <<= hfd32AdditionalShift

	shift := cShift - hfd32AdditionalShift
	if shift < 0 {
		shift = -shift
		b.e2 <<= shift
		b.e3 <<= shift
	} else {
		b.e2 >>= shift
		b.e3 >>= shift
	}
}

func (b *hfdBasis32) halveStepSize() {
	b.e2 = exactShiftRight32(b.e2+b.e3, 3)
	b.e1 = exactShiftRight32(b.e1-b.e2, 1)
	b.e3 = exactShiftRight32(b.e3, 2)
}

func (b *hfdBasis32) doubleStepSize() {
	b.e1 += b.e1 + b.e2
	b.e3 <<= 2
	b.e2 = (b.e2 << 3) - b.e3
}

func (b *hfdBasis32) takeStep() {
	b.e0 += b.e1
	tmp := b.e2
	b.e1 += tmp
	b.e2 += tmp - b.e3
	b.e3 = tmp
}

// exactShiftRight32 performs num>>shift, asserting no significant bits are
// lost, matching the original HFD's debug-mode exactness check.
func exactShiftRight32(num, shift int32) int32 {
	if num != (num>>shift)<<shift {
		panic("raster: inexact shift in 32-bit HFD basis")
	}
	return num >> shift
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// bezier32 flattens a cubic Bezier curve whose control points (after
// normalization) fit a safe 10-bit domain, using the 15.17 fixed-point
// steady-state basis.
type bezier32 struct {
	steps         int32
	x, y          hfdBasis32
	bound         Rect28_4
	testMagnitude int32
}

// init attempts to prepare b to flatten points, returning false if the
// curve's coefficients are too large for the 32-bit cracker (the caller
// should then fall back to the 64-bit cracker). tolerance is the maximum
// chord error to allow, in 28.4 units.
func (b *bezier32) init(pts [4]Point28_4, clip *Rect28_4, tolerance int32) bool {
	errFactor := 6 * tolerance
	maxError := errFactor << (2 * hfd32InitialShift)
	initialTestMagnitude := errFactor << hfd32InitialShift
	b.testMagnitude = initialTestMagnitude << hfd32AdditionalShift

	var cShift int32
	b.steps = 1
	b.bound = boundingBox(pts)

	offset := pts
	var xOr, yOr int32

	xOffset := b.bound.Min.X
	for i := range offset {
		offset[i].X -= xOffset
		xOr |= offset[i].X
	}
	yOffset := b.bound.Min.Y
	for i := range offset {
		offset[i].Y -= yOffset
		yOr |= offset[i].Y
	}

	// This 32-bit cracker can only handle points in a 10-bit space.
	if int64(xOr)&hfd32MaxSize != 0 || int64(yOr)&hfd32MaxSize != 0 {
		return false
	}

	if !b.x.init(offset[0].X, offset[1].X, offset[2].X, offset[3].X, maxError) {
		return false
	}
	if !b.y.init(offset[0].Y, offset[1].Y, offset[2].Y, offset[3].Y, maxError) {
		return false
	}

	if clip == nil || rectsIntersect(b.bound, *clip) {
		for {
			testMagnitude := initialTestMagnitude << cShift
			if b.x.error() <= testMagnitude && b.y.error() <= testMagnitude {
				break
			}

			cShift += 2
			b.x.lazyHalveStepSize(cShift)
			b.y.lazyHalveStepSize(cShift)
			b.steps <<= 1
		}
	}

	b.x.steadyState(cShift)
	b.y.steadyState(cShift)

	// Handles the case where the initial error was already within
	// tolerance.
	b.x.takeStep()
	b.y.takeStep()
	b.steps--

	return true
}

// flatten fills out with successive points on the curve, returning the
// count written and whether more points remain.
func (b *bezier32) flatten(out []Point28_4) (int, bool) {
	n := len(out)
	if n == 0 {
		panic("raster: flatten called with an empty buffer")
	}
	original := n

	for {
		out[0] = Point28_4{X: b.x.value() + b.bound.Min.X, Y: b.y.value() + b.bound.Min.Y}
		out = out[1:]

		if b.steps == 0 {
			return original - len(out), false
		}

		if max32(b.x.error(), b.y.error()) > b.testMagnitude {
			b.x.halveStepSize()
			b.y.halveStepSize()
			b.steps <<= 1
		}

		for b.steps&1 == 0 &&
			b.x.parentErrorDividedBy4() <= b.testMagnitude>>2 &&
			b.y.parentErrorDividedBy4() <= b.testMagnitude>>2 {
			b.x.doubleStepSize()
			b.y.doubleStepSize()
			b.steps >>= 1
		}

		b.steps--
		b.x.takeStep()
		b.y.takeStep()

		n--
		if n == 0 {
			break
		}
	}

	return original, true
}
