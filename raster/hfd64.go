package raster

// The 64-bit cracker is used whenever a curve's control points don't fit
// the 32-bit cracker's safe 10-bit domain. It runs a two-level scheme: an
// outer HFD subdivides the curve at a coarse error budget just fine enough
// to keep 36.28 arithmetic from overflowing, and for each outer step it
// reconstructs the sub-curve's four control points (via the inverse basis
// transform) and seeds a fresh inner HFD that refines that sub-curve down
// to the real flattening tolerance. The inner HFD runs to completion
// before the outer HFD advances and spawns the next one.

const (
	bezier64Fraction = 28

	// Bound on the number of halvings either level's pre-convergence loop
	// may perform before giving up on reaching its error target.
	hfd64MaxStepsShift = 40

	// The outer level's fixed, coarse error budget: roughly 2^11 pixels
	// in 28.4 units. This only bounds how finely the curve is chopped
	// into sub-curves the inner level can safely refine in 36.28
	// arithmetic; it has no bearing on the caller-visible chord-error
	// tolerance, so unlike the inner level's budget it does not scale
	// with WithTolerance.
	hfd64OuterErrorBudget = int64(6) << 43
)

// hfdBasis64 is one axis of a cubic curve in 36.28 fixed point.
type hfdBasis64 struct {
	e0, e1, e2, e3 int64
}

func (b *hfdBasis64) error() int64 {
	return max64(abs64(b.e2), abs64(b.e3))
}

func (b *hfdBasis64) parentErrorDividedBy4() int64 {
	return max64(abs64(b.e3), abs64(b.e2+b.e2-b.e3))
}

func (b *hfdBasis64) value() int64 {
	return b.e0 >> bezier64Fraction
}

// init changes basis from the four 28.4 control points to the 36.28
// format directly (the 64-bit cracker has no separate initial-phase
// format, unlike bezier32).
func (b *hfdBasis64) init(p1, p2, p3, p4 int32) {
	const shift = bezier64Fraction

	b.e0 = int64(p1) << shift
	b.e1 = int64(p4-p1) << shift
	b.e2 = 6 * int64(p2-p3-p3+p4) << shift
	b.e3 = 6 * int64(p1-p2-p2+p3) << shift
}

func (b *hfdBasis64) halveStepSize() {
	b.e2 = exactShiftRight64(b.e2+b.e3, 3)
	b.e1 = exactShiftRight64(b.e1-b.e2, 1)
	b.e3 = exactShiftRight64(b.e3, 2)
}

func (b *hfdBasis64) doubleStepSize() {
	b.e1 += b.e1 + b.e2
	b.e3 <<= 2
	b.e2 = (b.e2 << 3) - b.e3
}

func (b *hfdBasis64) takeStep() {
	b.e0 += b.e1
	tmp := b.e2
	b.e1 += tmp
	b.e2 += tmp - b.e3
	b.e3 = tmp
}

func exactShiftRight64(num int64, shift uint) int64 {
	if num != (num>>shift)<<shift {
		panic("raster: inexact shift in 64-bit HFD basis")
	}
	return num >> shift
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// level is one HFD cracker (a pair of bases, one per axis) running to a
// given error budget. bezier64 composes two of these: an outer level that
// drives subdivision and an inner level that emits the actual output
// points for one sub-curve at a time.
type level struct {
	steps          int64
	cSubdivisions  uint
	x, y           hfdBasis64
	errorTolerance int64
}

// initNoStep prepares l from pts and, unless clipMiss is set, subdivides
// until its error is within tolerance — but does not consume the first
// step the way bezier32's init does, since the outer level needs to
// reconstruct control points from its pre-step state.
func (l *level) initNoStep(pts [4]Point28_4, tolerance int64, clipMiss bool) {
	l.errorTolerance = tolerance
	l.x.init(pts[0].X, pts[1].X, pts[2].X, pts[3].X)
	l.y.init(pts[0].Y, pts[1].Y, pts[2].Y, pts[3].Y)

	l.cSubdivisions = 0
	l.steps = 1

	if clipMiss {
		return
	}

	for l.cSubdivisions < hfd64MaxStepsShift &&
		(l.x.error() > tolerance || l.y.error() > tolerance) {
		l.x.halveStepSize()
		l.y.halveStepSize()
		l.cSubdivisions++
		l.steps <<= 1
	}
}

func (l *level) takeFirstStep() {
	l.x.takeStep()
	l.y.takeStep()
	l.steps--
}

func (l *level) point() Point28_4 {
	return Point28_4{X: int32(l.x.value()), Y: int32(l.y.value())}
}

func (l *level) done() bool {
	return l.steps == 0
}

// advance runs the same halve/coarsen/step adaptive logic as bezier32's
// flatten loop, for one axis pair.
func (l *level) advance() {
	l.adjust()
	l.steps--
	l.x.takeStep()
	l.y.takeStep()
}

// adjust halves or doubles l's step size so that the next step stays
// within l's error budget.
func (l *level) adjust() {
	if max64(l.x.error(), l.y.error()) > l.errorTolerance {
		l.x.halveStepSize()
		l.y.halveStepSize()
		l.cSubdivisions++
		l.steps <<= 1
	}

	for l.cSubdivisions > 0 && l.steps&1 == 0 &&
		l.x.parentErrorDividedBy4() <= l.errorTolerance>>2 &&
		l.y.parentErrorDividedBy4() <= l.errorTolerance>>2 {
		l.x.doubleStepSize()
		l.y.doubleStepSize()
		l.cSubdivisions--
		l.steps >>= 1
	}
}

// reconstruct recovers the four 28.4 control points of the sub-curve
// starting at l's current (un-stepped) position, by inverting the HFD
// basis transform.
func (l *level) reconstruct() [4]Point28_4 {
	return [4]Point28_4{
		{X: inverseBasisP0(l.x), Y: inverseBasisP0(l.y)},
		{X: inverseBasisP1(l.x), Y: inverseBasisP1(l.y)},
		{X: inverseBasisP2(l.x), Y: inverseBasisP2(l.y)},
		{X: inverseBasisP3(l.x), Y: inverseBasisP3(l.y)},
	}
}

const inverseBasisShift = bezier64Fraction

func inverseBasisP0(b hfdBasis64) int32 {
	return int32(b.e0 >> inverseBasisShift)
}

func inverseBasisP1(b hfdBasis64) int32 {
	return int32((b.e0 + (6*b.e1-b.e2-2*b.e3)/18) >> inverseBasisShift)
}

func inverseBasisP2(b hfdBasis64) int32 {
	return int32((b.e0 + (12*b.e1-2*b.e2-b.e3)/18) >> inverseBasisShift)
}

func inverseBasisP3(b hfdBasis64) int32 {
	return int32((b.e0 + b.e1) >> inverseBasisShift)
}

// bezier64 flattens a cubic Bezier curve of arbitrary magnitude using the
// two-level outer/inner HFD scheme described above.
type bezier64 struct {
	bound Rect28_4
	outer level
	inner level
}

// init prepares b to flatten pts. Unlike bezier32, this cracker never
// rejects its input: every curve that does not fit the 32-bit cracker's
// domain is handled here. tolerance is the maximum chord error to allow,
// in 28.4 units, applied to the inner level; the outer level's budget is
// a fixed internal constant (see hfd64OuterErrorBudget).
func (b *bezier64) init(pts [4]Point28_4, clip *Rect28_4, tolerance int32) {
	b.bound = boundingBox(pts)
	clipMiss := clip != nil && !rectsIntersect(b.bound, *clip)

	lowTolerance := int64(6*tolerance) << bezier64Fraction

	b.outer.initNoStep(pts, hfd64OuterErrorBudget, clipMiss)
	b.inner.initNoStep(b.outer.reconstruct(), lowTolerance, clipMiss)
	b.inner.takeFirstStep()
}

// flatten fills out with successive points on the curve, returning the
// count written and whether more points remain.
func (b *bezier64) flatten(out []Point28_4) (int, bool) {
	n := len(out)
	if n == 0 {
		panic("raster: flatten called with an empty buffer")
	}
	original := n

	for {
		out[0] = b.inner.point()
		out = out[1:]

		if b.inner.done() {
			if b.outer.steps == 1 {
				return original - len(out), false
			}
			b.outer.takeFirstStep()
			b.outer.adjust()
			b.inner.initNoStep(b.outer.reconstruct(), b.inner.errorTolerance, false)
			b.inner.takeFirstStep()
		} else {
			b.inner.advance()
		}

		n--
		if n == 0 {
			break
		}
	}

	return original, true
}
