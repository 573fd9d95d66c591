package raster_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-raster/atlaspack/raster"
)

func pt(x, y int32) raster.Point28_4 {
	return raster.Point28_4{X: x, Y: y}
}

func Test_Flatten_Classic_Cubic_Produces_Expected_Point_Count(t *testing.T) {
	t.Parallel()

	pts := [4]raster.Point28_4{
		pt(1715, 6506), pt(1692, 6506), pt(1227, 5148), pt(647, 5211),
	}

	b := raster.NewBezier(pts, nil)
	buf := make([]raster.Point28_4, 32)
	n, more := b.Flatten(buf)

	assert.Equal(t, 21, n)
	assert.False(t, more)
	assert.Equal(t, pts[3], buf[n-1], "the last emitted point must equal the fourth control point")
}

func Test_Flatten_Split_Buffers_Match_A_Single_Whole_Buffer(t *testing.T) {
	t.Parallel()

	pts := [4]raster.Point28_4{
		pt(1795, 8445), pt(1795, 8445), pt(1908, 8683), pt(2043, 8705),
	}

	whole := raster.NewBezier(pts, nil)
	wholeBuf := make([]raster.Point28_4, 8)
	n, more := whole.Flatten(wholeBuf)
	require.Equal(t, 8, n)
	assert.False(t, more)

	split := raster.NewBezier(pts, nil)
	first := make([]raster.Point28_4, 5)
	n1, more1 := split.Flatten(first)
	require.True(t, more1)
	require.Equal(t, 5, n1)

	second := make([]raster.Point28_4, 3)
	n2, more2 := split.Flatten(second)
	require.Equal(t, 3, n2)
	assert.False(t, more2)

	got := append(append([]raster.Point28_4{}, first[:n1]...), second[:n2]...)
	if diff := cmp.Diff(wholeBuf[:n], got); diff != "" {
		t.Fatalf("split flattening diverged from whole-buffer flattening (-whole +split):\n%s", diff)
	}
}

func Test_Flatten_Falls_Back_To_64_Bit_Cracker_For_Large_Magnitude_Curves(t *testing.T) {
	t.Parallel()

	pts := [4]raster.Point28_4{
		pt(33, -1), pt(-1, -1), pt(-1, -16385), pt(-226, 10),
	}

	b := raster.NewBezier(pts, nil)
	buf := make([]raster.Point28_4, 32)
	n, more := b.Flatten(buf)

	assert.Equal(t, 32, n)
	assert.True(t, more, "a curve this large should need more than one 32-point buffer")
}

func Test_Flatten_Panics_On_Empty_Output_Buffer(t *testing.T) {
	t.Parallel()

	pts := [4]raster.Point28_4{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)}
	b := raster.NewBezier(pts, nil)

	assert.Panics(t, func() {
		b.Flatten(nil)
	})
}

func Test_Flatten_Tighter_Tolerance_Never_Emits_Fewer_Points(t *testing.T) {
	t.Parallel()

	pts := [4]raster.Point28_4{pt(0, 0), pt(0, 1600), pt(1600, 1600), pt(1600, 0)}

	coarse := raster.NewBezier(pts, nil, raster.WithTolerance(16)).FlattenAll()
	fine := raster.NewBezier(pts, nil, raster.WithTolerance(1)).FlattenAll()

	assert.Equal(t, pts[3], coarse[len(coarse)-1])
	assert.Equal(t, pts[3], fine[len(fine)-1])
	assert.GreaterOrEqual(t, len(fine), len(coarse), "a tighter tolerance should need at least as many segments")
}
