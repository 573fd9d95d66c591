package atlas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-raster/atlaspack/atlas"
)

func Test_Allocate_Basic_Scenario_Succeeds_And_Tracks_Space(t *testing.T) {
	t.Parallel()

	a := atlas.New(atlas.Size{Width: 1000, Height: 1000})

	first, ok := a.Allocate(atlas.Size{Width: 1000, Height: 1000})
	require.True(t, ok)
	assert.Equal(t, atlas.Rectangle{Max: atlas.Point{X: 1000, Y: 1000}}, first.Rectangle)

	_, ok = a.Allocate(atlas.Size{Width: 1, Height: 1})
	assert.False(t, ok, "atlas is full, allocation must fail")

	a.Deallocate(first.ID)

	sizes := []atlas.Size{
		{Width: 10, Height: 10},
		{Width: 50, Height: 30},
		{Width: 12, Height: 45},
		{Width: 60, Height: 45},
		{Width: 1, Height: 1},
		{Width: 128, Height: 128},
		{Width: 256, Height: 256},
	}

	var allocs []atlas.Allocation
	for _, s := range sizes {
		alloc, ok := a.Allocate(s)
		require.True(t, ok, "allocate %v", s)
		allocs = append(allocs, alloc)
	}

	for i := 0; i < 3; i++ {
		a.Deallocate(allocs[i].ID)
	}

	for i := 0; i < 2; i++ {
		alloc, ok := a.Allocate(atlas.Size{Width: 500, Height: 200})
		require.True(t, ok, "re-allocate 500x200 iteration %d", i)
		allocs = append(allocs, alloc)
	}

	for i := 3; i < len(allocs); i++ {
		a.Deallocate(allocs[i].ID)
	}

	assert.True(t, a.IsEmpty())
	assert.Zero(t, a.AllocatedSpace())
}

func Test_Allocate_Coalesces_Empty_Shelves_To_Fit_A_Larger_Request(t *testing.T) {
	t.Parallel()

	a := atlas.New(atlas.Size{Width: 256, Height: 256})

	var allocs []atlas.Allocation
	for i := 0; i < 56; i++ {
		alloc, ok := a.Allocate(atlas.Size{Width: 32, Height: 32})
		require.True(t, ok, "allocate rect %d", i)
		allocs = append(allocs, alloc)
	}

	for i := 0; i < 8; i++ {
		a.Deallocate(allocs[i].ID)
	}
	for i := 16; i < 32; i++ {
		a.Deallocate(allocs[i].ID)
	}

	_, ok := a.Allocate(atlas.Size{Width: 70, Height: 70})
	assert.False(t, ok, "a 70x70 rectangle does not fit even after coalescing two 32px shelves")

	_, ok = a.Allocate(atlas.Size{Width: 64, Height: 64})
	assert.True(t, ok, "a 64x64 rectangle should fit by coalescing shelves 3 and 4")
}

func Test_Allocate_Splits_Atlas_Into_Independent_Columns(t *testing.T) {
	t.Parallel()

	a := atlas.NewWithOptions(atlas.Size{Width: 64, Height: 64}, atlas.Options{
		Alignment:  atlas.Size{Width: 1, Height: 1},
		NumColumns: 2,
	})

	first, ok := a.Allocate(atlas.Size{Width: 24, Height: 46})
	require.True(t, ok)
	assert.True(t, first.Rectangle.Min.X >= 0 && first.Rectangle.Min.X < 32)

	second, ok := a.Allocate(atlas.Size{Width: 24, Height: 32})
	require.True(t, ok)
	assert.True(t, second.Rectangle.Min.X >= 32 && second.Rectangle.Min.X < 64)

	third, ok := a.Allocate(atlas.Size{Width: 24, Height: 32})
	require.True(t, ok)
	assert.True(t, third.Rectangle.Min.X >= 32 && third.Rectangle.Min.X < 64)

	a.Deallocate(first.ID)
	a.Deallocate(second.ID)
	a.Deallocate(third.ID)
	assert.True(t, a.IsEmpty())
}

func Test_Allocate_Vertical_Shelves_Report_Size_In_Caller_Orientation(t *testing.T) {
	t.Parallel()

	a := atlas.NewWithOptions(atlas.Size{Width: 128, Height: 256}, atlas.Options{
		Alignment:       atlas.Size{Width: 1, Height: 1},
		NumColumns:      2,
		VerticalShelves: true,
	})

	assert.Equal(t, atlas.Size{Width: 128, Height: 256}, a.Size())

	requests := []atlas.Size{
		{Width: 32, Height: 16},
		{Width: 16, Height: 32},
		{Width: 128, Height: 128},
	}
	for _, req := range requests {
		alloc, ok := a.Allocate(req)
		require.True(t, ok, "allocate %v", req)

		got := alloc.Rectangle.Size()
		assert.GreaterOrEqual(t, got.Width, req.Width)
		assert.GreaterOrEqual(t, got.Height, req.Height)
	}
}

func Test_Allocate_Survives_Repeated_Clear_And_Varied_Allocation_Bursts(t *testing.T) {
	t.Parallel()

	sizes := []atlas.Size{
		{Width: 8, Height: 2}, {Width: 2, Height: 8}, {Width: 16, Height: 512},
		{Width: 34, Height: 34}, {Width: 256, Height: 52}, {Width: 192, Height: 192},
		{Width: 432, Height: 243}, {Width: 14, Height: 14}, {Width: 27, Height: 27},
		{Width: 29, Height: 28},
	}

	a := atlas.New(atlas.Size{Width: 2048, Height: 2048})

	for iter := 0; iter < 500; iter++ {
		a.Clear()
		for i := 0; i < 80; i++ {
			s := sizes[i%len(sizes)]
			_, ok := a.Allocate(s)
			require.True(t, ok, "iteration %d, allocation %d of size %v", iter, i, s)
		}
	}
}

func Test_Allocate_Never_Overlaps_Live_Rectangles(t *testing.T) {
	t.Parallel()

	a := atlas.New(atlas.Size{Width: 512, Height: 512})

	var live []atlas.Allocation
	sizes := []atlas.Size{{8, 8}, {16, 8}, {8, 16}, {32, 32}, {64, 16}, {16, 64}}

	for i := 0; i < 200; i++ {
		if alloc, ok := a.Allocate(sizes[i%len(sizes)]); ok {
			live = append(live, alloc)
		}
	}

	for i := range live {
		for j := range live {
			if i == j {
				continue
			}
			assert.False(t, rectsOverlap(live[i].Rectangle, live[j].Rectangle),
				"allocations %d and %d overlap: %v vs %v", i, j, live[i].Rectangle, live[j].Rectangle)
			assert.True(t, contains(a.Size(), live[i].Rectangle))
		}
	}
}

func Test_Allocate_Rejects_Zero_Sized_And_Oversized_Requests(t *testing.T) {
	t.Parallel()

	a := atlas.New(atlas.Size{Width: 64, Height: 64})

	_, ok := a.Allocate(atlas.Size{Width: 0, Height: 10})
	assert.False(t, ok)

	_, ok = a.Allocate(atlas.Size{Width: 10, Height: 0})
	assert.False(t, ok)

	_, ok = a.Allocate(atlas.Size{Width: 1 << 17, Height: 1})
	assert.False(t, ok)
}

func Test_Deallocate_Panics_On_Reused_Handle(t *testing.T) {
	t.Parallel()

	a := atlas.New(atlas.Size{Width: 64, Height: 64})

	alloc, ok := a.Allocate(atlas.Size{Width: 32, Height: 32})
	require.True(t, ok)

	a.Deallocate(alloc.ID)

	assert.Panics(t, func() {
		a.Deallocate(alloc.ID)
	})
}

func rectsOverlap(a, b atlas.Rectangle) bool {
	return a.Min.X < b.Max.X && b.Min.X < a.Max.X && a.Min.Y < b.Max.Y && b.Min.Y < a.Max.Y
}

func contains(bounds atlas.Size, r atlas.Rectangle) bool {
	return r.Min.X >= 0 && r.Min.Y >= 0 && r.Max.X <= bounds.Width && r.Max.Y <= bounds.Height
}
