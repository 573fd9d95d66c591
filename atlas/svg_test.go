package atlas_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-raster/atlaspack/atlas"
)

func Test_DumpSVG_Wraps_DumpIntoSVG_Output_In_An_Svg_Tag(t *testing.T) {
	t.Parallel()

	a := atlas.New(atlas.Size{Width: 64, Height: 64})
	_, ok := a.Allocate(atlas.Size{Width: 32, Height: 16})
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, a.DumpSVG(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64">`))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
	assert.Contains(t, out, "<rect")
}

func Test_DumpIntoSVG_With_Dest_Scales_And_Translates_Rects(t *testing.T) {
	t.Parallel()

	a := atlas.New(atlas.Size{Width: 100, Height: 100})
	_, ok := a.Allocate(atlas.Size{Width: 50, Height: 50})
	require.True(t, ok)

	var plain bytes.Buffer
	require.NoError(t, a.DumpIntoSVG(&plain, nil))
	assert.Contains(t, plain.String(), `x="0" y="0"`)

	dest := &atlas.Rectangle{
		Min: atlas.Point{X: 200, Y: 200},
		Max: atlas.Point{X: 400, Y: 400},
	}

	var remapped bytes.Buffer
	require.NoError(t, a.DumpIntoSVG(&remapped, dest))

	out := remapped.String()
	assert.NotContains(t, out, `x="0" y="0"`, "remapping into dest must translate every rect away from the origin")
	assert.Contains(t, out, `x="200" y="200"`, "the atlas's background rect must land at dest's origin")
	assert.Contains(t, out, `width="200" height="200"`, "a 100x100 atlas scaled into a 200x200 dest must double every extent")
}

func Test_DumpASCII_Marks_Live_Space_And_Free_Space(t *testing.T) {
	t.Parallel()

	a := atlas.New(atlas.Size{Width: 8, Height: 8})
	_, ok := a.Allocate(atlas.Size{Width: 4, Height: 8})
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, a.DumpASCII(&buf))

	out := buf.String()
	assert.Contains(t, out, "#", "the allocated rectangle must render as live space")
	assert.Contains(t, out, ".", "unallocated bucket space must render as free space")
}
