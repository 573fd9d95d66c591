package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Run_Alloc_Places_A_Rectangle_In_A_Fresh_Atlas(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run([]string{"alloc", "64", "64"}, &stdout, &stderr)

	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "rect=(0,0)-(64,64)")
}

func Test_Run_Alloc_Rejects_Non_Positive_Dimensions(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run([]string{"alloc", "0", "64"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "width and height must be positive")
}

func Test_Run_Curve_Flattens_And_Prints_Points(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run([]string{"curve", "1715", "6506", "1692", "6506", "1227", "5148", "647", "5211"}, &stdout, &stderr)

	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	assert.Equal(t, 21, len(lines))
	assert.Equal(t, "647,5211", lines[len(lines)-1])
}

func Test_Run_Unknown_Command_Prints_Help_And_Fails(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run([]string{"bogus"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown command")
}
