package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/raysphere/pkg/scene"
)

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderBackgroundOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	out, err := execute(t, "render", "--width", "8", "--height", "6", "--bg", "#0000ff", "--workers", "2", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0, 0, 255}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestRenderRejectsBadBackground(t *testing.T) {
	_, err := execute(t, "render", "--bg", "blue", "-o", filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestRenderRejectsBadSize(t *testing.T) {
	_, err := execute(t, "render", "--width", "0", "-o", filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestPick(t *testing.T) {
	out, err := execute(t, "pick", "0", "0")
	require.NoError(t, err)
	assert.Equal(t, "background\n", out)

	out, err = execute(t, "pick", "160", "120")
	require.NoError(t, err)
	assert.Contains(t, out, "sphere 0 at t=")
	assert.Contains(t, out, "#ff0000")

	_, err = execute(t, "pick", "x", "1")
	assert.Error(t, err)
	_, err = execute(t, "pick", "1")
	assert.Error(t, err)
}

func TestSceneToStdout(t *testing.T) {
	out, err := execute(t, "scene")
	require.NoError(t, err)
	sc, err := scene.Decode([]byte(out), scene.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, scene.Default().Camera, sc.Camera)
	assert.Len(t, sc.Spheres, 1)
	assert.Len(t, sc.Lights, 2)
}

func TestSceneFileThenInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	out, err := execute(t, "scene", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = execute(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scene:      ref.yaml [YAML")
	assert.Contains(t, out, "Background: #404040")
	assert.Contains(t, out, "Lights:     2")
	assert.Contains(t, out, "Spheres:    1")
	assert.Contains(t, out, "Bounds Min: (-1.000, -1.000, -1.000)")
	assert.Contains(t, out, "Dimensions: 2.000 x 2.000 x 2.000")
}

func TestInfoReferenceScene(t *testing.T) {
	out, err := execute(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "(reference scene)")
	assert.Contains(t, out, "fov 60.0°")
}

func TestInfoMissingFile(t *testing.T) {
	_, err := execute(t, "info", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
