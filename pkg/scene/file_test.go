package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/raysphere/pkg/math3d"
)

// Output of the original sphere editor's save command.
const legacySave = `[
    {
        "type": "sphere",
        "pos": [0.0, 1.0, -2.0],
        "radius": 0.75,
        "color": [0.2, 0.4, 1.0, 1.0],
        "shininess": 80.0,
        "specular": 0.9
    },
    {
        "type": "sphere",
        "pos": [2.0, 0.0, 0.0],
        "radius": 1.5,
        "color": [1.0, 1.0, 0.0, 0.5]
    }
]`

func TestDecodeLegacyArray(t *testing.T) {
	s, err := Decode([]byte(legacySave), FormatJSON)
	require.NoError(t, err)
	require.Len(t, s.Spheres, 2)

	first := s.Spheres[0]
	assert.Equal(t, math3d.V3(0, 1, -2), first.Center)
	assert.Equal(t, 0.75, first.Radius)
	assert.Equal(t, math3d.V3(0.2, 0.4, 1), first.Material.BaseColor)
	assert.Equal(t, 80.0, first.Material.Shininess)
	assert.Equal(t, math3d.V3(0.9, 0.9, 0.9), first.Material.Specular)

	second := s.Spheres[1]
	assert.Equal(t, defaultShininess, second.Material.Shininess)
	assert.Equal(t, math3d.V3(defaultSpecular, defaultSpecular, defaultSpecular), second.Material.Specular)
	assert.Equal(t, DefaultMaterial().Ambient, second.Material.Ambient)

	// Everything but the objects comes from the reference scene.
	assert.Equal(t, DefaultCamera(), s.Camera)
	assert.Equal(t, DefaultLights(), s.Lights)
	assert.Equal(t, DefaultBackground(), s.Background)
}

func TestDecodeDocument(t *testing.T) {
	data := `{
		"camera": {"eye": [0, 0, -6], "look_at": [0, 0, 0], "fov_y": 45},
		"background": "#000000",
		"lights": [],
		"objects": [{"type": "sphere", "pos": [0, 0, 0], "radius": 2, "color": "#00ff00"}]
	}`
	s, err := Decode([]byte(data), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, math3d.V3(0, 0, -6), s.Camera.Eye)
	assert.Equal(t, math3d.Up(), s.Camera.Up)
	assert.Equal(t, 45.0, s.Camera.FovY)
	assert.Equal(t, math3d.Zero3(), s.Background)
	assert.Empty(t, s.Lights)
	require.Len(t, s.Spheres, 1)
	assert.Equal(t, math3d.V3(0, 1, 0), s.Spheres[0].Material.BaseColor)
}

func TestDecodeYAML(t *testing.T) {
	data := `
background: [0.1, 0.1, 0.1]
lights:
  - pos: [0, 10, 0]
    color: "#ffffff"
objects:
  - type: sphere
    pos: [1, 2, 3]
    radius: 0.5
    color: [1, 0, 0]
    ambient: 0.2
`
	s, err := Decode([]byte(data), FormatYAML)
	require.NoError(t, err)
	require.Len(t, s.Lights, 1)
	assert.Equal(t, math3d.V3(0, 10, 0), s.Lights[0].Position)
	assert.Equal(t, math3d.V3(1, 1, 1), s.Lights[0].Color)
	require.Len(t, s.Spheres, 1)
	assert.Equal(t, math3d.V3(1, 2, 3), s.Spheres[0].Center)
	assert.Equal(t, 0.2, s.Spheres[0].Material.Ambient)
	assert.Equal(t, DefaultCamera(), s.Camera)
}

func TestDecodeYAMLLegacyList(t *testing.T) {
	data := `
- type: sphere
  pos: [0, 0, 0]
  radius: 1
  color: [1, 0, 0, 1]
`
	s, err := Decode([]byte(data), FormatYAML)
	require.NoError(t, err)
	require.Len(t, s.Spheres, 1)
	assert.Len(t, s.Lights, 2)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown type", `[{"type": "cube", "pos": [0,0,0], "radius": 1, "color": [1,1,1]}]`, ErrUnknownKind},
		{"bad radius", `[{"type": "sphere", "pos": [0,0,0], "radius": 0, "color": [1,1,1]}]`, ErrInvalidSphere},
		{"bad camera", `{"camera": {"eye": [0,0,0], "look_at": [0,0,0]}}`, ErrInvalidCamera},
		{"short position", `[{"type": "sphere", "pos": [0,0], "radius": 1, "color": [1,1,1]}]`, nil},
		{"bad color", `[{"type": "sphere", "pos": [0,0,0], "radius": 1, "color": [1]}]`, nil},
		{"bad hex", `[{"type": "sphere", "pos": [0,0,0], "radius": 1, "color": "red"}]`, nil},
		{"not json", `{`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), FormatJSON)
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "Decode() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := Default().WithSpheres([]Sphere{
		UnitSphere(),
		{
			Kind:   KindSphere,
			Center: math3d.V3(-2, 0.5, 1),
			Radius: 0.25,
			Material: Material{
				BaseColor: math3d.V3(0, 0.5, 1),
				Specular:  math3d.V3(0.3, 0.3, 0.3),
				Ambient:   0.05,
				Shininess: 12,
			},
		},
	})
	dir := t.TempDir()
	for _, name := range []string{"scene.json", "scene.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, s))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, s, got)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{"a.json": FormatJSON, "b.YAML": FormatYAML, "c.yml": FormatYAML} {
		got, err := FormatFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatFromPath("scene.toml")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	_, err = Load("scene.txt")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff0000")
	require.NoError(t, err)
	assert.Equal(t, math3d.V3(1, 0, 0), c)
	assert.Equal(t, "#ff0000", Hex(c))
	assert.Equal(t, "#ffffff", Hex(math3d.V3(2, 2, 2)))
	_, err = ParseColor("nope")
	assert.Error(t, err)
}
