package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/log"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/taigrr/raysphere/pkg/math3d"
	"gopkg.in/yaml.v3"
)

// Format is a scene file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Object defaults used when a scene file omits them.
const (
	defaultShininess = 30.0
	defaultSpecular  = 0.5
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q (use .json, .yaml or .yml)", ErrUnsupportedFormat, ext)
	}
}

// Load reads and validates a scene file.
func Load(path string) (Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Scene{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("read scene: %w", err)
	}
	s, err := Decode(data, format)
	if err != nil {
		return Scene{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	log.LogVf("Loaded scene %s: %d spheres, %d lights", path, len(s.Spheres), len(s.Lights))
	return s, nil
}

// Save writes s to path, encoded according to its extension.
func Save(path string, s Scene) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(s, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}

// Decode parses a scene document. Besides the full document, a bare list of
// objects is accepted; it is combined with the default camera, lights and
// background.
func Decode(data []byte, format Format) (Scene, error) {
	var doc document
	switch format {
	case FormatJSON:
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &doc.Objects); err != nil {
				return Scene{}, fmt.Errorf("parse json: %w", err)
			}
			break
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return Scene{}, fmt.Errorf("parse json: %w", err)
		}
	case FormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return Scene{}, fmt.Errorf("parse yaml: %w", err)
		}
		if len(root.Content) == 0 {
			break
		}
		var err error
		if root.Content[0].Kind == yaml.SequenceNode {
			err = root.Content[0].Decode(&doc.Objects)
		} else {
			err = root.Content[0].Decode(&doc)
		}
		if err != nil {
			return Scene{}, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return Scene{}, ErrUnsupportedFormat
	}
	s, err := doc.scene()
	if err != nil {
		return Scene{}, err
	}
	if err := s.Validate(); err != nil {
		return Scene{}, err
	}
	return s, nil
}

// Encode serializes s as an indented document.
func Encode(s Scene, format Format) ([]byte, error) {
	doc := newDocument(s)
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

type document struct {
	Camera     *cameraDoc  `json:"camera,omitempty" yaml:"camera,omitempty"`
	Background *colorDoc   `json:"background,omitempty" yaml:"background,omitempty"`
	Lights     []lightDoc  `json:"lights" yaml:"lights"`
	Objects    []objectDoc `json:"objects" yaml:"objects"`
}

type cameraDoc struct {
	Eye    vecDoc  `json:"eye" yaml:"eye"`
	LookAt vecDoc  `json:"look_at" yaml:"look_at"`
	Up     vecDoc  `json:"up,omitempty" yaml:"up,omitempty"`
	FovY   float64 `json:"fov_y,omitempty" yaml:"fov_y,omitempty"`
}

type lightDoc struct {
	Pos   vecDoc   `json:"pos" yaml:"pos"`
	Color colorDoc `json:"color" yaml:"color"`
}

// objectDoc keeps the field names of the original sphere save files.
type objectDoc struct {
	Type      string   `json:"type" yaml:"type"`
	Pos       vecDoc   `json:"pos" yaml:"pos"`
	Radius    float64  `json:"radius" yaml:"radius"`
	Color     colorDoc `json:"color" yaml:"color"`
	Shininess *float64 `json:"shininess,omitempty" yaml:"shininess,omitempty"`
	Specular  *float64 `json:"specular,omitempty" yaml:"specular,omitempty"`
	Ambient   *float64 `json:"ambient,omitempty" yaml:"ambient,omitempty"`
}

func (d document) scene() (Scene, error) {
	s := Scene{
		Camera:     DefaultCamera(),
		Lights:     DefaultLights(),
		Background: DefaultBackground(),
	}
	if d.Camera != nil {
		cam, err := d.Camera.camera()
		if err != nil {
			return Scene{}, fmt.Errorf("camera: %w", err)
		}
		s.Camera = cam
	}
	if d.Background != nil {
		s.Background = d.Background.rgb
	}
	// A missing lights key keeps the defaults, an explicit empty list means no lights.
	if d.Lights != nil {
		s.Lights = make([]Light, 0, len(d.Lights))
		for i, l := range d.Lights {
			pos, err := l.Pos.vec3()
			if err != nil {
				return Scene{}, fmt.Errorf("light %d: %w", i, err)
			}
			s.Lights = append(s.Lights, Light{Position: pos, Color: l.Color.rgb})
		}
	}
	for i, o := range d.Objects {
		sp, err := o.sphere()
		if err != nil {
			return Scene{}, fmt.Errorf("object %d: %w", i, err)
		}
		s.Spheres = append(s.Spheres, sp)
	}
	return s, nil
}

func (c cameraDoc) camera() (Camera, error) {
	cam := DefaultCamera()
	var err error
	if cam.Eye, err = c.Eye.vec3(); err != nil {
		return Camera{}, fmt.Errorf("eye: %w", err)
	}
	if cam.LookAt, err = c.LookAt.vec3(); err != nil {
		return Camera{}, fmt.Errorf("look_at: %w", err)
	}
	if c.Up != nil {
		if cam.Up, err = c.Up.vec3(); err != nil {
			return Camera{}, fmt.Errorf("up: %w", err)
		}
	}
	if c.FovY != 0 {
		cam.FovY = c.FovY
	}
	return cam, nil
}

func (o objectDoc) sphere() (Sphere, error) {
	if Kind(o.Type) != KindSphere {
		return Sphere{}, fmt.Errorf("%w: %q", ErrUnknownKind, o.Type)
	}
	center, err := o.Pos.vec3()
	if err != nil {
		return Sphere{}, fmt.Errorf("pos: %w", err)
	}
	m := Material{
		BaseColor: o.Color.rgb,
		Ambient:   DefaultMaterial().Ambient,
		Shininess: defaultShininess,
	}
	spec := defaultSpecular
	if o.Specular != nil {
		spec = *o.Specular
	}
	m.Specular = math3d.V3(spec, spec, spec)
	if o.Shininess != nil {
		m.Shininess = *o.Shininess
	}
	if o.Ambient != nil {
		m.Ambient = *o.Ambient
	}
	return Sphere{Kind: KindSphere, Center: center, Radius: o.Radius, Material: m}, nil
}

func newDocument(s Scene) document {
	doc := document{
		Camera: &cameraDoc{
			Eye:    fromVec3(s.Camera.Eye),
			LookAt: fromVec3(s.Camera.LookAt),
			Up:     fromVec3(s.Camera.Up),
			FovY:   s.Camera.FovY,
		},
		Background: &colorDoc{rgb: s.Background},
		Lights:     make([]lightDoc, 0, len(s.Lights)),
		Objects:    make([]objectDoc, 0, len(s.Spheres)),
	}
	for _, l := range s.Lights {
		doc.Lights = append(doc.Lights, lightDoc{Pos: fromVec3(l.Position), Color: colorDoc{rgb: l.Color}})
	}
	for _, sp := range s.Spheres {
		m := sp.Material
		// The file format carries a scalar specular; grey specular colours survive exactly.
		spec := m.Specular.X
		if m.Specular.Y != spec || m.Specular.Z != spec {
			spec = (m.Specular.X + m.Specular.Y + m.Specular.Z) / 3
		}
		shininess, ambient := m.Shininess, m.Ambient
		doc.Objects = append(doc.Objects, objectDoc{
			Type:      string(sp.Kind),
			Pos:       fromVec3(sp.Center),
			Radius:    sp.Radius,
			Color:     colorDoc{rgb: m.BaseColor},
			Shininess: &shininess,
			Specular:  &spec,
			Ambient:   &ambient,
		})
	}
	return doc
}

// vecDoc is an [x, y, z] triple.
type vecDoc []float64

func fromVec3(v math3d.Vec3) vecDoc {
	return vecDoc{v.X, v.Y, v.Z}
}

func (v vecDoc) vec3() (math3d.Vec3, error) {
	if len(v) != 3 {
		return math3d.Vec3{}, fmt.Errorf("want 3 components, got %d", len(v))
	}
	return math3d.V3(v[0], v[1], v[2]), nil
}

var errBadColor = errors.New("color must be [r, g, b], [r, g, b, a] or \"#rrggbb\"")

// colorDoc accepts [r, g, b], [r, g, b, a] (alpha ignored) or a hex string,
// and is written back as [r, g, b, 1] like the original save files.
type colorDoc struct {
	rgb math3d.Vec3
}

// ParseColor parses a "#rrggbb" hex colour into channels in [0, 1].
func ParseColor(s string) (math3d.Vec3, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return math3d.Vec3{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return math3d.V3(c.R, c.G, c.B), nil
}

// Hex formats a colour with channels in [0, 1] as "#rrggbb".
func Hex(c math3d.Vec3) string {
	c = c.Clamp01()
	return colorful.Color{R: c.X, G: c.Y, B: c.Z}.Hex()
}

func (c *colorDoc) fromComponents(v []float64) error {
	if len(v) != 3 && len(v) != 4 {
		return errBadColor
	}
	c.rgb = math3d.V3(v[0], v[1], v[2])
	return nil
}

func (c colorDoc) components() []float64 {
	return []float64{c.rgb.X, c.rgb.Y, c.rgb.Z, 1}
}

func (c *colorDoc) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		rgb, err := ParseColor(s)
		if err != nil {
			return err
		}
		c.rgb = rgb
		return nil
	}
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return errBadColor
	}
	return c.fromComponents(v)
}

func (c colorDoc) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.components())
}

func (c *colorDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		rgb, err := ParseColor(node.Value)
		if err != nil {
			return err
		}
		c.rgb = rgb
		return nil
	}
	var v []float64
	if err := node.Decode(&v); err != nil {
		return errBadColor
	}
	return c.fromComponents(v)
}

func (c colorDoc) MarshalYAML() (any, error) {
	return c.components(), nil
}
