package scene

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"fortio.org/log"
	"github.com/qmuntal/gltf"
	"github.com/taigrr/raysphere/pkg/math3d"
)

// ErrInvalidModel reports a model file whose internal references are broken.
var ErrInvalidModel = errors.New("invalid model")

// GLTFProxyLoader replaces every mesh node of a glTF/GLB file by the sphere
// enclosing its world-space bounding box, so arbitrary models can stand in
// as sphere scenes.
type GLTFProxyLoader struct {
	// Fallback is used for primitives without a material.
	Fallback Material
}

// NewGLTFProxyLoader creates a loader falling back to the default material.
func NewGLTFProxyLoader() *GLTFProxyLoader {
	return &GLTFProxyLoader{Fallback: DefaultMaterial()}
}

// LoadGLTFProxies loads bounding-sphere proxies from a glTF or GLB file.
func LoadGLTFProxies(path string) ([]Sphere, error) {
	return NewGLTFProxyLoader().Load(path)
}

// Load opens path and converts its mesh nodes.
func (l *GLTFProxyLoader) Load(path string) ([]Sphere, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	spheres, err := l.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	log.Infof("Loaded %d sphere proxies from %s", len(spheres), filepath.Base(path))
	return spheres, nil
}

// FromDocument converts the mesh nodes of the active scene (or of every root
// node when the document has no scenes). Out-of-range scene, node or mesh
// references and node cycles fail with ErrInvalidModel.
func (l *GLTFProxyLoader) FromDocument(doc *gltf.Document) ([]Sphere, error) {
	w := nodeWalker{loader: l, doc: doc, onPath: make(map[int]bool)}
	if len(doc.Scenes) > 0 {
		sceneIdx := 0
		if doc.Scene != nil {
			sceneIdx = *doc.Scene
		}
		if sceneIdx < 0 || sceneIdx >= len(doc.Scenes) || doc.Scenes[sceneIdx] == nil {
			return nil, fmt.Errorf("%w: scene %d of %d", ErrInvalidModel, sceneIdx, len(doc.Scenes))
		}
		for _, nodeIdx := range doc.Scenes[sceneIdx].Nodes {
			if err := w.visit(nodeIdx, math3d.Identity()); err != nil {
				return nil, err
			}
		}
		return w.spheres, nil
	}
	isChild := make(map[int]bool)
	for _, n := range doc.Nodes {
		if n == nil {
			continue
		}
		for _, child := range n.Children {
			isChild[child] = true
		}
	}
	roots := 0
	for i := range doc.Nodes {
		if isChild[i] {
			continue
		}
		roots++
		if err := w.visit(i, math3d.Identity()); err != nil {
			return nil, err
		}
	}
	// Every node being somebody's child means the hierarchy is one big cycle.
	if roots == 0 && len(doc.Nodes) > 0 {
		return nil, fmt.Errorf("%w: node hierarchy has no root", ErrInvalidModel)
	}
	return w.spheres, nil
}

// nodeWalker collects proxies depth first, tracking the nodes on the current
// path to detect cycles.
type nodeWalker struct {
	loader  *GLTFProxyLoader
	doc     *gltf.Document
	onPath  map[int]bool
	spheres []Sphere
}

func (w *nodeWalker) visit(nodeIdx int, parent math3d.Mat4) error {
	if nodeIdx < 0 || nodeIdx >= len(w.doc.Nodes) || w.doc.Nodes[nodeIdx] == nil {
		return fmt.Errorf("%w: node %d of %d", ErrInvalidModel, nodeIdx, len(w.doc.Nodes))
	}
	if w.onPath[nodeIdx] {
		return fmt.Errorf("%w: node %d is its own ancestor", ErrInvalidModel, nodeIdx)
	}
	w.onPath[nodeIdx] = true
	defer delete(w.onPath, nodeIdx)

	node := w.doc.Nodes[nodeIdx]
	world := parent.Mul(nodeTransform(node))
	if node.Mesh != nil {
		meshIdx := *node.Mesh
		if meshIdx < 0 || meshIdx >= len(w.doc.Meshes) || w.doc.Meshes[meshIdx] == nil {
			return fmt.Errorf("%w: node %d references mesh %d of %d", ErrInvalidModel, nodeIdx, meshIdx, len(w.doc.Meshes))
		}
		if sp, ok := w.loader.meshProxy(w.doc, w.doc.Meshes[meshIdx], world); ok {
			w.spheres = append(w.spheres, sp)
		} else {
			log.Warnf("glTF node %d (%q) has no position bounds, skipped", nodeIdx, node.Name)
		}
	}
	for _, childIdx := range node.Children {
		if err := w.visit(childIdx, world); err != nil {
			return err
		}
	}
	return nil
}

func nodeTransform(node *gltf.Node) math3d.Mat4 {
	if node.Matrix != [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1} && node.Matrix != [16]float64{} {
		return math3d.Mat4FromSlice(node.Matrix[:])
	}
	local := math3d.Identity()
	if node.Translation != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Translate(math3d.V3(node.Translation[0], node.Translation[1], node.Translation[2])))
	}
	if node.Rotation != [4]float64{0, 0, 0, 1} && node.Rotation != [4]float64{} {
		local = local.Mul(math3d.QuatToMat4(node.Rotation[0], node.Rotation[1], node.Rotation[2], node.Rotation[3]))
	}
	if node.Scale != [3]float64{1, 1, 1} && node.Scale != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Scale(math3d.V3(node.Scale[0], node.Scale[1], node.Scale[2])))
	}
	return local
}

// meshProxy bounds every primitive's POSITION accessor min/max box in world space.
func (l *GLTFProxyLoader) meshProxy(doc *gltf.Document, m *gltf.Mesh, world math3d.Mat4) (Sphere, bool) {
	var b box
	material := l.Fallback
	materialSet := false
	for _, prim := range m.Primitives {
		if prim == nil {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok || posIdx < 0 || posIdx >= len(doc.Accessors) {
			continue
		}
		acc := doc.Accessors[posIdx]
		if acc == nil || len(acc.Min) < 3 || len(acc.Max) < 3 {
			continue
		}
		for _, corner := range boxCorners(
			math3d.V3(acc.Min[0], acc.Min[1], acc.Min[2]),
			math3d.V3(acc.Max[0], acc.Max[1], acc.Max[2]),
		) {
			b.add(world.MulVec3(corner))
		}
		if !materialSet && prim.Material != nil &&
			*prim.Material >= 0 && *prim.Material < len(doc.Materials) && doc.Materials[*prim.Material] != nil {
			material = materialFromGLTF(doc.Materials[*prim.Material], l.Fallback)
			materialSet = true
		}
	}
	return b.sphere(material)
}

func boxCorners(lo, hi math3d.Vec3) [8]math3d.Vec3 {
	return [8]math3d.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
	}
}

// materialFromGLTF maps PBR factors onto the Phong material: smooth surfaces
// get a brighter, tighter highlight, metals tint it with the base colour.
func materialFromGLTF(mat *gltf.Material, fallback Material) Material {
	m := fallback
	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return m
	}
	if pbr.BaseColorFactor != nil {
		m.BaseColor = math3d.V3(
			float64(pbr.BaseColorFactor[0]),
			float64(pbr.BaseColorFactor[1]),
			float64(pbr.BaseColorFactor[2]),
		)
	}
	metallic, roughness := 0.0, 1.0
	if pbr.MetallicFactor != nil {
		metallic = float64(*pbr.MetallicFactor)
	}
	if pbr.RoughnessFactor != nil {
		roughness = float64(*pbr.RoughnessFactor)
	}
	smooth := 1 - math.Max(0, math.Min(1, roughness))
	grey := 0.1 + 0.8*smooth
	m.Specular = math3d.V3(grey, grey, grey).Lerp(m.BaseColor.Scale(grey), metallic)
	m.Shininess = 2 + 98*smooth*smooth
	return m
}
