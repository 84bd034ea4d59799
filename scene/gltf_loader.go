package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"gallery-engine/core"
	"gallery-engine/math"
)

// GLTFResult holds the nodes and textures loaded from a .glb / .gltf file.
// Before the first Render call, upload every texture in the Textures slice.
type GLTFResult struct {
	Roots    []*Node    // top-level nodes
	Textures []*Texture // textures that need GPU upload
}

// Group parents every root under a single new node.
func (r *GLTFResult) Group(name string) *Node {
	group := NewNode(name)
	for _, root := range r.Roots {
		group.AddChild(root)
	}
	return group
}

// LoadGLTF opens a .glb or .gltf file and returns its scene graph.
// Mesh geometry, metallic-roughness materials, base-colour textures, node
// extras and the node hierarchy are populated.
func LoadGLTF(path string) (*GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	result, err := buildGLTF(doc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("gltf %q: %w", path, err)
	}
	return result, nil
}

func buildGLTF(doc *gltf.Document, dir string) (*GLTFResult, error) {
	result := &GLTFResult{}

	// ── 1. Textures ───────────────────────────────────────────────────────────
	texCache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		tex, err := loadGLTFImage(doc, *gt.Source, dir)
		if err != nil {
			slog.Warn("gltf: skipping image", "image", *gt.Source, "err", err)
			continue
		}
		if tex != nil {
			texCache[i] = tex
			result.Textures = append(result.Textures, tex)
		}
	}

	// ── 2. Materials ─────────────────────────────────────────────────────────
	matCache := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Albedo = core.Color{
				R: float32(cf[0]), G: float32(cf[1]),
				B: float32(cf[2]), A: float32(cf[3]),
			}
			if pbr.BaseColorTexture != nil {
				idx := pbr.BaseColorTexture.Index
				if idx < len(texCache) && texCache[idx] != nil {
					mat.AlbedoTexture = texCache[idx]
				}
			}
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
			mat.Metallic = float32(pbr.MetallicFactorOrDefault())
			mat.Reflectivity = 1 - mat.Roughness
		}
		matCache[i] = mat
	}

	// ── 3. Mesh primitives ────────────────────────────────────────────────────
	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			m, err := loadGLTFPrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				slog.Warn("gltf: skipping primitive", "mesh", mi, "primitive", pi, "err", err)
				continue
			}
			if prim.Material != nil && *prim.Material < len(matCache) {
				m.Material = matCache[*prim.Material]
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	// ── 4. Nodes ──────────────────────────────────────────────────────────────
	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)
		n.Transform = nodeTransform(gn)
		n.Extras = nodeExtras(gn.Extras)

		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			prims := meshPrims[*gn.Mesh]
			switch len(prims) {
			case 0:
			case 1:
				n.Mesh = prims[0]
			default:
				// Multiple primitives: one child node per primitive
				for pi, p := range prims {
					child := NewNode(fmt.Sprintf("%s_prim%d", name, pi))
					child.Mesh = p
					n.AddChild(child)
				}
			}
		}
		nodes[i] = n
	}

	for i, gn := range doc.Nodes {
		for _, childIdx := range gn.Children {
			if childIdx < len(nodes) && childIdx != i {
				nodes[i].AddChild(nodes[childIdx])
			}
		}
	}

	// ── 5. Root nodes ─────────────────────────────────────────────────────────
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, rootIdx := range doc.Scenes[*doc.Scene].Nodes {
			if rootIdx < len(nodes) {
				result.Roots = append(result.Roots, nodes[rootIdx])
			}
		}
	} else {
		for _, n := range nodes {
			if n.Parent == nil {
				result.Roots = append(result.Roots, n)
			}
		}
	}

	return result, nil
}

// nodeTransform reads TRS, or decomposes the node matrix when one is set.
func nodeTransform(gn *gltf.Node) core.Transform {
	t := core.NewTransform()

	if mat := gn.MatrixOrDefault(); mat != gltf.DefaultMatrix {
		// glTF stores column-major M*v; the transpose is our row-vector layout.
		var m math.Mat4
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				m[i][j] = float32(mat[i*4+j])
			}
		}
		t.Position, t.Rotation, t.Scale = m.Decompose()
		return t
	}

	p := gn.TranslationOrDefault()
	t.Position = math.Vec3{X: float32(p[0]), Y: float32(p[1]), Z: float32(p[2])}

	sc := gn.ScaleOrDefault()
	t.Scale = math.Vec3{X: float32(sc[0]), Y: float32(sc[1]), Z: float32(sc[2])}

	r := gn.RotationOrDefault() // [x, y, z, w]
	t.Rotation = math.Quaternion{
		X: float32(r[0]), Y: float32(r[1]),
		Z: float32(r[2]), W: float32(r[3]),
	}.Normalize()
	return t
}

func nodeExtras(extras any) map[string]any {
	if m, ok := extras.(map[string]any); ok && len(m) > 0 {
		return m
	}
	return nil
}

// loadGLTFPrimitive converts one glTF mesh primitive into a scene.Mesh.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: math.Vec3{X: p[0], Y: p[1], Z: p[2]},
			Normal:   math.Vec3Up,
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			n := normals[i]
			v.Normal = math.Vec3{X: n[0], Y: n[1], Z: n[2]}
		}
		if i < len(uvs) {
			v.UV = math.Vec2{X: uvs[i][0], Y: uvs[i][1]}
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	return CreateMeshFromData(name, verts, indices), nil
}

func loadGLTFImage(doc *gltf.Document, source int, dir string) (*Texture, error) {
	img := doc.Images[source]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", source)
	}

	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("bufferview: %w", err)
		}
		return decodeImageBytes(name, raw)
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("embedded: %w", err)
		}
		return decodeImageBytes(name, raw)
	case img.URI != "":
		raw, err := os.ReadFile(filepath.Join(dir, img.URI))
		if err != nil {
			return nil, err
		}
		return decodeImageBytes(name, raw)
	}
	return nil, nil
}

// decodeImageBytes decodes an image byte slice into an RGBA8 Texture.
func decodeImageBytes(name string, data []byte) (*Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return NewTextureFromImage(name, img), nil
}
