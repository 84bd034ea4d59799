package scene

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// SaveGLB writes the subtrees rooted at roots to a binary glTF file. Node
// names, local TRS, extras, geometry and base colour factors are kept;
// textures are not embedded.
func SaveGLB(path string, roots ...*Node) error {
	doc := gltf.NewDocument()
	meshIdx := make(map[*Mesh]int)
	matIdx := make(map[*Material]int)

	var addNode func(n *Node) int
	addNode = func(n *Node) int {
		t := n.Transform
		gn := &gltf.Node{
			Name:        n.Name,
			Translation: [3]float64{float64(t.Position.X), float64(t.Position.Y), float64(t.Position.Z)},
			Rotation:    [4]float64{float64(t.Rotation.X), float64(t.Rotation.Y), float64(t.Rotation.Z), float64(t.Rotation.W)},
			Scale:       [3]float64{float64(t.Scale.X), float64(t.Scale.Y), float64(t.Scale.Z)},
		}
		if len(n.Extras) > 0 {
			gn.Extras = n.Extras
		}
		if n.Mesh != nil && len(n.Mesh.Vertices) > 0 {
			idx, ok := meshIdx[n.Mesh]
			if !ok {
				idx = writeMesh(doc, n.Mesh, matIdx)
				meshIdx[n.Mesh] = idx
			}
			gn.Mesh = gltf.Index(idx)
		}
		doc.Nodes = append(doc.Nodes, gn)
		self := len(doc.Nodes) - 1
		for _, c := range n.Children {
			child := addNode(c)
			doc.Nodes[self].Children = append(doc.Nodes[self].Children, child)
		}
		return self
	}

	for _, r := range roots {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, addNode(r))
	}

	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save glb %q: %w", path, err)
	}
	return nil
}

func writeMesh(doc *gltf.Document, m *Mesh, matIdx map[*Material]int) int {
	positions := make([][3]float32, len(m.Vertices))
	normals := make([][3]float32, len(m.Vertices))
	uvs := make([][2]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = [3]float32{v.Position.X, v.Position.Y, v.Position.Z}
		normals[i] = [3]float32{v.Normal.X, v.Normal.Y, v.Normal.Z}
		uvs[i] = [2]float32{v.UV.X, v.UV.Y}
	}

	prim := &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, m.Indices)),
		Attributes: gltf.PrimitiveAttributes{
			gltf.POSITION:   modeler.WritePosition(doc, positions),
			gltf.NORMAL:     modeler.WriteNormal(doc, normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
		},
	}

	if mat := m.Material; mat != nil {
		idx, ok := matIdx[mat]
		if !ok {
			roughness := float64(mat.Roughness)
			metallic := float64(mat.Metallic)
			doc.Materials = append(doc.Materials, &gltf.Material{
				Name: mat.Name,
				PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
					BaseColorFactor: &[4]float64{float64(mat.Albedo.R), float64(mat.Albedo.G), float64(mat.Albedo.B), float64(mat.Albedo.A)},
					RoughnessFactor: &roughness,
					MetallicFactor:  &metallic,
				},
			})
			idx = len(doc.Materials) - 1
			matIdx[mat] = idx
		}
		prim.Material = gltf.Index(idx)
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name:       m.Name,
		Primitives: []*gltf.Primitive{prim},
	})
	return len(doc.Meshes) - 1
}
