// Package museum measures a loaded room asset and normalizes it into the
// gallery's canonical space: centred on X/Z, floor at Y=0, a fixed width.
package museum

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"

	"gallery-engine/config"
	"gallery-engine/math"
	"gallery-engine/scene"
)

var ErrEmptyRoom = errors.New("room has no measurable geometry")

// minRoomExtent guards the scale division against degenerate boxes.
const minRoomExtent = 1e-4

// RoomTransform maps asset space to gallery space: p' = p*Scale + Offset.
type RoomTransform struct {
	Scale  float32
	Offset math.Vec3
}

func (t RoomTransform) Apply(p math.Vec3) math.Vec3 {
	return p.Mul(t.Scale).Add(t.Offset)
}

// Measurement is the asset-space extent of a room.
type Measurement struct {
	Bounds     math.Box3
	FloorTopY  float32
	FloorFound bool
}

// Room is a normalized room. Group carries the transform and parents the
// asset; it is read-only once published.
type Room struct {
	Group     *scene.Node
	Transform RoomTransform
	Bounds    math.Box3 // gallery-space bounds
	Textures  []*scene.Texture
}

// Measure computes the world bounds of every mesh under root and the top of
// the highest node whose name contains floorKeyword. Without such a node the
// floor is the bottom of the bounds.
func Measure(root *scene.Node, floorKeyword string) Measurement {
	root.UpdateWorldMatrices()

	m := Measurement{Bounds: subtreeBounds(root)}
	m.FloorTopY = m.Bounds.Min.Y

	if floorKeyword == "" {
		return m
	}
	root.Traverse(func(n *scene.Node) {
		if !n.NameContains(floorKeyword) {
			return
		}
		b := subtreeBounds(n)
		if b.IsEmpty() {
			return
		}
		if !m.FloorFound || b.Max.Y > m.FloorTopY {
			m.FloorTopY = b.Max.Y
			m.FloorFound = true
		}
	})
	return m
}

func subtreeBounds(root *scene.Node) math.Box3 {
	b := math.EmptyBox3()
	root.Traverse(func(n *scene.Node) {
		if n.Mesh != nil && !n.Mesh.LocalAABB.IsEmpty() {
			b = b.Union(n.Mesh.LocalAABB.Transform(n.GetWorldMatrix()))
		}
	})
	return b
}

// ComputeTransform derives the uniform scale that makes the room roomWidth
// wide and the offset that centres it with the floor at Y=0.
func ComputeTransform(m Measurement, roomWidth float32) (RoomTransform, error) {
	if m.Bounds.IsEmpty() {
		return RoomTransform{}, ErrEmptyRoom
	}
	width := m.Bounds.Size().X
	if width < minRoomExtent {
		return RoomTransform{}, fmt.Errorf("%w: width %g", ErrEmptyRoom, width)
	}

	scale := roomWidth / width
	if !math.Finite(scale) || scale <= 0 {
		return RoomTransform{}, fmt.Errorf("%w: scale %g", ErrEmptyRoom, scale)
	}

	center := m.Bounds.Center()
	return RoomTransform{
		Scale:  scale,
		Offset: math.Vec3{X: -center.X * scale, Y: -m.FloorTopY * scale, Z: -center.Z * scale},
	}, nil
}

// ClampMaterials keeps room surfaces matte: roughness is raised to at least
// minRoughness, metalness and reflectivity are lowered to at most the limits.
func ClampMaterials(root *scene.Node, cfg config.RoomConfig) {
	seen := make(map[*scene.Material]bool)
	root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil || n.Mesh.Material == nil || seen[n.Mesh.Material] {
			return
		}
		mat := n.Mesh.Material
		seen[mat] = true
		mat.Roughness = math32.Max(mat.Roughness, cfg.MinRoughness)
		mat.Metallic = math32.Min(mat.Metallic, cfg.MaxMetalness)
		mat.Reflectivity = math32.Min(mat.Reflectivity, cfg.MaxReflectivity)
	})
}

// Normalize wraps asset in a group carrying the room transform.
func Normalize(asset *scene.Node, cfg config.RoomConfig) (*Room, error) {
	m := Measure(asset, cfg.FloorKeyword)
	t, err := ComputeTransform(m, cfg.Width)
	if err != nil {
		return nil, err
	}
	if !m.FloorFound {
		slog.Warn("room has no floor node, using bounding box bottom", "keyword", cfg.FloorKeyword)
	}

	ClampMaterials(asset, cfg)

	group := scene.NewNode("Museum")
	group.SetScale(math.Vec3{X: t.Scale, Y: t.Scale, Z: t.Scale})
	group.SetPosition(t.Offset)
	group.AddChild(asset)
	group.UpdateWorldMatrices()

	return &Room{
		Group:     group,
		Transform: t,
		Bounds:    math.Box3{Min: t.Apply(m.Bounds.Min), Max: t.Apply(m.Bounds.Max)},
	}, nil
}

// LoadRoom loads a glTF room asset and normalizes it. Any failure is fatal
// to the mount.
func LoadRoom(path string, cfg config.RoomConfig) (*Room, error) {
	res, err := scene.LoadGLTF(path)
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	room, err := Normalize(res.Group("RoomAsset"), cfg)
	if err != nil {
		return nil, fmt.Errorf("load room %q: %w", path, err)
	}
	room.Textures = res.Textures

	size := room.Bounds.Size()
	slog.Info("room loaded", "path", path, "scale", room.Transform.Scale,
		"width", size.X, "depth", size.Z, "height", size.Y)
	return room, nil
}
