package scene

import (
	"gallery-engine/core"
	"gallery-engine/math"
)

// Scene manages a collection of nodes and the active camera
type Scene struct {
	Root     *Node
	Camera   *Camera
	Sun      DirectionalLight
	Ambient  core.Color
	SkyColor core.Color
}

// DirectionalLight is the single key light used for the room.
type DirectionalLight struct {
	Direction math.Vec3
	Color     core.Color
	Intensity float32
}

func NewScene() *Scene {
	return &Scene{
		Root: NewNode("Root"),
		Sun: DirectionalLight{
			Direction: math.Vec3{X: 0.3, Y: -1, Z: -0.4}.Normalize(),
			Color:     core.ColorWhite,
			Intensity: 0.7,
		},
		Ambient:  core.Color{R: 0.45, G: 0.45, B: 0.45, A: 1.0},
		SkyColor: core.Color{R: 0.08, G: 0.08, B: 0.09, A: 1.0},
	}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
}

// GetVisibleNodes returns all nodes with meshes whose whole ancestry is visible.
func (s *Scene) GetVisibleNodes() []*Node {
	var visible []*Node

	s.Root.TraverseVisible(func(node *Node) {
		if node.Mesh != nil {
			visible = append(visible, node)
		}
	})

	return visible
}
