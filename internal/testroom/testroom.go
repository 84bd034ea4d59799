// Package testroom builds small box rooms for tests.
package testroom

import (
	"gallery-engine/core"
	"gallery-engine/math"
	"gallery-engine/scene"
)

const WallThickness = 0.2

// Box returns a named cube node scaled to size and centred at center.
func Box(name string, center, size math.Vec3) *scene.Node {
	n := scene.NewNode(name)
	n.Mesh = scene.CreateCube(1)
	n.Mesh.Material = scene.NewMaterial(name, core.ColorWhite)
	n.SetPosition(center)
	n.SetScale(size)
	return n
}

// Build returns a closed room whose interior spans [-w/2,w/2] x [0,h] x [-d/2,d/2].
// The floor slab is named "Floor" and its top sits at Y=0.
func Build(w, d, h float32) *scene.Node {
	t := float32(WallThickness)
	room := scene.NewNode("Room")
	room.AddChild(Box("Floor", math.NewVec3(0, -t/2, 0), math.NewVec3(w+2*t, t, d+2*t)))
	room.AddChild(Box("WallRight", math.NewVec3(w/2+t/2, h/2, 0), math.NewVec3(t, h, d)))
	room.AddChild(Box("WallLeft", math.NewVec3(-w/2-t/2, h/2, 0), math.NewVec3(t, h, d)))
	room.AddChild(Box("WallBack", math.NewVec3(0, h/2, -d/2-t/2), math.NewVec3(w+2*t, h, t)))
	room.AddChild(Box("WallFront", math.NewVec3(0, h/2, d/2+t/2), math.NewVec3(w+2*t, h, t)))
	return room
}

// Anchor returns an empty node at pos rotated by yaw about +Y.
func Anchor(name string, pos math.Vec3, yaw float32) *scene.Node {
	n := scene.NewNode(name)
	n.SetPosition(pos)
	n.SetRotation(math.QuaternionFromYaw(yaw))
	return n
}
