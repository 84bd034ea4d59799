package scene

import (
	"strings"
	"sync/atomic"

	"gallery-engine/core"
	"gallery-engine/math"
)

// Node represents an object in the scene graph
type Node struct {
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Visible   bool
	Id        uint32

	// Extras carries per-node auxiliary data from the source asset (glTF extras).
	Extras map[string]any

	// OnInteract is invoked when the visitor activates this node (or a descendant).
	OnInteract func()

	// Cached world transform
	worldMatrixDirty bool
	worldMatrix      math.Mat4
}

var nodeIdCounter atomic.Uint32

func NewNode(name string) *Node {
	return &Node{
		Name:             name,
		Transform:        core.NewTransform(),
		Children:         make([]*Node, 0),
		Visible:          true,
		Id:               nodeIdCounter.Add(1),
		worldMatrixDirty: true,
	}
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	child.MarkWorldMatrixDirty()
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

// RemoveAllChildren detaches every child.
func (n *Node) RemoveAllChildren() {
	for _, c := range n.Children {
		c.Parent = nil
		c.MarkWorldMatrixDirty()
	}
	n.Children = n.Children[:0]
}

// GetWorldMatrix returns local * parentWorld (row-vector order).
func (n *Node) GetWorldMatrix() math.Mat4 {
	if n.worldMatrixDirty {
		localMatrix := n.Transform.GetMatrix()
		if n.Parent != nil {
			n.worldMatrix = localMatrix.Mul(n.Parent.GetWorldMatrix())
		} else {
			n.worldMatrix = localMatrix
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

// UpdateWorldMatrices recomputes every cached world matrix in the subtree.
func (n *Node) UpdateWorldMatrices() {
	n.MarkWorldMatrixDirty()
	n.Traverse(func(node *Node) {
		node.GetWorldMatrix()
	})
}

func (n *Node) WorldPosition() math.Vec3 {
	return n.GetWorldMatrix().Translation()
}

func (n *Node) SetPosition(pos math.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetRotation(rot math.Quaternion) {
	n.Transform.Rotation = rot
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetScale(scale math.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

func (n *Node) Translate(delta math.Vec3) {
	n.Transform.Position = n.Transform.Position.Add(delta)
	n.MarkWorldMatrixDirty()
}

func (n *Node) GetForward() math.Vec3 {
	return n.Transform.GetForward()
}

// IsVisibleInWorld reports whether the node and all its ancestors are visible.
func (n *Node) IsVisibleInWorld() bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if !cur.Visible {
			return false
		}
	}
	return true
}

// Traverse visits all nodes in the graph
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// TraverseVisible visits nodes depth-first, skipping hidden subtrees.
func (n *Node) TraverseVisible(callback func(*Node)) {
	if !n.Visible {
		return
	}
	callback(n)
	for _, child := range n.Children {
		child.TraverseVisible(callback)
	}
}

// Find finds a node by name
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// NameContains reports whether the node name contains substr, ignoring case.
func (n *Node) NameContains(substr string) bool {
	return strings.Contains(strings.ToLower(n.Name), strings.ToLower(substr))
}

// Clone deep-copies the subtree. Meshes are shared; materials are copied so
// the clone can be restyled without touching the source.
func (n *Node) Clone() *Node {
	c := NewNode(n.Name)
	c.Transform = n.Transform
	c.Visible = n.Visible
	c.OnInteract = n.OnInteract
	if n.Extras != nil {
		c.Extras = make(map[string]any, len(n.Extras))
		for k, v := range n.Extras {
			c.Extras[k] = v
		}
	}
	if n.Mesh != nil {
		c.Mesh = n.Mesh.ShallowCopy()
		if n.Mesh.Material != nil {
			c.Mesh.Material = n.Mesh.Material.Clone()
		}
	}
	for _, child := range n.Children {
		c.AddChild(child.Clone())
	}
	return c
}
