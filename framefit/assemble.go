package framefit

import (
	"gallery-engine/config"
	"gallery-engine/core"
	"gallery-engine/math"
	"gallery-engine/scene"
)

// Framed is one assembled artwork: Group is posed by placement, Image holds
// the artwork plane whose material receives the texture.
type Framed struct {
	Group *scene.Node
	Image *scene.Node
}

// Assemble builds a frame group centred on its origin: a clone of the asset
// stretched by fit.FrameScale and the image plane at fit.ImageZ.
func (f *FrameAsset) Assemble(name string, fit Fit, image *scene.Material) Framed {
	meta, _, _ := f.Metadata()

	group := scene.NewNode(name)

	frame := f.Root.Clone()
	frame.Transform = core.NewTransform()
	holder := scene.NewNode(name + "/frame")
	holder.SetScale(fit.FrameScale)
	holder.SetPosition(meta.Center.MulVec(fit.FrameScale).Negate())
	holder.AddChild(frame)
	group.AddChild(holder)

	plane := scene.NewNode(name + "/image")
	plane.Mesh = scene.CreateQuad()
	plane.Mesh.Material = image
	plane.SetScale(math.Vec3{X: fit.ImageWidth, Y: fit.ImageHeight, Z: 1})
	plane.SetPosition(math.Vec3{Z: fit.ImageZ})
	group.AddChild(plane)

	return Framed{Group: group, Image: plane}
}

// frameWood is the default frame colour.
var frameWood = core.Color{R: 0.22, G: 0.15, B: 0.09, A: 1}

// NewDefaultFrame returns a plain unit frame: a 1 x 1 ring, 0.1 deep, with a
// 0.1 border, used when no frame asset is configured.
func NewDefaultFrame(cfg config.FrameConfig) *FrameAsset {
	const border, depth = 0.1, 0.1
	root := scene.NewNode("DefaultFrame")
	mat := scene.NewMaterial("frame", frameWood)
	mat.Roughness = 0.7

	bar := func(name string, center, size math.Vec3) {
		n := scene.NewNode(name)
		n.Mesh = scene.CreateCube(1)
		n.Mesh.Material = mat
		n.SetPosition(center)
		n.SetScale(size)
		root.AddChild(n)
	}
	bar("top", math.Vec3{Y: 0.5 - border/2}, math.Vec3{X: 1, Y: border, Z: depth})
	bar("bottom", math.Vec3{Y: -0.5 + border/2}, math.Vec3{X: 1, Y: border, Z: depth})
	bar("left", math.Vec3{X: -0.5 + border/2}, math.Vec3{X: border, Y: 1 - 2*border, Z: depth})
	bar("right", math.Vec3{X: 0.5 - border/2}, math.Vec3{X: border, Y: 1 - 2*border, Z: depth})

	return NewFrameAsset(root, cfg)
}
