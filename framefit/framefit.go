// Package framefit sizes a frame asset and the artwork image inside it.
//
// Frame assets are authored facing +Z: width along X, height along Y and
// depth along Z, with the back face at minimum Z.
package framefit

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chewxy/math32"

	"gallery-engine/config"
	"gallery-engine/math"
	"gallery-engine/scene"
)

var ErrNoGeometry = errors.New("frame asset has no geometry")

// Metadata is the frame asset's native extent.
type Metadata struct {
	NativeWidth  float32
	NativeHeight float32
	NativeDepth  float32
	Center       math.Vec3
}

// Opening is the inner rectangle of the frame in native units. Measured is
// false when the size is the configured fallback fraction of the outer size.
type Opening struct {
	Width    float32
	Height   float32
	Measured bool
}

// FrameAsset is a loaded frame model. Its metadata is measured once.
type FrameAsset struct {
	Root *scene.Node
	cfg  config.FrameConfig

	once    sync.Once
	meta    Metadata
	opening Opening
	err     error
}

func NewFrameAsset(root *scene.Node, cfg config.FrameConfig) *FrameAsset {
	return &FrameAsset{Root: root, cfg: cfg}
}

// LoadFrameAsset reads a glTF frame model.
func LoadFrameAsset(path string, cfg config.FrameConfig) (*FrameAsset, error) {
	res, err := scene.LoadGLTF(path)
	if err != nil {
		return nil, fmt.Errorf("load frame: %w", err)
	}
	f := NewFrameAsset(res.Group("FrameAsset"), cfg)
	if _, _, err := f.Metadata(); err != nil {
		return nil, fmt.Errorf("load frame %q: %w", path, err)
	}
	return f, nil
}

// Metadata returns the memoized native extent and opening.
func (f *FrameAsset) Metadata() (Metadata, Opening, error) {
	f.once.Do(func() {
		f.meta, f.opening, f.err = measure(f.Root, f.cfg)
	})
	return f.meta, f.opening, f.err
}

func measure(root *scene.Node, cfg config.FrameConfig) (Metadata, Opening, error) {
	root.UpdateWorldMatrices()
	toRoot := root.GetWorldMatrix().Inverse()

	var verts []math.Vec3
	bounds := math.EmptyBox3()
	root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil {
			return
		}
		rel := n.GetWorldMatrix().Mul(toRoot)
		for _, v := range n.Mesh.Vertices {
			p := rel.MulVec3(v.Position)
			verts = append(verts, p)
			bounds = bounds.Expand(p)
		}
	})
	if bounds.IsEmpty() {
		return Metadata{}, Opening{}, ErrNoGeometry
	}

	size := bounds.Size()
	meta := Metadata{
		NativeWidth:  math32.Max(size.X, cfg.MinDimension),
		NativeHeight: math32.Max(size.Y, cfg.MinDimension),
		NativeDepth:  math32.Max(size.Z, cfg.MinDimension),
		Center:       bounds.Center(),
	}
	return meta, measureOpening(verts, bounds, meta, cfg), nil
}

// measureOpening scans the back-face vertices. Those on the outer boundary
// are dropped; the rest outline the opening.
func measureOpening(verts []math.Vec3, bounds math.Box3, meta Metadata, cfg config.FrameConfig) Opening {
	halfW := (bounds.Max.X - bounds.Min.X) / 2
	halfH := (bounds.Max.Y - bounds.Min.Y) / 2
	backZ := bounds.Min.Z + cfg.BackFaceTolerance*(bounds.Max.Z-bounds.Min.Z)
	eps := 1e-3*math32.Max(halfW, halfH) + 1e-6
	c := meta.Center

	var openHalfW, openHalfH float32
	found := false
	for _, p := range verts {
		if p.Z > backZ {
			continue
		}
		dx := math32.Abs(p.X - c.X)
		dy := math32.Abs(p.Y - c.Y)
		if dx >= halfW-eps || dy >= halfH-eps {
			continue
		}
		openHalfW = math32.Max(openHalfW, dx)
		openHalfH = math32.Max(openHalfH, dy)
		found = true
	}

	if !found || openHalfW*2 < cfg.MinDimension || openHalfH*2 < cfg.MinDimension {
		return Opening{
			Width:  meta.NativeWidth * cfg.OpeningFallback,
			Height: meta.NativeHeight * cfg.OpeningFallback,
		}
	}
	return Opening{Width: openHalfW * 2, Height: openHalfH * 2, Measured: true}
}
