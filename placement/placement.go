// Package placement resolves the world pose of every artwork frame, either
// flush against the room's long walls or on anchor nodes authored into the
// room asset.
package placement

import (
	"context"
	"sync"

	"gallery-engine/catalog"
	"gallery-engine/math"
)

// Placement is the resolved pose of one artwork's frame group. The frame is
// centred on Position and its front faces Rotation * +Z.
type Placement struct {
	ArtworkID string
	Artwork   catalog.Artwork
	Position  math.Vec3
	Rotation  math.Quaternion
	Yaw       float32
	// Mode is config.ModeWall or config.ModeAnchor.
	Mode string
	// Source is the wall side or the anchor name.
	Source string
}

// Placer computes placements for a catalog once per mount.
type Placer interface {
	Place(ctx context.Context, arts []catalog.Artwork) ([]Placement, error)
}

// onceGuard runs a placement pass at most once and replays its result.
type onceGuard struct {
	once sync.Once
	out  []Placement
	err  error
}

func (g *onceGuard) do(fn func() ([]Placement, error)) ([]Placement, error) {
	g.once.Do(func() {
		g.out, g.err = fn()
	})
	return g.out, g.err
}
