package placement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"

	"gallery-engine/catalog"
	"gallery-engine/config"
	"gallery-engine/math"
	"gallery-engine/museum"
	"gallery-engine/raycast"
)

// Side is one of the two long walls.
type Side int

const (
	SideRight Side = iota // +X
	SideLeft              // -X
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Sign is +1 for the right wall and -1 for the left.
func (s Side) Sign() float32 {
	if s == SideLeft {
		return -1
	}
	return 1
}

// Yaw turns a +Z facing frame toward the room centre.
func (s Side) Yaw() float32 {
	return -s.Sign() * math32.Pi / 2
}

// SplitWalls hangs the first half of the catalog (rounded up) on the right
// wall and the rest on the left.
func SplitWalls(arts []catalog.Artwork) (right, left []catalog.Artwork) {
	half := (len(arts) + 1) / 2
	return arts[:half], arts[half:]
}

// ComputeZPositions spaces count slots evenly along a wall of the given
// depth, keeping margin clear at both ends. Slots run from +Z to -Z and are
// symmetric about zero.
func ComputeZPositions(count int, depth, margin float32) []float32 {
	if count <= 0 {
		return nil
	}
	usable := depth - 2*margin
	spacing := usable / float32(count+1)
	start := depth/2 - margin

	zs := make([]float32, count)
	for i := range zs {
		zs[i] = start - float32(i+1)*spacing
	}
	return zs
}

// WallPlacer hangs frames flush against the measured interior wall surface.
type WallPlacer struct {
	room      *museum.Handle
	roomCfg   config.RoomConfig
	wallCfg   config.WallConfig
	halfDepth float32

	guard onceGuard
}

func NewWallPlacer(room *museum.Handle, cfg config.Config) *WallPlacer {
	return &WallPlacer{
		room:      room,
		roomCfg:   cfg.Room,
		wallCfg:   cfg.Wall,
		halfDepth: cfg.Frame.WallDepth / 2,
	}
}

// Place waits for the room and resolves every slot. Later calls return the
// first result.
func (p *WallPlacer) Place(ctx context.Context, arts []catalog.Artwork) ([]Placement, error) {
	return p.guard.do(func() ([]Placement, error) {
		room, err := p.room.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("wall placement: %w", err)
		}
		room.Group.UpdateWorldMatrices()

		right, left := SplitWalls(arts)
		out := make([]Placement, 0, len(arts))
		out = p.placeWall(out, room, SideRight, right)
		out = p.placeWall(out, room, SideLeft, left)
		slog.Info("wall placement done", "right", len(right), "left", len(left))
		return out, nil
	})
}

func (p *WallPlacer) placeWall(out []Placement, room *museum.Room, side Side, arts []catalog.Artwork) []Placement {
	zs := ComputeZPositions(len(arts), p.roomCfg.Depth, p.wallCfg.Margin)
	rot := math.QuaternionFromYaw(side.Yaw())

	for i, art := range arts {
		wallX, ok := p.DetectWall(room, side, zs[i])
		if !ok {
			wallX = side.Sign() * p.roomCfg.Width / 2
			slog.Warn("no wall surface found, using nominal width",
				"artwork", art.ID, "side", side, "z", zs[i])
		}
		out = append(out, Placement{
			ArtworkID: art.ID,
			Artwork:   art,
			Position: math.Vec3{
				X: wallX - side.Sign()*(p.halfDepth+p.wallCfg.Gap),
				Y: p.wallCfg.Y,
				Z: zs[i],
			},
			Rotation: rot,
			Yaw:      side.Yaw(),
			Mode:     config.ModeWall,
			Source:   side.String(),
		})
	}
	return out
}

// DetectWall casts from near the room centre toward side at depth z and
// returns the X of the first surface facing back into the room.
func (p *WallPlacer) DetectWall(room *museum.Room, side Side, z float32) (float32, bool) {
	ray := raycast.Ray{
		Origin:    math.Vec3{X: side.Sign() * p.wallCfg.CenterProbe, Y: p.wallCfg.Y, Z: z},
		Direction: math.Vec3{X: side.Sign()},
	}
	hit, ok := raycast.CastFirst(ray, p.wallCfg.MaxDistance, raycast.FacesAgainst(ray), room.Group)
	if !ok {
		return 0, false
	}
	return hit.Point.X, true
}
