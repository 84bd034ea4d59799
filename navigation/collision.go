package navigation

import (
	"github.com/chewxy/math32"

	"gallery-engine/math"
	"gallery-engine/raycast"
)

var down = math.Vec3{Y: -1}

// canMove runs the three movement gates in order: chest ray, waist ray and
// a floor probe under the destination. The rays reach at least as far as
// the step itself so a fast step cannot skip over a thin wall.
func (c *Controller) canMove(dir, dest math.Vec3) bool {
	s := &c.state
	reach := math32.Max(c.cfg.CollisionDistance, dest.Sub(s.Position).Length())
	for _, h := range [...]float32{c.cfg.ChestHeight, c.cfg.WaistHeight} {
		ray := raycast.Ray{
			Origin:    math.Vec3{X: s.Position.X, Y: s.FloorY + h, Z: s.Position.Z},
			Direction: dir,
		}
		if _, hit := raycast.Cast(ray, reach, c.colliders...); hit {
			return false
		}
	}

	lo := s.FloorY - c.cfg.MaxStepDown
	hi := s.FloorY + c.cfg.MaxStepUp
	_, ok := c.floorBelow(dest, lo, hi)
	return ok
}

// trackFloor follows the floor under the visitor, ignoring surfaces outside
// the snap tolerance and limiting the change per step.
func (c *Controller) trackFloor() {
	s := &c.state
	tol := c.cfg.FloorSnapTolerance
	y, ok := c.floorBelow(s.Position, s.FloorY-tol, s.FloorY+tol)
	if !ok {
		return
	}
	step := math.Clamp(y-s.FloorY, -c.cfg.MaxFloorStep, c.cfg.MaxFloorStep)
	s.FloorY += step
}

// floorBelow finds the nearest upward-facing surface under p whose height
// lies in [lo, hi].
func (c *Controller) floorBelow(p math.Vec3, lo, hi float32) (float32, bool) {
	top := math32.Max(c.state.FloorY+c.cfg.ProbeHeight, hi)
	ray := raycast.Ray{Origin: math.Vec3{X: p.X, Y: top, Z: p.Z}, Direction: down}
	facing := raycast.FacesAgainst(ray)

	hit, ok := raycast.CastFirst(ray, top-lo, func(h raycast.Hit) bool {
		return facing(h) && h.Point.Y >= lo && h.Point.Y <= hi
	}, c.colliders...)
	if !ok {
		return 0, false
	}
	return hit.Point.Y, true
}
