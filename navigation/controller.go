// Package navigation drives the first-person visitor camera: drag to look,
// keys and wheel to move, and ray-cast gates that keep the visitor inside
// the walls and on the floor.
package navigation

import (
	"github.com/chewxy/math32"

	"gallery-engine/config"
	"gallery-engine/core"
	"gallery-engine/math"
	"gallery-engine/raycast"
	"gallery-engine/scene"
)

// State is the controller's mutable navigation state.
type State struct {
	// Position is the eye position.
	Position      math.Vec3
	Yaw           float32
	Pitch         float32
	FloorY        float32
	ActiveKeys    map[int]bool
	Dragging      bool
	ScrollImpulse float32
	// Tracking is set by the first movement input; until then the floor
	// height stays where the spawn put it.
	Tracking bool
}

// Controller owns the navigation state and the camera it drives. It is not
// safe for concurrent use; call it from the render loop.
type Controller struct {
	cfg    config.NavigationConfig
	camera *scene.Camera
	state  State

	colliders []*scene.Node

	cursorX, cursorY float64
	pressX, pressY   float64
	lookDX, lookDY   float64

	viewportW, viewportH float32
}

func NewController(camera *scene.Camera, cfg config.NavigationConfig, colliders ...*scene.Node) *Controller {
	c := &Controller{
		cfg:       cfg,
		camera:    camera,
		colliders: colliders,
		state:     State{ActiveKeys: make(map[int]bool)},
	}
	spawn := math.Vec3{X: cfg.Spawn[0], Y: cfg.Spawn[1], Z: cfg.Spawn[2]}
	c.Teleport(spawn, math.Radians(cfg.SpawnYawDeg))
	return c
}

// SetColliders replaces the geometry the controller casts against.
func (c *Controller) SetColliders(roots ...*scene.Node) {
	c.colliders = roots
}

// SetViewport sets the framebuffer size used for click picking.
func (c *Controller) SetViewport(width, height int) {
	c.viewportW, c.viewportH = float32(width), float32(height)
}

// State returns a copy of the navigation state.
func (c *Controller) State() State {
	s := c.state
	s.ActiveKeys = make(map[int]bool, len(c.state.ActiveKeys))
	for k, v := range c.state.ActiveKeys {
		s.ActiveKeys[k] = v
	}
	return s
}

// Teleport stands the visitor at feet facing yaw and stops floor tracking
// until the next movement input.
func (c *Controller) Teleport(feet math.Vec3, yaw float32) {
	s := &c.state
	s.FloorY = feet.Y
	s.Position = math.Vec3{X: feet.X, Y: feet.Y + c.cfg.EyeHeight, Z: feet.Z}
	s.Yaw = yaw
	s.Pitch = 0
	s.ScrollImpulse = 0
	s.Tracking = false
	c.syncCamera()
}

// Step advances the simulation by dt seconds, capped at MaxStep.
func (c *Controller) Step(dt float32) {
	if !math.Finite(dt) || dt <= 0 {
		return
	}
	dt = math32.Min(dt, c.cfg.MaxStep)
	s := &c.state

	c.applyLook()

	vel := c.velocity()
	s.ScrollImpulse *= math32.Exp(-c.cfg.ImpulseDecay * dt)
	if math32.Abs(s.ScrollImpulse) < 1e-3 {
		s.ScrollImpulse = 0
	}

	if vel.LengthSqr() > 0 {
		dest := s.Position.Add(vel.Mul(dt))
		if c.canMove(vel.Normalize(), dest) {
			s.Position.X, s.Position.Z = dest.X, dest.Z
		}
	}

	if s.Tracking {
		c.trackFloor()
	}
	s.Position.Y = s.FloorY + c.cfg.EyeHeight
	c.syncCamera()
}

func (c *Controller) applyLook() {
	if c.lookDX == 0 && c.lookDY == 0 {
		return
	}
	s := &c.state
	sens := c.cfg.LookSensitivity
	s.Yaw -= float32(c.lookDX) * sens
	s.Pitch -= float32(c.lookDY) * sens
	limit := math.Radians(c.cfg.PitchLimitDeg)
	s.Pitch = math.Clamp(s.Pitch, -limit, limit)
	if s.Yaw > math32.Pi {
		s.Yaw -= 2 * math32.Pi
	} else if s.Yaw < -math32.Pi {
		s.Yaw += 2 * math32.Pi
	}
	c.lookDX, c.lookDY = 0, 0
}

// velocity is the horizontal velocity from the held keys at MoveSpeed plus
// the wheel impulse along the heading.
func (c *Controller) velocity() math.Vec3 {
	s := &c.state
	forward := math.Vec3{X: -math32.Sin(s.Yaw), Z: -math32.Cos(s.Yaw)}
	right := math.Vec3{X: math32.Cos(s.Yaw), Z: -math32.Sin(s.Yaw)}

	var move math.Vec3
	for key := range s.ActiveKeys {
		switch key {
		case core.KeyW, core.KeyUp:
			move = move.Add(forward)
		case core.KeyS, core.KeyDown:
			move = move.Sub(forward)
		case core.KeyD, core.KeyRight:
			move = move.Add(right)
		case core.KeyA, core.KeyLeft:
			move = move.Sub(right)
		}
	}
	if move.LengthSqr() > 1e-6 {
		move = move.Normalize().Mul(c.cfg.MoveSpeed)
	} else {
		move = math.Vec3Zero
	}
	return move.Add(forward.Mul(s.ScrollImpulse))
}

func (c *Controller) syncCamera() {
	if c.camera == nil {
		return
	}
	c.camera.Position = c.state.Position
	c.camera.Yaw = c.state.Yaw
	c.camera.Pitch = c.state.Pitch
}

// Interact casts along the view direction and fires the callback of the
// hit node or its nearest ancestor that has one. The direction comes from
// the navigation state, so a controller without a camera still works.
func (c *Controller) Interact() bool {
	view := scene.Camera{Yaw: c.state.Yaw, Pitch: c.state.Pitch}
	return c.interactAlong(raycast.Ray{
		Origin:    c.state.Position,
		Direction: view.GetForward(),
	})
}

// Click picks through the cursor position.
func (c *Controller) Click(x, y float64) bool {
	if c.camera == nil || c.viewportW <= 0 || c.viewportH <= 0 {
		return false
	}
	return c.interactAlong(raycast.ScreenToRay(float32(x), float32(y), c.viewportW, c.viewportH, c.camera))
}

func (c *Controller) interactAlong(ray raycast.Ray) bool {
	hit, ok := raycast.Cast(ray, c.cfg.InteractDistance, c.colliders...)
	if !ok {
		return false
	}
	for n := hit.Node; n != nil; n = n.Parent {
		if n.OnInteract != nil {
			n.OnInteract()
			return true
		}
	}
	return false
}
