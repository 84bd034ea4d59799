package navigation

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery-engine/config"
	"gallery-engine/core"
	"gallery-engine/internal/testroom"
	"gallery-engine/math"
	"gallery-engine/scene"
)

const tol = 1e-3

func testConfig() config.NavigationConfig {
	cfg := config.Default().Navigation
	cfg.Spawn = [3]float32{0.37, 0, 1.13}
	return cfg
}

func bigFloor() *scene.Node {
	return testroom.Box("Floor", math.NewVec3(0, -0.1, 0), math.NewVec3(10, 0.2, 10))
}

func newController(cfg config.NavigationConfig, colliders ...*scene.Node) (*Controller, *scene.Camera) {
	cam := scene.NewCamera(math.Radians(60), 4.0/3.0, 0.05, 100)
	return NewController(cam, cfg, colliders...), cam
}

func assertVec3(t *testing.T, expected, actual math.Vec3) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, tol, "X")
	assert.InDelta(t, expected.Y, actual.Y, tol, "Y")
	assert.InDelta(t, expected.Z, actual.Z, tol, "Z")
}

func press(c *Controller, key int) {
	c.HandleEvent(Event{Kind: KeyDown, Key: key})
}

func TestSpawnPose(t *testing.T) {
	cfg := testConfig()
	c, cam := newController(cfg, bigFloor())

	s := c.State()
	assert.Equal(t, math.NewVec3(0.37, cfg.EyeHeight, 1.13), s.Position)
	assert.Equal(t, s.Position, cam.Position)
	assert.False(t, s.Tracking)
}

func TestWalkForward(t *testing.T) {
	cfg := testConfig()
	c, _ := newController(cfg, bigFloor())

	press(c, core.KeyW)
	c.Step(0.05)
	assert.InDelta(t, 1.13-cfg.MoveSpeed*0.05, c.State().Position.Z, tol)

	// long frames are capped
	c.Step(1)
	assert.InDelta(t, 1.13-2*cfg.MoveSpeed*cfg.MaxStep, c.State().Position.Z, tol)
	assert.InDelta(t, 0.37, c.State().Position.X, tol)
}

func TestDiagonalMoveIsNormalized(t *testing.T) {
	cfg := testConfig()
	c, _ := newController(cfg, bigFloor())

	press(c, core.KeyW)
	press(c, core.KeyD)
	c.Step(0.05)

	moved := c.State().Position.Sub(math.NewVec3(0.37, cfg.EyeHeight, 1.13))
	assert.InDelta(t, cfg.MoveSpeed*0.05, moved.Length(), tol)
}

func TestWallAheadBlocksMovement(t *testing.T) {
	cfg := testConfig()
	// face at z = 0.83, 0.3 ahead of the visitor
	wall := testroom.Box("Wall", math.NewVec3(0.1, 1, 0.33), math.NewVec3(2, 2, 1))
	c, _ := newController(cfg, bigFloor(), wall)
	before := c.State().Position

	press(c, core.KeyW)
	c.HandleEvent(Event{Kind: Wheel, Delta: 10})
	for i := 0; i < 3; i++ {
		c.Step(0.05)
	}
	assertVec3(t, before, c.State().Position)

	c.HandleEvent(Event{Kind: KeyUp, Key: core.KeyW})
	c.HandleEvent(Event{Kind: Wheel, Delta: -20})
	press(c, core.KeyS)
	c.Step(0.05)
	assert.Greater(t, c.State().Position.Z, before.Z, "moving away is allowed")
}

func TestFastStepCannotPassThinWall(t *testing.T) {
	cfg := testConfig()
	cfg.MoveSpeed = 100
	// 0.2 thick, its near face 1.9 ahead: far beyond the collision distance
	// but well inside one capped step
	wall := testroom.Box("Wall", math.NewVec3(0.1, 1, -0.87), math.NewVec3(4, 2, 0.2))
	c, _ := newController(cfg, bigFloor(), wall)
	before := c.State().Position

	press(c, core.KeyW)
	for i := 0; i < 3; i++ {
		c.Step(0.05)
	}
	assertVec3(t, before, c.State().Position)
}

func TestLowObstacleBlocksMovement(t *testing.T) {
	cfg := testConfig()
	// knee-high bench below chest height
	bench := testroom.Box("Bench", math.NewVec3(0.1, 0.35, 0.73), math.NewVec3(2, 0.7, 0.2))
	c, _ := newController(cfg, bigFloor(), bench)
	before := c.State().Position

	press(c, core.KeyW)
	c.Step(0.05)
	assertVec3(t, before, c.State().Position)
}

func TestNoFloorBlocksMovement(t *testing.T) {
	cfg := testConfig()
	// the floor ends at z = 1, just ahead of the visitor
	ledge := testroom.Box("Floor", math.NewVec3(0, -0.1, 3), math.NewVec3(4, 0.2, 4))
	c, _ := newController(cfg, ledge)
	before := c.State().Position

	press(c, core.KeyW)
	c.Step(0.05)
	assertVec3(t, before, c.State().Position)

	c.HandleEvent(Event{Kind: KeyUp, Key: core.KeyW})
	press(c, core.KeyS)
	c.Step(0.05)
	assert.InDelta(t, before.Z+cfg.MoveSpeed*0.05, c.State().Position.Z, tol)
}

func plinth() *scene.Node {
	return testroom.Box("Plinth", math.NewVec3(0, 0.9, 0), math.NewVec3(2, 1.8, 2))
}

func TestFloorChangeIsBoundedPerStep(t *testing.T) {
	cfg := testConfig()
	cfg.FloorSnapTolerance = 5
	c, cam := newController(cfg, plinth())
	c.Teleport(math.NewVec3(0.37, 0, 0.13), 0)

	press(c, core.KeyW)
	c.HandleEvent(Event{Kind: KeyUp, Key: core.KeyW})

	c.Step(0.05)
	assert.InDelta(t, cfg.MaxFloorStep, c.State().FloorY, tol)
	assert.InDelta(t, cfg.MaxFloorStep+cfg.EyeHeight, cam.Position.Y, tol)

	c.Step(0.05)
	assert.InDelta(t, 1.8, c.State().FloorY, tol)
	c.Step(0.05)
	assert.InDelta(t, 1.8, c.State().FloorY, tol)
}

func TestFloorTrackingIgnoresDistantSurfaces(t *testing.T) {
	c, _ := newController(testConfig(), plinth())
	c.Teleport(math.NewVec3(0.37, 0, 0.13), 0)

	press(c, core.KeyA)
	c.HandleEvent(Event{Kind: KeyUp, Key: core.KeyA})
	c.Step(0.05)
	assert.Zero(t, c.State().FloorY)
}

func TestFloorTrackingWaitsForInput(t *testing.T) {
	cfg := testConfig()
	cfg.FloorSnapTolerance = 5
	c, _ := newController(cfg, plinth())
	c.Teleport(math.NewVec3(0.37, 0, 0.13), 0)

	c.Step(0.05)
	assert.Zero(t, c.State().FloorY)
}

func TestDragLook(t *testing.T) {
	cfg := testConfig()
	c, cam := newController(cfg, bigFloor())

	c.HandleEvent(Event{Kind: PointerMove, X: 10, Y: 10})
	c.Step(0.05)
	assert.Zero(t, c.State().Yaw, "moves without a drag are ignored")

	c.HandleEvent(Event{Kind: PointerDown, X: 100, Y: 100})
	c.HandleEvent(Event{Kind: PointerMove, X: 200, Y: 150})
	c.Step(0.05)
	assert.InDelta(t, -100*cfg.LookSensitivity, cam.Yaw, tol)
	assert.InDelta(t, -50*cfg.LookSensitivity, cam.Pitch, tol)

	c.HandleEvent(Event{Kind: PointerMove, X: 200, Y: 100000})
	c.Step(0.05)
	assert.InDelta(t, -math.Radians(cfg.PitchLimitDeg), c.State().Pitch, tol)

	c.HandleEvent(Event{Kind: PointerUp, X: 200, Y: 100000})
	assert.False(t, c.State().Dragging)
}

func TestScrollImpulseDecays(t *testing.T) {
	cfg := testConfig()
	c, _ := newController(cfg, bigFloor())

	c.HandleEvent(Event{Kind: Wheel, Delta: 1})
	require.InDelta(t, cfg.ScrollImpulse, c.State().ScrollImpulse, tol)
	assert.True(t, c.State().Tracking)

	c.Step(0.05)
	assert.InDelta(t, 1.13-cfg.ScrollImpulse*0.05, c.State().Position.Z, tol)
	assert.InDelta(t, cfg.ScrollImpulse*math32.Exp(-cfg.ImpulseDecay*0.05), c.State().ScrollImpulse, tol)

	c.HandleEvent(Event{Kind: Wheel, Delta: 100})
	assert.InDelta(t, cfg.MaxImpulse, c.State().ScrollImpulse, tol)
}

func TestInteract(t *testing.T) {
	cfg := testConfig()
	art := scene.NewNode("art")
	calls := 0
	art.OnInteract = func() { calls++ }
	art.AddChild(testroom.Box("canvas", math.NewVec3(0, 1.5, -2), math.NewVec3(1, 1, 1)))

	c, _ := newController(cfg, bigFloor(), art)
	c.SetViewport(800, 600)

	press(c, core.KeyE)
	assert.Equal(t, 1, calls)
	assert.Empty(t, c.State().ActiveKeys)

	c.HandleEvent(Event{Kind: PointerDown, X: 400, Y: 300})
	c.HandleEvent(Event{Kind: PointerUp, X: 401, Y: 300})
	assert.Equal(t, 2, calls)

	// a drag is not a click
	c.HandleEvent(Event{Kind: PointerDown, X: 400, Y: 300})
	c.HandleEvent(Event{Kind: PointerUp, X: 480, Y: 300})
	assert.Equal(t, 2, calls)

	c.Teleport(math.NewVec3(0.37, 0, 1.13), math32.Pi)
	assert.False(t, c.Interact(), "facing away")
}

func TestInteractWithoutCamera(t *testing.T) {
	cfg := testConfig()
	art := scene.NewNode("art")
	calls := 0
	art.OnInteract = func() { calls++ }
	art.AddChild(testroom.Box("canvas", math.NewVec3(0, 1.5, -2), math.NewVec3(1, 1, 1)))

	c := NewController(nil, cfg, bigFloor(), art)
	c.SetViewport(800, 600)

	require.NotPanics(t, func() { press(c, core.KeyE) })
	assert.Equal(t, 1, calls)

	require.NotPanics(t, func() {
		c.HandleEvent(Event{Kind: PointerDown, X: 400, Y: 300})
		c.HandleEvent(Event{Kind: PointerUp, X: 400, Y: 300})
	})
	assert.Equal(t, 1, calls, "clicks need a camera to unproject")
}

type fakeSource struct {
	key    core.KeyCallback
	button core.MouseButtonCallback
	cursor core.CursorPosCallback
	scroll core.ScrollCallback
}

func (f *fakeSource) SetKeyCallback(cb core.KeyCallback)                 { f.key = cb }
func (f *fakeSource) SetMouseButtonCallback(cb core.MouseButtonCallback) { f.button = cb }
func (f *fakeSource) SetCursorPosCallback(cb core.CursorPosCallback)     { f.cursor = cb }
func (f *fakeSource) SetScrollCallback(cb core.ScrollCallback)           { f.scroll = cb }

func TestAttachAndDetach(t *testing.T) {
	c, _ := newController(testConfig(), bigFloor())
	src := &fakeSource{}

	detach := c.Attach(src)
	require.NotNil(t, src.key)
	src.key(core.KeyW, true)
	src.button(core.MouseLeft, true)
	src.cursor(30, 40)
	src.scroll(0, 1)

	s := c.State()
	assert.True(t, s.ActiveKeys[core.KeyW])
	assert.True(t, s.Dragging)
	assert.NotZero(t, s.ScrollImpulse)

	detach()
	assert.Nil(t, src.key)
	assert.Nil(t, src.button)
	assert.Nil(t, src.cursor)
	assert.Nil(t, src.scroll)
	s = c.State()
	assert.Empty(t, s.ActiveKeys)
	assert.False(t, s.Dragging)
}
