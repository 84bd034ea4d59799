package navigation

import "gallery-engine/core"

// EventKind identifies an input event.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	PointerDown
	PointerMove
	PointerUp
	Wheel
)

// Event is one input event from the host window. X and Y are cursor
// coordinates for pointer events; Delta is the vertical wheel offset.
type Event struct {
	Kind  EventKind
	Key   int
	X, Y  float64
	Delta float64
}

// Source is the host's input surface. core.Window implements it.
type Source interface {
	SetKeyCallback(core.KeyCallback)
	SetMouseButtonCallback(core.MouseButtonCallback)
	SetCursorPosCallback(core.CursorPosCallback)
	SetScrollCallback(core.ScrollCallback)
}

// clickSlop is how far the pointer may travel between down and up and
// still count as a click, in pixels.
const clickSlop = 4

// Attach routes the source's input to the controller. The returned func
// removes every listener.
func (c *Controller) Attach(src Source) (detach func()) {
	src.SetKeyCallback(func(key int, pressed bool) {
		kind := KeyUp
		if pressed {
			kind = KeyDown
		}
		c.HandleEvent(Event{Kind: kind, Key: key})
	})
	src.SetMouseButtonCallback(func(button int, pressed bool) {
		if button != core.MouseLeft {
			return
		}
		kind := PointerUp
		if pressed {
			kind = PointerDown
		}
		c.HandleEvent(Event{Kind: kind, X: c.cursorX, Y: c.cursorY})
	})
	src.SetCursorPosCallback(func(x, y float64) {
		c.HandleEvent(Event{Kind: PointerMove, X: x, Y: y})
	})
	src.SetScrollCallback(func(_, yoff float64) {
		c.HandleEvent(Event{Kind: Wheel, Delta: yoff})
	})

	return func() {
		src.SetKeyCallback(nil)
		src.SetMouseButtonCallback(nil)
		src.SetCursorPosCallback(nil)
		src.SetScrollCallback(nil)
		c.releaseAll()
	}
}

// HandleEvent updates input state. Look and movement are applied on the
// next Step; interaction fires immediately.
func (c *Controller) HandleEvent(e Event) {
	s := &c.state
	switch e.Kind {
	case KeyDown:
		if isInteractKey(e.Key) {
			c.Interact()
			return
		}
		if isMoveKey(e.Key) {
			s.ActiveKeys[e.Key] = true
			s.Tracking = true
		}
	case KeyUp:
		delete(s.ActiveKeys, e.Key)
	case PointerDown:
		s.Dragging = true
		c.cursorX, c.cursorY = e.X, e.Y
		c.pressX, c.pressY = e.X, e.Y
	case PointerMove:
		if s.Dragging {
			c.lookDX += e.X - c.cursorX
			c.lookDY += e.Y - c.cursorY
		}
		c.cursorX, c.cursorY = e.X, e.Y
	case PointerUp:
		if s.Dragging && abs64(e.X-c.pressX) <= clickSlop && abs64(e.Y-c.pressY) <= clickSlop {
			c.Click(e.X, e.Y)
		}
		s.Dragging = false
	case Wheel:
		if e.Delta == 0 {
			return
		}
		s.ScrollImpulse += float32(e.Delta) * c.cfg.ScrollImpulse
		if s.ScrollImpulse > c.cfg.MaxImpulse {
			s.ScrollImpulse = c.cfg.MaxImpulse
		} else if s.ScrollImpulse < -c.cfg.MaxImpulse {
			s.ScrollImpulse = -c.cfg.MaxImpulse
		}
		s.Tracking = true
	}
}

func (c *Controller) releaseAll() {
	clear(c.state.ActiveKeys)
	c.state.Dragging = false
	c.state.ScrollImpulse = 0
	c.lookDX, c.lookDY = 0, 0
}

func isMoveKey(key int) bool {
	switch key {
	case core.KeyW, core.KeyA, core.KeyS, core.KeyD,
		core.KeyUp, core.KeyDown, core.KeyLeft, core.KeyRight:
		return true
	}
	return false
}

func isInteractKey(key int) bool {
	return key == core.KeyE || key == core.KeyEnter
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
