package museum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrRoomNotReady = errors.New("room not ready")

// Handle publishes the normalized room to its readers. It resolves exactly
// once, with either a room or an error; later calls are ignored.
type Handle struct {
	once    sync.Once
	ready   chan struct{}
	room    *Room
	err     error
	timeout time.Duration
}

// NewHandle returns an unresolved handle. Wait gives up after timeout; zero
// means wait for the caller's context only.
func NewHandle(timeout time.Duration) *Handle {
	return &Handle{
		ready:   make(chan struct{}),
		timeout: timeout,
	}
}

// Publish resolves the handle with room. It reports whether this call won.
func (h *Handle) Publish(room *Room) bool {
	return h.resolve(room, nil)
}

// Fail resolves the handle with err.
func (h *Handle) Fail(err error) bool {
	return h.resolve(nil, err)
}

func (h *Handle) resolve(room *Room, err error) bool {
	won := false
	h.once.Do(func() {
		h.room, h.err = room, err
		won = true
		close(h.ready)
	})
	return won
}

// Ready is closed once the handle resolves.
func (h *Handle) Ready() <-chan struct{} {
	return h.ready
}

// Room returns the room without blocking.
func (h *Handle) Room() (*Room, bool) {
	select {
	case <-h.ready:
		return h.room, h.err == nil
	default:
		return nil, false
	}
}

// Wait blocks until the room is published, the handle fails, ctx is done or
// the handle's timeout elapses.
func (h *Handle) Wait(ctx context.Context) (*Room, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	select {
	case <-h.ready:
		if h.err != nil {
			return nil, h.err
		}
		return h.room, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrRoomNotReady, ctx.Err())
	}
}
