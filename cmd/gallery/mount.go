package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gallery-engine/catalog"
	"gallery-engine/config"
	"gallery-engine/exhibit"
	"gallery-engine/framefit"
	"gallery-engine/museum"
	"gallery-engine/textures"
)

var errNoRoom = errors.New("no room asset configured (set assets.room or --room)")

// session holds what every command needs to mount a catalog.
type session struct {
	cfg      config.Config
	room     *museum.Handle
	frame    *framefit.FrameAsset
	textures *textures.TextureManager
}

func newSession(cfg config.Config) (*session, error) {
	if cfg.Assets.Room == "" {
		return nil, errNoRoom
	}
	s := &session{
		cfg:      cfg,
		room:     museum.NewHandle(cfg.Room.ReadyTimeout.Duration),
		textures: textures.NewTextureManager(cfg.Textures, cfg.Assets.Root),
	}
	if cfg.Assets.Frame != "" {
		frame, err := framefit.LoadFrameAsset(cfg.Assets.Frame, cfg.Frame)
		if err != nil {
			return nil, err
		}
		s.frame = frame
	}
	return s, nil
}

// loadRoom resolves the session's room handle. Readers block on the
// handle, so this may run on its own goroutine.
func (s *session) loadRoom() {
	room, err := museum.LoadRoom(s.cfg.Assets.Room, s.cfg.Room)
	if err != nil {
		s.room.Fail(err)
		return
	}
	s.room.Publish(room)
}

func (s *session) loadCatalog() ([]catalog.Artwork, error) {
	if s.cfg.Assets.Catalog == "" {
		return nil, nil
	}
	return catalog.Load(s.cfg.Assets.Catalog)
}

func (s *session) mount(ctx context.Context, arts []catalog.Artwork, onSelect func(catalog.Artwork)) (*exhibit.Exhibit, error) {
	return exhibit.Build(ctx, s.room, arts, exhibit.Options{
		Config:   s.cfg,
		Frame:    s.frame,
		Textures: s.textures,
		OnSelect: onSelect,
	})
}

// settle applies texture results until none are pending or ctx is done.
func settle(ctx context.Context, ex *exhibit.Exhibit) error {
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for ex.Pending() {
		ex.Poll()
		select {
		case <-ctx.Done():
			return fmt.Errorf("textures still loading: %w", ctx.Err())
		case <-tick.C:
		}
	}
	return nil
}

// mountHeadless loads everything synchronously and waits for textures.
func mountHeadless(ctx context.Context, cfg config.Config, fetch bool) (*exhibit.Exhibit, error) {
	s, err := newSession(cfg)
	if err != nil {
		return nil, err
	}
	if !fetch {
		s.textures = nil
	}
	s.loadRoom()

	arts, err := s.loadCatalog()
	if err != nil {
		return nil, err
	}
	ex, err := s.mount(ctx, arts, nil)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Textures.Timeout.Duration+time.Second)
	defer cancel()
	if err := settle(waitCtx, ex); err != nil {
		ex.Close()
		return nil, err
	}
	return ex, nil
}
