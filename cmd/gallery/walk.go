package main

import (
	"context"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/spf13/cobra"

	"gallery-engine/catalog"
	"gallery-engine/core"
	"gallery-engine/exhibit"
	"gallery-engine/navigation"
	"gallery-engine/renderer"
	"gallery-engine/scene"
)

func newWalkCmd() *cobra.Command {
	var roomPath, catalogPath string
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Open the gallery and walk through it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			overrideAssets(&cfg.Assets.Room, roomPath)
			overrideAssets(&cfg.Assets.Catalog, catalogPath)

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			return walk(cmd.Context(), s)
		},
	}
	cmd.Flags().StringVar(&roomPath, "room", "", "Room glTF/GLB (overrides assets.room)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog YAML (overrides assets.catalog)")
	return cmd
}

// escapeSource closes the window on Escape and forwards every other key.
type escapeSource struct {
	*core.Window
}

func (s escapeSource) SetKeyCallback(cb core.KeyCallback) {
	if cb == nil {
		s.Window.SetKeyCallback(nil)
		return
	}
	s.Window.SetKeyCallback(func(key int, pressed bool) {
		if key == core.KeyEscape && pressed {
			s.Window.Close()
			return
		}
		cb(key, pressed)
	})
}

// offerLatest replaces any unread catalog in ch with arts.
func offerLatest(ch chan []catalog.Artwork, arts []catalog.Artwork) {
	for {
		select {
		case ch <- arts:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func walk(ctx context.Context, s *session) error {
	cfg := s.cfg
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	arts, err := s.loadCatalog()
	if err != nil {
		return err
	}

	window, err := core.NewWindow(core.WindowConfig{
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Title:      cfg.Viewer.Title,
		Resizable:  true,
		VSync:      cfg.Viewer.VSync,
		Fullscreen: cfg.Viewer.Fullscreen,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	engine, err := renderer.NewRenderEngine(window)
	if err != nil {
		return err
	}
	defer engine.Destroy()

	sc := scene.NewScene()
	camera := scene.NewCamera(cfg.Viewer.FOVDeg*math32.Pi/180, 1, 0.05, 200)
	camera.UpdateAspectRatio(float32(window.Width), float32(window.Height))
	sc.SetCamera(camera)
	engine.SetScene(sc)

	ctrl := navigation.NewController(camera, cfg.Navigation)
	ctrl.SetViewport(window.Width, window.Height)
	detach := ctrl.Attach(escapeSource{window})
	defer detach()

	go s.loadRoom()

	reloads := make(chan []catalog.Artwork, 1)
	if cfg.Viewer.WatchCatalog && cfg.Assets.Catalog != "" {
		go func() {
			err := catalog.Watch(ctx, cfg.Assets.Catalog, func(next []catalog.Artwork, err error) {
				if err == nil {
					offerLatest(reloads, next)
				}
			})
			if err != nil {
				slog.Warn("catalog watch stopped", "err", err)
			}
		}()
	}

	onSelect := func(a catalog.Artwork) {
		slog.Info("artwork selected", "id", a.ID, "label", a.Label())
		window.SetTitle(cfg.Viewer.Title + " · " + a.Label())
	}

	var (
		ex       *exhibit.Exhibit
		roomNode *scene.Node
		roomUp   bool
		width    = window.Width
		height   = window.Height
		lastTime = window.Time()
	)
	remount := func() error {
		if ex != nil {
			ex.Close()
			engine.ReleaseSubtree(ex.Root)
			ex = nil
			ctrl.SetColliders(roomNode)
		}
		next, err := s.mount(ctx, arts, onSelect)
		if err != nil {
			return err
		}
		ex = next
		sc.AddNode(ex.Root)
		// frames are both obstacles and interaction targets
		ctrl.SetColliders(roomNode, ex.Root)
		return nil
	}
	defer func() {
		if ex != nil {
			ex.Close()
		}
	}()

	for !window.ShouldClose() {
		if ctx.Err() != nil {
			break
		}
		now := window.Time()
		dt := float32(now - lastTime)
		lastTime = now

		window.PollEvents()

		if !roomUp {
			select {
			case <-s.room.Ready():
				room, err := s.room.Wait(ctx)
				if err != nil {
					return err
				}
				sc.AddNode(room.Group)
				roomNode = room.Group
				ctrl.SetColliders(roomNode)
				roomUp = true
				if err := remount(); err != nil {
					return err
				}
			default:
			}
		}

		if roomUp {
			select {
			case next := <-reloads:
				arts = next
				if err := remount(); err != nil {
					slog.Error("remount failed", "err", err)
				}
			default:
			}
		}

		if window.Width != width || window.Height != height {
			width, height = window.Width, window.Height
			engine.Resize(width, height)
			ctrl.SetViewport(width, height)
		}

		ctrl.Step(dt)
		if ex != nil {
			ex.Poll()
		}

		if err := engine.Render(); err != nil {
			return err
		}
		engine.Present()
	}
	return nil
}
