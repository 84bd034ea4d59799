// Package textures fetches, decodes and caches artwork images.
package textures

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"gallery-engine/catalog"
	"gallery-engine/config"
	"gallery-engine/core"
	"gallery-engine/scene"
)

// TextureManager loads textures by source URI, caching them by normalized
// URI. It is safe for concurrent use and outlives individual mounts.
type TextureManager struct {
	client  *http.Client
	root    string
	maxSize int
	workers int
	timeout time.Duration

	textures map[string]*scene.Texture
	mu       sync.RWMutex
	inflight singleflight.Group
}

// NewTextureManager returns a manager resolving relative sources against
// root.
func NewTextureManager(cfg config.TexturesConfig, root string) *TextureManager {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &TextureManager{
		client:   &http.Client{},
		root:     root,
		maxSize:  cfg.MaxSize,
		workers:  workers,
		timeout:  cfg.Timeout.Duration,
		textures: make(map[string]*scene.Texture),
	}
}

// SetClient replaces the HTTP client used for remote sources.
func (tm *TextureManager) SetClient(c *http.Client) {
	tm.client = c
}

// LoadTexture returns the texture for source, loading it once. Concurrent
// calls for the same source share one fetch.
func (tm *TextureManager) LoadTexture(ctx context.Context, source string) (*scene.Texture, error) {
	key := catalog.NormalizeImageURL(source)
	if key == "" {
		return nil, fmt.Errorf("texture: %w", catalog.ErrMissingImage)
	}

	tm.mu.RLock()
	if tex, ok := tm.textures[key]; ok {
		tm.mu.RUnlock()
		return tex, nil
	}
	tm.mu.RUnlock()

	// The flight is shared, so it must not die with whichever caller
	// started it. Each caller still stops waiting on its own ctx.
	ch := tm.inflight.DoChan(key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		if tm.timeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(lctx, tm.timeout)
			defer cancel()
		}
		data, err := tm.read(lctx, key)
		if err != nil {
			return nil, err
		}
		tex, err := Decode(key, data, tm.maxSize)
		if err != nil {
			return nil, err
		}

		tm.mu.Lock()
		tm.textures[key] = tex
		tm.mu.Unlock()
		return tex, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("texture %q: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("texture %q: %w", key, res.Err)
		}
		return res.Val.(*scene.Texture), nil
	}
}

// Cached reports whether source is already in the cache.
func (tm *TextureManager) Cached(source string) (*scene.Texture, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	tex, ok := tm.textures[catalog.NormalizeImageURL(source)]
	return tex, ok
}

// Len returns the number of cached textures.
func (tm *TextureManager) Len() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return len(tm.textures)
}

// Request asks for one artwork's texture.
type Request struct {
	ArtworkID string
	Source    string
}

// Result is a finished request. When Err is set, Texture is the placeholder.
type Result struct {
	ArtworkID string
	Texture   *scene.Texture
	Err       error
}

// Fetch loads every request on a bounded pool and delivers one result per
// request. The channel is buffered for all results and closed when the pool
// drains. Once ctx is done no further results are sent.
func (tm *TextureManager) Fetch(ctx context.Context, reqs []Request) <-chan Result {
	results := make(chan Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tm.workers)

	go func() {
		defer close(results)
		for _, req := range reqs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				tex, err := tm.LoadTexture(gctx, req.Source)
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if err != nil {
					slog.Warn("artwork texture failed, using placeholder",
						"artwork", req.ArtworkID, "source", req.Source, "err", err)
					tex = Placeholder()
				}
				results <- Result{ArtworkID: req.ArtworkID, Texture: tex, Err: err}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			slog.Debug("texture fetch cancelled", "err", err)
		}
	}()
	return results
}

// Placeholder returns a fresh 1x1 texture in the neutral fill colour.
func Placeholder() *scene.Texture {
	c := core.ColorNeutral
	return scene.NewSolidTexture("placeholder",
		uint8(c.R*255), uint8(c.G*255), uint8(c.B*255), uint8(c.A*255))
}
