// Package exhibit mounts a catalog into a normalized room: it picks the
// placement strategy, builds one frame group per artwork and streams the
// artwork textures in as they arrive.
package exhibit

import (
	"context"
	"fmt"
	"log/slog"

	"gallery-engine/catalog"
	"gallery-engine/config"
	"gallery-engine/framefit"
	"gallery-engine/museum"
	"gallery-engine/placement"
	"gallery-engine/scene"
	"gallery-engine/textures"
)

// Item is one mounted artwork.
type Item struct {
	Placement placement.Placement
	Fit       framefit.Fit
	// Node carries the placement pose and parents the framed artwork.
	Node     *scene.Node
	Framed   framefit.Framed
	Material *scene.Material
	// Loaded is set once the artwork's own texture (or its placeholder after
	// a failure) is applied.
	Loaded bool
}

// Options configures a mount.
type Options struct {
	Config config.Config
	// Frame defaults to framefit.NewDefaultFrame.
	Frame    *framefit.FrameAsset
	Textures *textures.TextureManager
	// OnSelect is called when the visitor interacts with an artwork.
	OnSelect func(catalog.Artwork)
}

// Exhibit is one mount. Its nodes and state belong to the render loop;
// only the texture fetch runs elsewhere.
type Exhibit struct {
	Root  *scene.Node
	Room  *museum.Room
	Mode  string
	Items []*Item

	byID    map[string]*Item
	frame   *framefit.FrameAsset
	cfg     config.Config
	results <-chan textures.Result

	ctx    context.Context
	cancel context.CancelFunc
}

// Build waits for the room, places the catalog and builds every frame with
// a cached or placeholder texture. Missing textures are fetched in the
// background; call Poll from the render loop to apply them.
func Build(ctx context.Context, room *museum.Handle, arts []catalog.Artwork, opts Options) (*Exhibit, error) {
	cfg := opts.Config
	frame := opts.Frame
	if frame == nil {
		frame = framefit.NewDefaultFrame(cfg.Frame)
	}
	if _, _, err := frame.Metadata(); err != nil {
		return nil, fmt.Errorf("exhibit: %w", err)
	}

	r, err := room.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("exhibit: %w", err)
	}

	mode := ResolveMode(cfg.Assets.Mode, r, cfg.Anchor.Prefix)
	var placer placement.Placer
	if mode == config.ModeAnchor {
		placer = placement.NewAnchorPlacer(room, cfg)
	} else {
		placer = placement.NewWallPlacer(room, cfg)
	}
	placements, err := placer.Place(ctx, arts)
	if err != nil {
		return nil, fmt.Errorf("exhibit: %w", err)
	}

	mountCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ex := &Exhibit{
		Root:   scene.NewNode("Exhibit"),
		Room:   r,
		Mode:   mode,
		byID:   make(map[string]*Item, len(placements)),
		frame:  frame,
		cfg:    cfg,
		ctx:    mountCtx,
		cancel: cancel,
	}

	var reqs []textures.Request
	for _, p := range placements {
		tex, cached := (*scene.Texture)(nil), false
		if opts.Textures != nil {
			tex, cached = opts.Textures.Cached(p.Artwork.ImageSource)
		}
		if !cached {
			tex = textures.Placeholder()
			reqs = append(reqs, textures.Request{ArtworkID: p.ArtworkID, Source: p.Artwork.ImageSource})
		}
		item := ex.mount(p, tex, opts.OnSelect)
		item.Loaded = cached
	}
	if opts.Textures != nil && len(reqs) > 0 {
		ex.results = opts.Textures.Fetch(mountCtx, reqs)
	}

	slog.Info("exhibit mounted", "mode", mode, "artworks", len(arts), "placed", len(ex.Items),
		"pending_textures", len(reqs))
	return ex, nil
}

// ResolveMode turns the configured mode into wall or anchor. Auto uses
// anchors when the room has any.
func ResolveMode(mode string, room *museum.Room, prefix string) string {
	switch mode {
	case config.ModeWall, config.ModeAnchor:
		return mode
	}
	if len(placement.ScanAnchors(room.Group, prefix)) > 0 {
		return config.ModeAnchor
	}
	return config.ModeWall
}

func (ex *Exhibit) mount(p placement.Placement, tex *scene.Texture, onSelect func(catalog.Artwork)) *Item {
	node := scene.NewNode("Artwork/" + p.ArtworkID)
	node.SetPosition(p.Position)
	node.SetRotation(p.Rotation)
	if onSelect != nil {
		art := p.Artwork
		node.OnInteract = func() { onSelect(art) }
	}

	item := &Item{
		Placement: p,
		Node:      node,
		Material:  scene.NewUnlitMaterial(p.ArtworkID, tex),
	}
	ex.refit(item)

	ex.Root.AddChild(node)
	ex.Items = append(ex.Items, item)
	ex.byID[p.ArtworkID] = item
	return item
}

// refit sizes the frame for the material's current texture and rebuilds
// the framed artwork under the item's pose node.
func (ex *Exhibit) refit(item *Item) {
	meta, opening, _ := ex.frame.Metadata()
	aspect := item.Material.AlbedoTexture.Aspect()

	if item.Placement.Mode == config.ModeAnchor {
		item.Fit = framefit.AnchorFrameSize(aspect, meta, ex.cfg.Frame)
	} else {
		item.Fit = framefit.WallFit(aspect, meta, opening, ex.cfg.Frame)
	}

	item.Node.RemoveAllChildren()
	item.Framed = ex.frame.Assemble("Frame/"+item.Placement.ArtworkID, item.Fit, item.Material)
	item.Node.AddChild(item.Framed.Group)
}

// Item returns the mounted artwork with the given id.
func (ex *Exhibit) Item(id string) (*Item, bool) {
	item, ok := ex.byID[id]
	return item, ok
}

// Poll applies the textures that have arrived since the last call and
// reports how many. It never blocks and does nothing after Close.
func (ex *Exhibit) Poll() int {
	n := 0
	for ex.results != nil && ex.ctx.Err() == nil {
		select {
		case res, ok := <-ex.results:
			if !ok {
				ex.results = nil
				return n
			}
			if ex.apply(res) {
				n++
			}
		default:
			return n
		}
	}
	return n
}

func (ex *Exhibit) apply(res textures.Result) bool {
	item, ok := ex.byID[res.ArtworkID]
	if !ok || item.Loaded {
		return false
	}
	item.Material.AlbedoTexture = res.Texture
	item.Loaded = true
	ex.refit(item)
	return true
}

// Pending reports whether texture results may still arrive.
func (ex *Exhibit) Pending() bool {
	return ex.results != nil && ex.ctx.Err() == nil
}

// Close cancels in-flight texture loads and detaches the exhibit from the
// scene. The room is left untouched.
func (ex *Exhibit) Close() {
	ex.cancel()
	if ex.Root.Parent != nil {
		ex.Root.Parent.RemoveChild(ex.Root)
	}
}
