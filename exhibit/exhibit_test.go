package exhibit

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery-engine/catalog"
	"gallery-engine/config"
	"gallery-engine/core"
	"gallery-engine/internal/testroom"
	"gallery-engine/math"
	"gallery-engine/museum"
	"gallery-engine/navigation"
	"gallery-engine/scene"
	"gallery-engine/textures"
)

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 30, 10))))
	data := buf.Bytes()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.png":
			http.NotFound(w, r)
		case "/slow.png":
			<-r.Context().Done()
		default:
			w.Write(data)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func catalogFor(base string, names ...string) []catalog.Artwork {
	arts := make([]catalog.Artwork, len(names))
	for i, name := range names {
		arts[i] = catalog.Artwork{ID: name, Title: name, ImageSource: base + "/" + name + ".png"}
	}
	return arts
}

func roomHandle(t *testing.T, asset *scene.Node) *museum.Handle {
	t.Helper()
	room, err := museum.Normalize(asset, config.Default().Room)
	require.NoError(t, err)
	h := museum.NewHandle(time.Second)
	h.Publish(room)
	return h
}

func drain(t *testing.T, ex *Exhibit) {
	t.Helper()
	require.Eventually(t, func() bool {
		ex.Poll()
		return !ex.Pending()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestBuildWallModeStreamsTextures(t *testing.T) {
	srv := imageServer(t)
	cfg := config.Default()
	tm := textures.NewTextureManager(cfg.Textures, "")

	ex, err := Build(context.Background(), roomHandle(t, testroom.Build(11.6, 28, 4)),
		catalogFor(srv.URL, "a", "b", "c", "missing"), Options{Config: cfg, Textures: tm})
	require.NoError(t, err)
	defer ex.Close()

	assert.Equal(t, config.ModeWall, ex.Mode)
	require.Len(t, ex.Items, 4)
	assert.Len(t, ex.Root.Children, 4)

	a, ok := ex.Item("a")
	require.True(t, ok)
	assert.False(t, a.Loaded)
	assert.InDelta(t, 1, a.Fit.ImageWidth/a.Fit.ImageHeight, 1e-3, "placeholder is square")

	drain(t, ex)
	assert.True(t, a.Loaded)
	assert.Equal(t, 30, a.Material.AlbedoTexture.Width)
	assert.InDelta(t, 3, a.Fit.ImageWidth/a.Fit.ImageHeight, 1e-3)
	assert.Same(t, a.Framed.Group, a.Node.Children[0])
	assert.Len(t, a.Node.Children, 1, "refit replaces the old frame")

	missing, _ := ex.Item("missing")
	assert.True(t, missing.Loaded)
	assert.Equal(t, 1, missing.Material.AlbedoTexture.Width)
}

func TestBuildUsesCachedTextures(t *testing.T) {
	srv := imageServer(t)
	cfg := config.Default()
	tm := textures.NewTextureManager(cfg.Textures, "")
	arts := catalogFor(srv.URL, "a")

	first, err := Build(context.Background(), roomHandle(t, testroom.Build(11.6, 28, 4)), arts,
		Options{Config: cfg, Textures: tm})
	require.NoError(t, err)
	drain(t, first)
	first.Close()

	second, err := Build(context.Background(), roomHandle(t, testroom.Build(11.6, 28, 4)), arts,
		Options{Config: cfg, Textures: tm})
	require.NoError(t, err)
	defer second.Close()

	assert.False(t, second.Pending())
	item, _ := second.Item("a")
	assert.True(t, item.Loaded)
	assert.InDelta(t, 3, item.Fit.ImageWidth/item.Fit.ImageHeight, 1e-3)
}

func TestBuildAutoPicksAnchors(t *testing.T) {
	cfg := config.Default()
	asset := testroom.Build(11.6, 28, 4)
	asset.AddChild(testroom.Anchor("ArtAnchor_1", math.NewVec3(0, 1.5, -13), 0))
	asset.AddChild(testroom.Anchor("ArtAnchor_2", math.NewVec3(3, 1.5, -13), 0))

	var selected []string
	ex, err := Build(context.Background(), roomHandle(t, asset), catalogFor("/img", "a", "b", "c"), Options{
		Config:   cfg,
		OnSelect: func(a catalog.Artwork) { selected = append(selected, a.ID) },
	})
	require.NoError(t, err)
	defer ex.Close()

	assert.Equal(t, config.ModeAnchor, ex.Mode)
	require.Len(t, ex.Items, 2)
	item := ex.Items[1]
	assert.Equal(t, "ArtAnchor_2", item.Placement.Source)
	assert.InDelta(t, cfg.Frame.AnchorDepth, item.Fit.Depth, 1e-6)
	assert.False(t, ex.Pending(), "no texture manager, nothing to fetch")

	item.Node.OnInteract()
	assert.Equal(t, []string{"b"}, selected)
}

func TestResolveMode(t *testing.T) {
	room, err := museum.Normalize(testroom.Build(11.6, 28, 4), config.Default().Room)
	require.NoError(t, err)

	assert.Equal(t, config.ModeWall, ResolveMode(config.ModeAuto, room, "ArtAnchor"))
	assert.Equal(t, config.ModeAnchor, ResolveMode(config.ModeAnchor, room, "ArtAnchor"))
	assert.Equal(t, config.ModeWall, ResolveMode("", room, "ArtAnchor"))
}

func TestCloseCancelsTextures(t *testing.T) {
	srv := imageServer(t)
	cfg := config.Default()
	tm := textures.NewTextureManager(cfg.Textures, "")

	parent := scene.NewNode("world")
	ex, err := Build(context.Background(), roomHandle(t, testroom.Build(11.6, 28, 4)),
		catalogFor(srv.URL, "slow"), Options{Config: cfg, Textures: tm})
	require.NoError(t, err)
	parent.AddChild(ex.Root)

	ex.Close()
	assert.Zero(t, ex.Poll())
	assert.False(t, ex.Pending())
	assert.Empty(t, parent.Children)

	item, _ := ex.Item("slow")
	assert.False(t, item.Loaded)
}

func TestBuildRoomNotReady(t *testing.T) {
	_, err := Build(context.Background(), museum.NewHandle(20*time.Millisecond), nil,
		Options{Config: config.Default()})
	assert.ErrorIs(t, err, museum.ErrRoomNotReady)
}

func TestInteractKeySelectsMountedArtwork(t *testing.T) {
	srv := imageServer(t)
	cfg := config.Default()
	tm := textures.NewTextureManager(cfg.Textures, "")
	handle := roomHandle(t, testroom.Build(11.6, 28, 4))
	room, err := handle.Wait(context.Background())
	require.NoError(t, err)

	var selected []string
	ex, err := Build(context.Background(), handle, catalogFor(srv.URL, "a"), Options{
		Config:   cfg,
		Textures: tm,
		OnSelect: func(a catalog.Artwork) { selected = append(selected, a.ID) },
	})
	require.NoError(t, err)
	defer ex.Close()
	drain(t, ex)

	item, ok := ex.Item("a")
	require.True(t, ok)
	p := item.Node.WorldPosition()
	require.Greater(t, math32.Abs(p.X), float32(1), "wall mode hangs on a side wall")

	// stand on the centre line level with the frame, facing it
	yaw := -math32.Pi / 2
	if p.X < 0 {
		yaw = math32.Pi / 2
	}
	cam := scene.NewCamera(math.Radians(60), 4.0/3.0, 0.05, 100)
	ctrl := navigation.NewController(cam, cfg.Navigation)
	ctrl.Teleport(math.NewVec3(0, p.Y-cfg.Navigation.EyeHeight, p.Z+0.03), yaw)

	ctrl.SetColliders(room.Group)
	ctrl.HandleEvent(navigation.Event{Kind: navigation.KeyDown, Key: core.KeyE})
	assert.Empty(t, selected, "the room alone has no artworks")

	ctrl.SetColliders(room.Group, ex.Root)
	ctrl.HandleEvent(navigation.Event{Kind: navigation.KeyDown, Key: core.KeyE})
	assert.Equal(t, []string{"a"}, selected)
}
