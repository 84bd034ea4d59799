package placement

import (
	"context"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery-engine/catalog"
	"gallery-engine/config"
	"gallery-engine/internal/testroom"
	"gallery-engine/math"
	"gallery-engine/museum"
	"gallery-engine/scene"
)

const tol = 1e-3

func artworks(ids ...string) []catalog.Artwork {
	arts := make([]catalog.Artwork, len(ids))
	for i, id := range ids {
		arts[i] = catalog.Artwork{ID: id, Title: id, ImageSource: "/img/" + id + ".jpg"}
	}
	return arts
}

// publishedRoom normalizes asset into a 12 m wide room and publishes it.
func publishedRoom(t *testing.T, asset *scene.Node) *museum.Handle {
	t.Helper()
	room, err := museum.Normalize(asset, config.Default().Room)
	require.NoError(t, err)
	h := museum.NewHandle(time.Second)
	h.Publish(room)
	return h
}

func assertVec3(t *testing.T, expected, actual math.Vec3) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, tol, "X")
	assert.InDelta(t, expected.Y, actual.Y, tol, "Y")
	assert.InDelta(t, expected.Z, actual.Z, tol, "Z")
}

func TestComputeZPositions(t *testing.T) {
	assert.InDeltaSlice(t, []float32{8, 4, 0, -4, -8}, ComputeZPositions(5, 28, 2), tol)
	assert.InDeltaSlice(t, []float32{0}, ComputeZPositions(1, 28, 2), tol)
	assert.Empty(t, ComputeZPositions(0, 28, 2))
}

func TestComputeZPositionsProperties(t *testing.T) {
	const depth, margin = 28, 2
	usable := float32(depth - 2*margin)

	for n := 1; n <= 25; n++ {
		zs := ComputeZPositions(n, depth, margin)
		require.Len(t, zs, n)
		spacing := usable / float32(n+1)
		for i := range zs {
			assert.InDelta(t, zs[i], -zs[n-1-i], tol, "symmetric, n=%d", n)
			assert.LessOrEqual(t, math32.Abs(zs[i]), usable/2)
			if i > 0 {
				assert.Less(t, zs[i], zs[i-1], "monotonic, n=%d", n)
				assert.InDelta(t, spacing, zs[i-1]-zs[i], tol)
			}
		}
	}
}

func TestSplitWalls(t *testing.T) {
	right, left := SplitWalls(artworks("a", "b", "c", "d", "e"))
	assert.Len(t, right, 3)
	assert.Len(t, left, 2)
	assert.Equal(t, "d", left[0].ID)

	right, left = SplitWalls(artworks("a"))
	assert.Len(t, right, 1)
	assert.Empty(t, left)

	right, left = SplitWalls(nil)
	assert.Empty(t, right)
	assert.Empty(t, left)
}

func TestSideYawFacesRoom(t *testing.T) {
	front := math.QuaternionFromYaw(SideRight.Yaw()).RotateVector(math.Vec3Front)
	assertVec3(t, math.NewVec3(-1, 0, 0), front)

	front = math.QuaternionFromYaw(SideLeft.Yaw()).RotateVector(math.Vec3Front)
	assertVec3(t, math.NewVec3(1, 0, 0), front)
}

func TestWallPlacerUsesMeasuredSurface(t *testing.T) {
	cfg := config.Default()
	// 11.6 m interior plus two 0.2 m walls normalizes at scale 1.
	h := publishedRoom(t, testroom.Build(11.6, 28, 4))

	placer := NewWallPlacer(h, cfg)
	ps, err := placer.Place(context.Background(), artworks("a", "b", "c", "d", "e"))
	require.NoError(t, err)
	require.Len(t, ps, 5)

	offset := cfg.Frame.WallDepth/2 + cfg.Wall.Gap
	wantZ := []float32{6, 0, -6, 4, -4}
	for i, p := range ps {
		sign := float32(1)
		side := "right"
		if i >= 3 {
			sign, side = -1, "left"
		}
		assert.Equal(t, side, p.Source)
		assert.Equal(t, config.ModeWall, p.Mode)
		assertVec3(t, math.NewVec3(sign*(5.8-offset), cfg.Wall.Y, wantZ[i]), p.Position)

		// frame front points back toward the centre
		front := p.Rotation.RotateVector(math.Vec3Front)
		assert.InDelta(t, -sign, front.X, tol)
	}
}

func TestWallPlacerFallsBackToNominalWidth(t *testing.T) {
	cfg := config.Default()
	asset := testroom.Build(11.6, 28, 4)
	asset.RemoveChild(asset.Find("WallRight"))
	h := publishedRoom(t, asset)

	ps, err := NewWallPlacer(h, cfg).Place(context.Background(), artworks("a", "b"))
	require.NoError(t, err)
	require.Len(t, ps, 2)

	offset := cfg.Frame.WallDepth/2 + cfg.Wall.Gap
	assert.InDelta(t, cfg.Room.Width/2-offset, ps[0].Position.X, tol)
	assert.InDelta(t, -(5.8 - offset), ps[1].Position.X, tol)
}

func TestWallPlacerRunsOnce(t *testing.T) {
	h := publishedRoom(t, testroom.Build(11.6, 28, 4))
	placer := NewWallPlacer(h, config.Default())

	first, err := placer.Place(context.Background(), artworks("a", "b", "c"))
	require.NoError(t, err)
	second, err := placer.Place(context.Background(), artworks("x"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWallPlacerRoomNeverReady(t *testing.T) {
	h := museum.NewHandle(20 * time.Millisecond)
	_, err := NewWallPlacer(h, config.Default()).Place(context.Background(), artworks("a"))
	assert.ErrorIs(t, err, museum.ErrRoomNotReady)
}

func TestScanAnchors(t *testing.T) {
	room := testroom.Build(11.6, 28, 4)
	names := []string{"ArtAnchor_2", "artanchor-10", "ArtAnchor_1.001", "ArtAnchorX", "Frame_1", "ArtAnchor3"}
	for _, name := range names {
		room.AddChild(testroom.Anchor(name, math.Vec3Zero, 0))
	}
	room.Find("ArtAnchor_2").Extras = map[string]any{"artworkId": "mona"}

	anchors := ScanAnchors(room, "ArtAnchor")
	require.Len(t, anchors, 4)

	var got []int
	for _, a := range anchors {
		got = append(got, a.Index)
		assert.False(t, a.Node.Visible, "%s hidden", a.Name)
	}
	assert.Equal(t, []int{1, 2, 3, 10}, got)
	assert.Equal(t, "mona", anchors[1].ArtworkKey)
	assert.True(t, room.Find("ArtAnchorX").Visible)
	assert.True(t, room.Find("Frame_1").Visible)
}

func anchorList(keys ...string) []Anchor {
	anchors := make([]Anchor, len(keys))
	for i, key := range keys {
		anchors[i] = Anchor{Index: i + 1, Name: "ArtAnchor_" + string(rune('1'+i)), ArtworkKey: key}
	}
	return anchors
}

func TestAssignAnchorsPasses(t *testing.T) {
	anchors := anchorList("", "c", "", "")
	arts := artworks("a", "b", "c", "d", "e")
	arts[0].AnchorKey = "artanchor_3"

	bindings := AssignAnchors(anchors, arts)
	got := map[string]string{}
	for _, b := range bindings {
		got[b.Anchor.Name] = b.Artwork.ID
	}
	assert.Equal(t, map[string]string{
		"ArtAnchor_1": "b",
		"ArtAnchor_2": "c",
		"ArtAnchor_3": "a",
		"ArtAnchor_4": "d",
	}, got)
	assert.Equal(t, "ArtAnchor_1", bindings[0].Anchor.Name, "bindings follow anchor order")
}

func TestAssignAnchorsExplicitBeatsSequential(t *testing.T) {
	anchors := anchorList("", "")
	arts := artworks("a", "b")
	arts[1].AnchorKey = "ArtAnchor_1"

	bindings := AssignAnchors(anchors, arts)
	require.Len(t, bindings, 2)
	assert.Equal(t, "b", bindings[0].Artwork.ID)
	assert.Equal(t, "a", bindings[1].Artwork.ID)
}

func TestAssignAnchorsIsInjective(t *testing.T) {
	anchors := anchorList("a", "a", "", "b", "")
	arts := artworks("a", "b", "c")
	arts[2].AnchorKey = "ArtAnchor_4"
	arts[0].AnchorKey = "missing"

	bindings := AssignAnchors(anchors, arts)
	require.Len(t, bindings, 3)
	seenAnchor := map[string]bool{}
	seenArt := map[string]bool{}
	for _, b := range bindings {
		assert.False(t, seenAnchor[b.Anchor.Name])
		assert.False(t, seenArt[b.Artwork.ID])
		seenAnchor[b.Anchor.Name] = true
		seenArt[b.Artwork.ID] = true
	}
	assert.Equal(t, bindings, AssignAnchors(anchors, arts), "deterministic")
}

func TestAssignAnchorsLeftovers(t *testing.T) {
	assert.Len(t, AssignAnchors(anchorList("", "", ""), artworks("a")), 1)
	assert.Len(t, AssignAnchors(anchorList(""), artworks("a", "b", "c")), 1)
	assert.Empty(t, AssignAnchors(nil, artworks("a")))
}

func TestAnchorPlacerPose(t *testing.T) {
	cfg := config.Default()
	asset := testroom.Build(11.6, 28, 4)
	low := testroom.Anchor("ArtAnchor_1", math.NewVec3(1, 0.5, -3), 0)
	low.SetScale(math.NewVec3(2, 1, 1))
	asset.AddChild(low)
	asset.AddChild(testroom.Anchor("ArtAnchor_2", math.NewVec3(2, 0.6, -3), math32.Pi/2))
	asset.AddChild(testroom.Anchor("ArtAnchor_3", math.NewVec3(3, 1.5, -3), 0))
	h := publishedRoom(t, asset)

	arts := artworks("a", "b", "c", "d")
	arts[1].NoFlip = true

	ps, err := NewAnchorPlacer(h, cfg).Place(context.Background(), arts)
	require.NoError(t, err)
	require.Len(t, ps, 3)

	pad := cfg.Anchor.FloorPadding
	assertVec3(t, math.NewVec3(1, 0.5+pad, -3), ps[0].Position)
	assertVec3(t, math.NewVec3(2, 0.6+pad, -3), ps[1].Position)
	assertVec3(t, math.NewVec3(3, 1.5, -3), ps[2].Position)

	assertVec3(t, math.NewVec3(0, 0, -1), ps[0].Rotation.RotateVector(math.Vec3Front))
	assertVec3(t, math.NewVec3(1, 0, 0), ps[1].Rotation.RotateVector(math.Vec3Front))
	assert.Equal(t, "ArtAnchor_3", ps[2].Source)
	assert.Equal(t, config.ModeAnchor, ps[2].Mode)
}

func TestAnchorPlacerWithoutAnchors(t *testing.T) {
	h := publishedRoom(t, testroom.Build(11.6, 28, 4))
	ps, err := NewAnchorPlacer(h, config.Default()).Place(context.Background(), artworks("a"))
	require.NoError(t, err)
	assert.Empty(t, ps)
}
