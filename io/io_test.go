package io

import (
	"image/color"
	stdmath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"gallery-engine/catalog"
	"gallery-engine/config"
	"gallery-engine/core"
	"gallery-engine/exhibit"
	"gallery-engine/framefit"
	"gallery-engine/math"
	"gallery-engine/museum"
	"gallery-engine/placement"
)

func testExhibit() *exhibit.Exhibit {
	room := &museum.Room{
		Transform: museum.RoomTransform{Scale: 0.5, Offset: math.NewVec3(0, 1, 0)},
		Bounds: math.Box3{
			Min: math.NewVec3(-6, 0, -14),
			Max: math.NewVec3(6, 4, 14),
		},
	}
	return &exhibit.Exhibit{
		Mode: config.ModeWall,
		Room: room,
		Items: []*exhibit.Item{
			{
				Placement: placement.Placement{
					ArtworkID: "a1",
					Artwork:   catalog.Artwork{ID: "a1", Title: "Dawn", ImageSource: "https://x/a1.png"},
					Position:  math.NewVec3(5.8, 2, 0),
					Rotation:  math.QuaternionFromYaw(-stdmath.Pi / 2),
					Yaw:       -stdmath.Pi / 2,
					Mode:      config.ModeWall,
					Source:    "right",
				},
				Fit: framefit.Fit{
					FrameScale: math.NewVec3(2, 1.5, 0.12),
					OuterWidth: 2, OuterHeight: 1.5, Depth: 0.12,
					ImageWidth: 1.6, ImageHeight: 1.2, ImageZ: 0.05,
				},
				Loaded: true,
			},
		},
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	require.NoError(t, WriteManifest(path, NewManifest(testExhibit())))
	m, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, ManifestVersion, m.Version)
	assert.Equal(t, config.ModeWall, m.Mode)
	assert.Equal(t, float32(0.5), m.Room.Scale)
	assert.Equal(t, [3]float32{-6, 0, -14}, m.Room.BoundsMin)

	require.Len(t, m.Items, 1)
	it := m.Items[0]
	assert.Equal(t, "a1", it.ID)
	assert.Equal(t, "Dawn", it.Title)
	assert.Equal(t, "right", it.Source)
	assert.Equal(t, [3]float32{5.8, 2, 0}, it.Position)
	assert.Equal(t, float32(2), it.Frame.OuterWidth)
	assert.Equal(t, float32(0.05), it.Frame.ImageZ)
	assert.True(t, it.Loaded)

	q := ArrayToQuat(it.Rotation)
	front := q.RotateVector(math.Vec3Front)
	assert.InDelta(t, -1, front.X, 1e-4)
}

func TestLoadManifestErrors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadManifest(bad)
	assert.Error(t, err)
}

func planOptions() PlanOptions {
	opts := DefaultPlanOptions()
	opts.PixelsPerMeter = 10
	opts.Margin = 8
	return opts
}

func TestRenderPlan(t *testing.T) {
	opts := planOptions()
	img, err := RenderPlan(testExhibit(), opts)
	require.NoError(t, err)

	assert.Equal(t, 12*10+16, img.Bounds().Dx())
	assert.Equal(t, 28*10+16, img.Bounds().Dy())

	assert.Equal(t, toRGBA(opts.Background), img.RGBAAt(2, 2))
	assert.Equal(t, toRGBA(opts.Floor), img.RGBAAt(68, 148))
	assert.Equal(t, toRGBA(opts.Wall), img.RGBAAt(8, 100))

	// Frame at x=5.8 runs along Z, 1 m either side of z=0.
	assert.Equal(t, toRGBA(opts.Frame), img.RGBAAt(126, 155))
	assert.Equal(t, toRGBA(opts.Frame), img.RGBAAt(126, 141))
	assert.NotEqual(t, toRGBA(opts.Frame), img.RGBAAt(126, 175))

	// Facing tick points into the room (-X).
	assert.Equal(t, toRGBA(opts.Facing), img.RGBAAt(123, 148))
}

func TestRenderPlanCapsSize(t *testing.T) {
	opts := planOptions()
	opts.PixelsPerMeter = 1000

	img, err := RenderPlan(testExhibit(), opts)
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dy(), maxPlanSide+1+2*opts.Margin)
}

func TestRenderPlanEmptyRoom(t *testing.T) {
	ex := testExhibit()
	ex.Room.Bounds = math.EmptyBox3()

	_, err := RenderPlan(ex, planOptions())
	assert.ErrorIs(t, err, ErrEmptyPlan)
}

func TestExportPlanWritesWebP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.webp")
	require.NoError(t, ExportPlan(path, testExhibit(), planOptions()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := webp.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 136, cfg.Width)
	assert.Equal(t, 296, cfg.Height)
}

func TestColorConversion(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 128, A: 255}, toRGBA(core.Color{R: 1, G: -1, B: 0.5, A: 2}))
}
