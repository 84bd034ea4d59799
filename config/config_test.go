package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float32(12), cfg.Room.Width)
	assert.Equal(t, float32(28), cfg.Room.Depth)
	assert.Equal(t, float32(2), cfg.Wall.Margin)
	assert.Equal(t, float32(0.5), cfg.Navigation.CollisionDistance)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gallery.toml")
	data := `
[assets]
room = "models/room.glb"
catalog = "catalog.yaml"
mode = "anchor"

[room]
width = 10
ready_timeout = "5s"

[navigation]
spawn = [1.0, 0.0, 4.0]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float32(10), cfg.Room.Width)
	assert.Equal(t, float32(28), cfg.Room.Depth, "untouched keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Room.ReadyTimeout.Duration)
	assert.Equal(t, ModeAnchor, cfg.Assets.Mode)
	assert.Equal(t, [3]float32{1, 0, 4}, cfg.Navigation.Spawn)
	assert.Equal(t, filepath.Join(dir, "models", "room.glb"), cfg.Assets.Room)
	assert.Equal(t, filepath.Join(dir, "catalog.yaml"), cfg.Assets.Catalog)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[room]\nwidht = 3\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Assets.Mode = "spiral"
	cfg.Room.Width = 0
	cfg.Frame.MaxOuterW = 0.1
	cfg.Navigation.PitchLimitDeg = 95

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assets.mode")
	assert.Contains(t, err.Error(), "room.width")
	assert.Contains(t, err.Error(), "frame.max_outer_w")
	assert.Contains(t, err.Error(), "pitch_limit_deg")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	cfg := Default()
	cfg.Viewer.Title = "Test"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", got.Viewer.Title)
	assert.Equal(t, cfg.Room.ReadyTimeout, got.Room.ReadyTimeout)
}

func TestResolveExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := Default()
	cfg.Assets.Room = "~/room.glb"
	cfg.Resolve("/base")
	assert.Equal(t, filepath.Join(home, "room.glb"), cfg.Assets.Room)
}
