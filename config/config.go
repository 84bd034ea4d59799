// Package config holds every tunable of the gallery engine. Values come from
// Default and may be overridden by a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// Placement modes.
const (
	ModeAuto   = "auto"
	ModeWall   = "wall"
	ModeAnchor = "anchor"
)

// Config holds all configurable paths and engine settings.
type Config struct {
	Assets     AssetsConfig     `toml:"assets"`
	Room       RoomConfig       `toml:"room"`
	Wall       WallConfig       `toml:"wall"`
	Anchor     AnchorConfig     `toml:"anchor"`
	Frame      FrameConfig      `toml:"frame"`
	Navigation NavigationConfig `toml:"navigation"`
	Textures   TexturesConfig   `toml:"textures"`
	Viewer     ViewerConfig     `toml:"viewer"`
}

type AssetsConfig struct {
	Room    string `toml:"room"`
	Frame   string `toml:"frame"`
	Catalog string `toml:"catalog"`
	// Root resolves relative image sources.
	Root string `toml:"root"`
	Mode string `toml:"mode"`
}

type RoomConfig struct {
	Width           float32  `toml:"width"`
	Depth           float32  `toml:"depth"`
	FloorKeyword    string   `toml:"floor_keyword"`
	MinRoughness    float32  `toml:"min_roughness"`
	MaxMetalness    float32  `toml:"max_metalness"`
	MaxReflectivity float32  `toml:"max_reflectivity"`
	ReadyTimeout    Duration `toml:"ready_timeout"`
}

type WallConfig struct {
	Margin      float32 `toml:"margin"`
	Y           float32 `toml:"y"`
	Gap         float32 `toml:"gap"`
	CenterProbe float32 `toml:"center_probe"`
	MaxDistance float32 `toml:"max_distance"`
}

type AnchorConfig struct {
	Prefix             string  `toml:"prefix"`
	FloorPadding       float32 `toml:"floor_padding"`
	FloorTierTolerance float32 `toml:"floor_tier_tolerance"`
}

type FrameConfig struct {
	ArtTargetH        float32 `toml:"art_target_h"`
	Border            float32 `toml:"border"`
	MinOuterW         float32 `toml:"min_outer_w"`
	MaxOuterW         float32 `toml:"max_outer_w"`
	AnchorDepth       float32 `toml:"anchor_depth"`
	WallWidth         float32 `toml:"wall_width"`
	WallHeight        float32 `toml:"wall_height"`
	WallDepth         float32 `toml:"wall_depth"`
	ImageInset        float32 `toml:"image_inset"`
	Recess            float32 `toml:"recess"`
	OpeningFallback   float32 `toml:"opening_fallback"`
	BackFaceTolerance float32 `toml:"back_face_tolerance"`
	MinAspect         float32 `toml:"min_aspect"`
	MaxAspect         float32 `toml:"max_aspect"`
	MinDimension      float32 `toml:"min_dimension"`
}

type NavigationConfig struct {
	MoveSpeed          float32    `toml:"move_speed"`
	EyeHeight          float32    `toml:"eye_height"`
	ChestHeight        float32    `toml:"chest_height"`
	WaistHeight        float32    `toml:"waist_height"`
	CollisionDistance  float32    `toml:"collision_distance"`
	ProbeHeight        float32    `toml:"probe_height"`
	MaxStepUp          float32    `toml:"max_step_up"`
	MaxStepDown        float32    `toml:"max_step_down"`
	FloorSnapTolerance float32    `toml:"floor_snap_tolerance"`
	MaxFloorStep       float32    `toml:"max_floor_step"`
	PitchLimitDeg      float32    `toml:"pitch_limit_deg"`
	LookSensitivity    float32    `toml:"look_sensitivity"`
	ScrollImpulse      float32    `toml:"scroll_impulse"`
	MaxImpulse         float32    `toml:"max_impulse"`
	ImpulseDecay       float32    `toml:"impulse_decay"`
	MaxStep            float32    `toml:"max_step"`
	InteractDistance   float32    `toml:"interact_distance"`
	Spawn              [3]float32 `toml:"spawn"`
	SpawnYawDeg        float32    `toml:"spawn_yaw_deg"`
}

type TexturesConfig struct {
	MaxSize int      `toml:"max_size"`
	Workers int      `toml:"workers"`
	Timeout Duration `toml:"timeout"`
}

type ViewerConfig struct {
	Width        int     `toml:"width"`
	Height       int     `toml:"height"`
	Title        string  `toml:"title"`
	FOVDeg       float32 `toml:"fov_deg"`
	VSync        bool    `toml:"vsync"`
	Fullscreen   bool    `toml:"fullscreen"`
	WatchCatalog bool    `toml:"watch_catalog"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the stock gallery settings.
func Default() Config {
	return Config{
		Assets: AssetsConfig{
			Mode: ModeAuto,
		},
		Room: RoomConfig{
			Width:           12,
			Depth:           28,
			FloorKeyword:    "floor",
			MinRoughness:    0.6,
			MaxMetalness:    0.1,
			MaxReflectivity: 0.2,
			ReadyTimeout:    Duration{30 * time.Second},
		},
		Wall: WallConfig{
			Margin:      2,
			Y:           1.6,
			Gap:         0.02,
			CenterProbe: 0.5,
			MaxDistance: 50,
		},
		Anchor: AnchorConfig{
			Prefix:             "ArtAnchor",
			FloorPadding:       0.08,
			FloorTierTolerance: 0.25,
		},
		Frame: FrameConfig{
			ArtTargetH:        1.1,
			Border:            0.08,
			MinOuterW:         0.6,
			MaxOuterW:         2.2,
			AnchorDepth:       0.06,
			WallWidth:         1.6,
			WallHeight:        1.2,
			WallDepth:         0.08,
			ImageInset:        0.98,
			Recess:            0.02,
			OpeningFallback:   0.8,
			BackFaceTolerance: 0.05,
			MinAspect:         0.2,
			MaxAspect:         5,
			MinDimension:      0.01,
		},
		Navigation: NavigationConfig{
			MoveSpeed:          3,
			EyeHeight:          1.6,
			ChestHeight:        1.2,
			WaistHeight:        0.6,
			CollisionDistance:  0.5,
			ProbeHeight:        2,
			MaxStepUp:          0.4,
			MaxStepDown:        0.6,
			FloorSnapTolerance: 0.35,
			MaxFloorStep:       1,
			PitchLimitDeg:      60,
			LookSensitivity:    0.005,
			ScrollImpulse:      1.5,
			MaxImpulse:         6,
			ImpulseDecay:       4,
			MaxStep:            0.05,
			InteractDistance:   8,
			Spawn:              [3]float32{0, 0, 10},
		},
		Textures: TexturesConfig{
			MaxSize: 2048,
			Workers: 4,
			Timeout: Duration{20 * time.Second},
		},
		Viewer: ViewerConfig{
			Width:        1280,
			Height:       720,
			Title:        "Gallery",
			FOVDeg:       60,
			VSync:        true,
			WatchCatalog: true,
		},
	}
}

// Load reads a TOML file over Default. Keys missing from the file keep their
// default values; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.Resolve(filepath.Dir(path))
	return cfg, nil
}

// Save writes cfg as TOML.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Resolve expands "~" in asset paths and makes relative ones absolute
// against baseDir.
func (c *Config) Resolve(baseDir string) {
	for _, p := range []*string{&c.Assets.Room, &c.Assets.Frame, &c.Assets.Catalog, &c.Assets.Root} {
		*p = resolvePath(*p, baseDir)
	}
}

func resolvePath(p, baseDir string) string {
	if p == "" {
		return p
	}
	if expanded, err := homedir.Expand(p); err == nil {
		p = expanded
	}
	if !filepath.IsAbs(p) && baseDir != "" {
		p = filepath.Join(baseDir, p)
	}
	return p
}

// Validate reports every setting that would break placement or navigation.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float32) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}

	switch c.Assets.Mode {
	case ModeAuto, ModeWall, ModeAnchor:
	default:
		errs = append(errs, fmt.Errorf("assets.mode must be auto, wall or anchor, got %q", c.Assets.Mode))
	}

	positive("room.width", c.Room.Width)
	positive("room.depth", c.Room.Depth)
	if 2*c.Wall.Margin >= c.Room.Depth {
		errs = append(errs, fmt.Errorf("wall.margin %v leaves no usable depth in room.depth %v", c.Wall.Margin, c.Room.Depth))
	}
	positive("wall.max_distance", c.Wall.MaxDistance)
	if c.Anchor.Prefix == "" {
		errs = append(errs, errors.New("anchor.prefix must not be empty"))
	}

	positive("frame.art_target_h", c.Frame.ArtTargetH)
	positive("frame.min_outer_w", c.Frame.MinOuterW)
	if c.Frame.MaxOuterW < c.Frame.MinOuterW {
		errs = append(errs, fmt.Errorf("frame.max_outer_w %v is below frame.min_outer_w %v", c.Frame.MaxOuterW, c.Frame.MinOuterW))
	}
	if c.Frame.MinOuterW <= 2*c.Frame.Border {
		errs = append(errs, fmt.Errorf("frame.min_outer_w %v must exceed twice frame.border %v", c.Frame.MinOuterW, c.Frame.Border))
	}
	positive("frame.wall_width", c.Frame.WallWidth)
	positive("frame.wall_height", c.Frame.WallHeight)
	positive("frame.wall_depth", c.Frame.WallDepth)
	if c.Frame.ImageInset <= 0 || c.Frame.ImageInset > 1 {
		errs = append(errs, fmt.Errorf("frame.image_inset must be in (0,1], got %v", c.Frame.ImageInset))
	}
	if c.Frame.OpeningFallback <= 0 || c.Frame.OpeningFallback >= 1 {
		errs = append(errs, fmt.Errorf("frame.opening_fallback must be in (0,1), got %v", c.Frame.OpeningFallback))
	}
	positive("frame.min_aspect", c.Frame.MinAspect)
	if c.Frame.MaxAspect < c.Frame.MinAspect {
		errs = append(errs, fmt.Errorf("frame.max_aspect %v is below frame.min_aspect %v", c.Frame.MaxAspect, c.Frame.MinAspect))
	}
	positive("frame.min_dimension", c.Frame.MinDimension)

	positive("navigation.move_speed", c.Navigation.MoveSpeed)
	positive("navigation.eye_height", c.Navigation.EyeHeight)
	positive("navigation.collision_distance", c.Navigation.CollisionDistance)
	positive("navigation.max_floor_step", c.Navigation.MaxFloorStep)
	positive("navigation.max_step", c.Navigation.MaxStep)
	if c.Navigation.PitchLimitDeg <= 0 || c.Navigation.PitchLimitDeg >= 90 {
		errs = append(errs, fmt.Errorf("navigation.pitch_limit_deg must be in (0,90), got %v", c.Navigation.PitchLimitDeg))
	}
	if c.Navigation.ProbeHeight <= c.Navigation.MaxStepUp {
		errs = append(errs, fmt.Errorf("navigation.probe_height %v must exceed navigation.max_step_up %v", c.Navigation.ProbeHeight, c.Navigation.MaxStepUp))
	}

	if c.Textures.Workers <= 0 {
		errs = append(errs, fmt.Errorf("textures.workers must be positive, got %d", c.Textures.Workers))
	}
	if c.Textures.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("textures.max_size must be positive, got %d", c.Textures.MaxSize))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
