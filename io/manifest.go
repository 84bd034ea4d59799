// Package io writes the artefacts of a mounted exhibit: a JSON placement
// manifest and a top-down floor plan.
package io

import (
	"encoding/json"
	"fmt"
	"os"

	"gallery-engine/core"
	"gallery-engine/exhibit"
	"gallery-engine/math"
	"gallery-engine/museum"
)

const ManifestVersion = "1.0"

// Manifest is the top-level structure of a placement manifest.
type Manifest struct {
	Version string     `json:"version"`
	Mode    string     `json:"mode"`
	Room    RoomData   `json:"room"`
	Items   []ItemData `json:"items"`
}

// RoomData stores the normalization applied to the room asset.
type RoomData struct {
	Scale     float32    `json:"scale"`
	Offset    [3]float32 `json:"offset"`
	BoundsMin [3]float32 `json:"bounds_min"`
	BoundsMax [3]float32 `json:"bounds_max"`
}

// ItemData stores one placed artwork.
type ItemData struct {
	ID       string     `json:"id"`
	Title    string     `json:"title,omitempty"`
	Artist   string     `json:"artist,omitempty"`
	Image    string     `json:"image"`
	Mode     string     `json:"mode"`
	Source   string     `json:"source"`
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"` // Quaternion (x,y,z,w)
	Yaw      float32    `json:"yaw"`
	Frame    FrameData  `json:"frame"`
	Loaded   bool       `json:"loaded"`
}

// FrameData stores the fitted frame and image sizes.
type FrameData struct {
	Scale       [3]float32 `json:"scale"`
	OuterWidth  float32    `json:"outer_width"`
	OuterHeight float32    `json:"outer_height"`
	Depth       float32    `json:"depth"`
	ImageWidth  float32    `json:"image_width"`
	ImageHeight float32    `json:"image_height"`
	ImageZ      float32    `json:"image_z"`
}

// NewManifest captures the current state of a mount. Items whose texture
// is still in flight carry their placeholder fit.
func NewManifest(ex *exhibit.Exhibit) *Manifest {
	m := &Manifest{
		Version: ManifestVersion,
		Mode:    ex.Mode,
		Room:    roomData(ex.Room),
		Items:   make([]ItemData, 0, len(ex.Items)),
	}
	for _, it := range ex.Items {
		p := it.Placement
		m.Items = append(m.Items, ItemData{
			ID:       p.ArtworkID,
			Title:    p.Artwork.Title,
			Artist:   p.Artwork.Artist,
			Image:    p.Artwork.ImageSource,
			Mode:     p.Mode,
			Source:   p.Source,
			Position: Vec3ToArray(p.Position),
			Rotation: QuatToArray(p.Rotation),
			Yaw:      p.Yaw,
			Frame: FrameData{
				Scale:       Vec3ToArray(it.Fit.FrameScale),
				OuterWidth:  it.Fit.OuterWidth,
				OuterHeight: it.Fit.OuterHeight,
				Depth:       it.Fit.Depth,
				ImageWidth:  it.Fit.ImageWidth,
				ImageHeight: it.Fit.ImageHeight,
				ImageZ:      it.Fit.ImageZ,
			},
			Loaded: it.Loaded,
		})
	}
	return m
}

func roomData(r *museum.Room) RoomData {
	if r == nil {
		return RoomData{}
	}
	return RoomData{
		Scale:     r.Transform.Scale,
		Offset:    Vec3ToArray(r.Transform.Offset),
		BoundsMin: Vec3ToArray(r.Bounds.Min),
		BoundsMax: Vec3ToArray(r.Bounds.Max),
	}
}

// WriteManifest serializes a manifest to an indented JSON file.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadManifest deserializes a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %q: %w", path, err)
	}
	return m, nil
}

// --- Helper conversions ---

// Vec3ToArray converts a Vec3 to a [3]float32
func Vec3ToArray(v math.Vec3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// ArrayToVec3 converts a [3]float32 to Vec3
func ArrayToVec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// QuatToArray converts a Quaternion to [4]float32
func QuatToArray(q math.Quaternion) [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

// ArrayToQuat converts [4]float32 to Quaternion
func ArrayToQuat(a [4]float32) math.Quaternion {
	return math.Quaternion{X: a[0], Y: a[1], Z: a[2], W: a[3]}
}

// colorRGBA converts a Color to 8-bit channels.
func colorRGBA(c core.Color) [4]uint8 {
	return [4]uint8{unit8(c.R), unit8(c.G), unit8(c.B), unit8(c.A)}
}

func unit8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
