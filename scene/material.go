package scene

import "gallery-engine/core"

// Material describes surface appearance properties for a mesh.
type Material struct {
	Name   string
	Albedo core.Color // base color (multiplied with albedo texture if set)

	Metallic     float32 // 0 = dielectric, 1 = fully metallic
	Roughness    float32 // 0 = perfectly smooth, 1 = fully rough
	Reflectivity float32 // environment reflection strength
	Unlit        bool    // skip lighting; output raw albedo/texture color

	// Optional albedo texture; if set, it is multiplied with Albedo.
	// Upload via opengl.UploadTexture before rendering.
	AlbedoTexture *Texture
}

// DefaultMaterial returns a plain white matte material.
func DefaultMaterial() *Material {
	return &Material{
		Name:         "Default",
		Albedo:       core.ColorWhite,
		Roughness:    0.5,
		Reflectivity: 0.5,
	}
}

// NewMaterial creates a lit material with the given albedo color.
func NewMaterial(name string, albedo core.Color) *Material {
	m := DefaultMaterial()
	m.Name = name
	m.Albedo = albedo
	return m
}

// NewUnlitMaterial creates a material that ignores scene lighting.
func NewUnlitMaterial(name string, tex *Texture) *Material {
	return &Material{
		Name:          name,
		Albedo:        core.ColorWhite,
		Roughness:     1,
		Unlit:         true,
		AlbedoTexture: tex,
	}
}

func (m *Material) Clone() *Material {
	c := *m
	return &c
}
