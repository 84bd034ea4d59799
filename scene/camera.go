package scene

import (
	"github.com/chewxy/math32"

	"gallery-engine/math"
)

// Camera is a first-person perspective camera oriented by yaw and pitch.
// Yaw 0 looks down -Z; positive pitch looks up.
type Camera struct {
	Position    math.Vec3
	Yaw         float32
	Pitch       float32
	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
	}
}

// Rotation returns yaw about +Y applied after pitch about +X.
func (c *Camera) Rotation() math.Quaternion {
	return math.QuaternionFromYaw(c.Yaw).Mul(math.QuaternionFromAxisAngle(math.Vec3Right, c.Pitch))
}

// GetForward returns the full view direction including pitch.
func (c *Camera) GetForward() math.Vec3 {
	return c.Rotation().RotateVector(math.Vec3Back)
}

// HorizontalForward returns the unit heading on the XZ plane.
func (c *Camera) HorizontalForward() math.Vec3 {
	return math.Vec3{X: -math32.Sin(c.Yaw), Z: -math32.Cos(c.Yaw)}
}

// HorizontalRight returns the unit strafe direction on the XZ plane.
func (c *Camera) HorizontalRight() math.Vec3 {
	return math.Vec3{X: math32.Cos(c.Yaw), Z: -math32.Sin(c.Yaw)}
}

func (c *Camera) GetViewMatrix() math.Mat4 {
	return math.Mat4Compose(c.Position, c.Rotation(), math.Vec3One).Inverse()
}

func (c *Camera) GetProjectionMatrix() math.Mat4 {
	return math.Mat4Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
}

// GetViewProjectionMatrix returns view*projection (row-vector order).
func (c *Camera) GetViewProjectionMatrix() math.Mat4 {
	return c.GetViewMatrix().Mul(c.GetProjectionMatrix())
}
