package renderer

import (
	"errors"
	"fmt"

	"gallery-engine/core"
	"gallery-engine/internal/opengl"
	"gallery-engine/scene"
)

var ErrNoCamera = errors.New("renderer: scene has no camera")

// RenderEngine draws a scene graph through the OpenGL backend.
type RenderEngine struct {
	gl     *opengl.Renderer
	window *core.Window
	Scene  *scene.Scene

	lastObjects   int
	lastTriangles int
}

func NewRenderEngine(window *core.Window) (*RenderEngine, error) {
	glRenderer, err := opengl.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}

	glRenderer.SetViewport(window.Width, window.Height)

	return &RenderEngine{
		gl:     glRenderer,
		window: window,
	}, nil
}

func (re *RenderEngine) SetScene(s *scene.Scene) {
	re.Scene = s
}

// Render draws every visible mesh node. Hidden subtrees, such as
// placement anchors, are skipped.
func (re *RenderEngine) Render() error {
	if re.Scene == nil || re.Scene.Camera == nil {
		return ErrNoCamera
	}

	cam := re.Scene.Camera
	re.gl.BeginFrame(re.Scene.SkyColor, re.Scene.Sun, re.Scene.Ambient, cam.Position)

	vp := cam.GetViewProjectionMatrix()
	objects, triangles := 0, 0

	for _, node := range re.Scene.GetVisibleNodes() {
		model := node.GetWorldMatrix()
		re.gl.DrawMesh(node.Mesh, model.Mul(vp), model)

		objects++
		triangles += node.Mesh.TriangleCount()
	}

	re.lastObjects = objects
	re.lastTriangles = triangles
	return nil
}

// Present swaps the window buffers.
func (re *RenderEngine) Present() {
	re.window.SwapBuffers()
}

func (re *RenderEngine) Resize(width, height int) {
	re.gl.SetViewport(width, height)
	if re.Scene != nil && re.Scene.Camera != nil {
		re.Scene.Camera.UpdateAspectRatio(float32(width), float32(height))
	}
}

// ReleaseSubtree frees GPU buffers and textures held by a detached subtree.
func (re *RenderEngine) ReleaseSubtree(root *scene.Node) {
	if root == nil {
		return
	}
	root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil {
			return
		}
		re.gl.ReleaseMesh(n.Mesh)
		if mat := n.Mesh.Material; mat != nil {
			opengl.DeleteTexture(mat.AlbedoTexture)
		}
	})
}

func (re *RenderEngine) Destroy() {
	re.gl.Destroy()
}

// DrawStats returns the object and triangle counts of the last frame.
func (re *RenderEngine) DrawStats() (objects, triangles int) {
	return re.lastObjects, re.lastTriangles
}
