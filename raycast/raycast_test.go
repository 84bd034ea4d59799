package raycast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery-engine/internal/testroom"
	"gallery-engine/math"
	"gallery-engine/scene"
)

const tol = 1e-4

func TestCastHitsNearestFace(t *testing.T) {
	box := testroom.Box("box", math.NewVec3(5, 0, 0), math.NewVec3(2, 2, 2))
	ray := Ray{Origin: math.NewVec3(0, 0.3, 0.1), Direction: math.Vec3Right}

	hit, ok := Cast(ray, 100, box)
	require.True(t, ok)
	assert.InDelta(t, 4, hit.Distance, tol)
	assert.InDelta(t, 4, hit.Point.X, tol)
	assert.InDelta(t, -1, hit.Normal.X, tol, "outward face normal")
	assert.Same(t, box, hit.Node)

	_, ok = Cast(ray, 3, box)
	assert.False(t, ok, "beyond max distance")

	_, ok = Cast(Ray{Origin: ray.Origin, Direction: math.Vec3Left}, 100, box)
	assert.False(t, ok)
}

func TestCastUsesWorldTransform(t *testing.T) {
	parent := scene.NewNode("parent")
	parent.SetPosition(math.NewVec3(0, 0, -10))
	parent.SetScale(math.NewVec3(3, 3, 3))
	child := testroom.Box("box", math.Vec3Zero, math.NewVec3(1, 1, 1))
	parent.AddChild(child)

	hit, ok := Cast(Ray{Origin: math.NewVec3(0.2, -0.1, 0), Direction: math.Vec3Back}, 100, parent)
	require.True(t, ok)
	// scaled cube spans z in [-11.5, -8.5]
	assert.InDelta(t, 8.5, hit.Distance, tol)
	assert.InDelta(t, 1, hit.Normal.Z, tol)
}

func TestCastSkipsHiddenNodes(t *testing.T) {
	near := testroom.Box("near", math.NewVec3(3, 0, 0), math.NewVec3(1, 1, 1))
	far := testroom.Box("far", math.NewVec3(8, 0, 0), math.NewVec3(1, 1, 1))
	root := scene.NewNode("root")
	root.AddChild(near)
	root.AddChild(far)
	ray := Ray{Origin: math.NewVec3(0, 0.2, 0.1), Direction: math.Vec3Right}

	hit, ok := Cast(ray, 100, root)
	require.True(t, ok)
	assert.Same(t, near, hit.Node)

	near.Visible = false
	hit, ok = Cast(ray, 100, root)
	require.True(t, ok)
	assert.Same(t, far, hit.Node)
}

func TestCastFirstSkipsRejectedFaces(t *testing.T) {
	room := testroom.Build(12, 28, 4)
	ray := Ray{Origin: math.NewVec3(0, 1.6, 0), Direction: math.Vec3Right}

	// the right wall's interior face is met first and faces the ray
	hit, ok := CastFirst(ray, 50, FacesAgainst(ray), room)
	require.True(t, ok)
	assert.InDelta(t, 6, hit.Point.X, tol)
	assert.InDelta(t, -1, hit.Normal.X, tol)

	// rejecting it exposes the wall's exterior face behind
	facesAway := func(h Hit) bool { return h.Normal.Dot(ray.Direction) > 0 }
	hit, ok = CastFirst(ray, 50, facesAway, room)
	require.True(t, ok)
	assert.InDelta(t, 6.2, hit.Point.X, tol)

	down := Ray{Origin: math.NewVec3(0.3, 3, -0.7), Direction: math.Vec3Down}
	up := func(h Hit) bool { return h.Normal.Y > 0.7 }
	hit, ok = CastFirst(down, 10, up, room)
	require.True(t, ok)
	assert.InDelta(t, 0, hit.Point.Y, tol)
}

func TestBVHMatchesBruteForce(t *testing.T) {
	// a strip of many small quads so the hierarchy has several levels
	root := scene.NewNode("strip")
	for i := 0; i < 40; i++ {
		root.AddChild(testroom.Box("cell", math.NewVec3(float32(i), 0, 0), math.NewVec3(0.5, 0.5, 0.5)))
	}
	merged := mergeMeshes(root)
	node := scene.NewNode("merged")
	node.Mesh = merged

	for i := 0; i < 40; i++ {
		ray := Ray{Origin: math.NewVec3(float32(i)+0.1, 5, 0.05), Direction: math.Vec3Down}
		hit, ok := Cast(ray, 10, node)
		require.True(t, ok, "cell %d", i)
		assert.InDelta(t, 4.75, hit.Distance, tol)
	}
	_, ok := Cast(Ray{Origin: math.NewVec3(0.5, 5, 0.05), Direction: math.Vec3Down}, 10, node)
	assert.False(t, ok, "gap between cells")
}

func TestScreenToRayCentre(t *testing.T) {
	cam := scene.NewCamera(1, 1, 0.1, 100)
	cam.Position = math.NewVec3(0, 1.6, 0)

	ray := ScreenToRay(50, 50, 100, 100, cam)
	assert.InDelta(t, -1, ray.Direction.Z, tol)
	assert.Equal(t, cam.Position, ray.Origin)
}

// mergeMeshes bakes every mesh under root into one world-space mesh.
func mergeMeshes(root *scene.Node) *scene.Mesh {
	var out scene.Mesh
	root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil {
			return
		}
		world := n.GetWorldMatrix()
		base := uint32(len(out.Vertices))
		for _, v := range n.Mesh.Vertices {
			v.Position = world.MulVec3(v.Position)
			out.Vertices = append(out.Vertices, v)
		}
		for _, idx := range n.Mesh.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	})
	return scene.CreateMeshFromData("merged", out.Vertices, out.Indices)
}
