// Package raycast finds the surfaces a ray meets in a scene graph. Each mesh
// is tested in its own local space against a lazily built BVH, so meshes
// shared between clones share one hierarchy.
package raycast

import (
	"gallery-engine/math"
	"gallery-engine/scene"
)

// Ray represents a ray in 3D space. Direction need not be normalized, but
// distances are reported in units of its length.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Hit stores the result of a ray intersection test
type Hit struct {
	Distance float32
	Point    math.Vec3
	Normal   math.Vec3 // world-space face normal, following triangle winding
	Node     *scene.Node
	FaceIdx  int // triangle index in the mesh
}

// Cast returns the nearest hit within maxDist against the visible meshes
// under roots.
func Cast(ray Ray, maxDist float32, roots ...*scene.Node) (Hit, bool) {
	return CastFirst(ray, maxDist, nil, roots...)
}

// CastFirst returns the nearest hit within maxDist that accept approves.
// Rejected triangles do not occlude the ones behind them. A nil accept
// approves every hit.
func CastFirst(ray Ray, maxDist float32, accept func(Hit) bool, roots ...*scene.Node) (Hit, bool) {
	closest := Hit{Distance: maxDist}
	found := false
	visitMeshes(roots, func(node *scene.Node) {
		if h, ok := castNode(ray, closest.Distance, node, accept); ok {
			closest, found = h, true
		}
	})
	if !found {
		return Hit{}, false
	}
	return closest, true
}

// FacesAgainst reports whether the hit surface faces back along the ray.
func FacesAgainst(ray Ray) func(Hit) bool {
	return func(h Hit) bool {
		return h.Normal.Dot(ray.Direction) < 0
	}
}

func visitMeshes(roots []*scene.Node, fn func(*scene.Node)) {
	for _, root := range roots {
		if root == nil || !root.IsVisibleInWorld() {
			continue
		}
		root.TraverseVisible(func(n *scene.Node) {
			if n.Mesh != nil && n.Mesh.TriangleCount() > 0 {
				fn(n)
			}
		})
	}
}

func castNode(ray Ray, maxDist float32, node *scene.Node, accept func(Hit) bool) (Hit, bool) {
	world := node.GetWorldMatrix()

	// Broad phase: world AABB
	if _, ok := node.Mesh.LocalAABB.Transform(world).IntersectRay(ray.Origin, ray.Direction, maxDist); !ok {
		return Hit{}, false
	}
	if world.Det3() == 0 {
		return Hit{}, false
	}

	// Narrow phase in local space; an affine inverse keeps t unchanged.
	inv := world.Inverse()
	localOrigin := inv.MulVec3(ray.Origin)
	localDir := inv.MulDir(ray.Direction)

	hitAt := func(tri int, t float32) Hit {
		a, b, c := node.Mesh.Triangle(tri)
		a, b, c = world.MulVec3(a), world.MulVec3(b), world.MulVec3(c)
		return Hit{
			Distance: t,
			Point:    ray.At(t),
			Normal:   b.Sub(a).Cross(c.Sub(a)).Normalize(),
			Node:     node,
			FaceIdx:  tri,
		}
	}

	var keep func(int, float32) bool
	if accept != nil {
		keep = func(tri int, t float32) bool { return accept(hitAt(tri, t)) }
	}

	t, tri, ok := meshBVH(node.Mesh).intersect(node.Mesh, localOrigin, localDir, maxDist, keep)
	if !ok {
		return Hit{}, false
	}
	return hitAt(tri, t), true
}

// ScreenToRay converts a screen-space cursor position to a world-space ray
func ScreenToRay(cursorX, cursorY, screenWidth, screenHeight float32, camera *scene.Camera) Ray {
	// Convert to normalized device coordinates (-1 to 1)
	ndcX := (2.0*cursorX)/screenWidth - 1.0
	ndcY := 1.0 - (2.0*cursorY)/screenHeight // flip Y

	clipNear := math.Vec4{X: ndcX, Y: ndcY, Z: -1.0, W: 1.0}
	invViewProj := camera.GetViewProjectionMatrix().Inverse()
	worldNear := invViewProj.MulVec(clipNear).ToVec3DivW()

	return Ray{
		Origin:    camera.Position,
		Direction: worldNear.Sub(camera.Position).Normalize(),
	}
}
