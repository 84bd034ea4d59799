package raycast

import (
	"sort"
	"sync"

	"gallery-engine/math"
	"gallery-engine/scene"
)

// maxTrianglesPerLeaf is the threshold for splitting BVH nodes.
const maxTrianglesPerLeaf = 4

// bvhNode is a node of a mesh-local bounding volume hierarchy. Internal
// nodes have two children; leaves list triangle indices.
type bvhNode struct {
	bounds    math.Box3
	left      *bvhNode
	right     *bvhNode
	triangles []int
}

var accelMu sync.Mutex

// meshBVH returns the mesh's hierarchy, building it on first use.
func meshBVH(m *scene.Mesh) *bvhNode {
	accelMu.Lock()
	defer accelMu.Unlock()

	if root, ok := m.AccelData.(*bvhNode); ok {
		return root
	}
	tris := make([]int, m.TriangleCount())
	for i := range tris {
		tris[i] = i
	}
	root := buildBVH(m, tris)
	m.AccelData = root
	return root
}

func buildBVH(m *scene.Mesh, tris []int) *bvhNode {
	if len(tris) == 0 {
		return nil
	}
	node := &bvhNode{bounds: math.EmptyBox3()}
	for _, t := range tris {
		a, b, c := m.Triangle(t)
		node.bounds = node.bounds.Expand(a).Expand(b).Expand(c)
	}

	if len(tris) <= maxTrianglesPerLeaf {
		node.triangles = tris
		return node
	}

	// Split the longest axis at the median centroid.
	extent := node.bounds.Size()
	axis := func(v math.Vec3) float32 { return v.X }
	if extent.Y > extent.X && extent.Y > extent.Z {
		axis = func(v math.Vec3) float32 { return v.Y }
	} else if extent.Z > extent.X && extent.Z > extent.Y {
		axis = func(v math.Vec3) float32 { return v.Z }
	}

	centroid := func(t int) float32 {
		a, b, c := m.Triangle(t)
		return axis(a.Add(b).Add(c))
	}
	sort.Slice(tris, func(i, j int) bool {
		return centroid(tris[i]) < centroid(tris[j])
	})

	mid := len(tris) / 2
	node.left = buildBVH(m, tris[:mid])
	node.right = buildBVH(m, tris[mid:])
	return node
}

// intersect finds the closest triangle hit closer than maxT that keep
// approves (nil keeps all). origin and dir are in mesh-local space; t is
// measured in units of dir.
func (n *bvhNode) intersect(m *scene.Mesh, origin, dir math.Vec3, maxT float32, keep func(int, float32) bool) (float32, int, bool) {
	if n == nil {
		return 0, -1, false
	}
	if _, ok := n.bounds.IntersectRay(origin, dir, maxT); !ok {
		return 0, -1, false
	}

	if n.triangles != nil {
		best, bestTri, found := maxT, -1, false
		for _, t := range n.triangles {
			a, b, c := m.Triangle(t)
			d, ok := mollerTrumbore(origin, dir, a, b, c)
			if ok && d < best && (keep == nil || keep(t, d)) {
				best, bestTri, found = d, t, true
			}
		}
		return best, bestTri, found
	}

	best, bestTri, found := maxT, -1, false
	if d, t, ok := n.left.intersect(m, origin, dir, best, keep); ok {
		best, bestTri, found = d, t, true
	}
	if d, t, ok := n.right.intersect(m, origin, dir, best, keep); ok {
		best, bestTri, found = d, t, true
	}
	return best, bestTri, found
}

// mollerTrumbore implements the Möller–Trumbore ray-triangle intersection algorithm
func mollerTrumbore(origin, dir, v0, v1, v2 math.Vec3) (float32, bool) {
	const epsilon = 0.0000001

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := dir.Cross(edge2)
	a := edge1.Dot(h)

	if a > -epsilon && a < epsilon {
		return 0, false // parallel
	}

	f := 1.0 / a
	s := origin.Sub(v0)
	u := f * s.Dot(h)

	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * dir.Dot(q)

	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	return t, t > epsilon
}
