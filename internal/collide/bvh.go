package collide

import "sort"

// BVH is a binary bounding volume hierarchy over a set of leaf boxes,
// rebuilt from scratch each step by median splits on the longest centroid
// axis. Leaves are referenced by their index in the slice passed to Build.
type BVH struct {
	nodes []bvhNode
}

type bvhNode struct {
	bounds AABB
	// left and right index into nodes for interior nodes; leaf is the leaf
	// index for leaf nodes, -1 otherwise.
	left, right int32
	leaf        int32
}

// Build reconstructs the hierarchy for the given leaf bounds.
func (t *BVH) Build(leaves []AABB) {
	t.nodes = t.nodes[:0]
	if len(leaves) == 0 {
		return
	}
	order := make([]int32, len(leaves))
	for i := range order {
		order[i] = int32(i)
	}
	t.build(leaves, order)
}

func (t *BVH) build(leaves []AABB, order []int32) int32 {
	bounds := EmptyAABB()
	for _, i := range order {
		bounds = bounds.Union(leaves[i])
	}

	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, bvhNode{bounds: bounds, left: -1, right: -1, leaf: -1})

	if len(order) == 1 {
		t.nodes[idx].leaf = order[0]
		return idx
	}

	// Split at the median along the longest axis of the centroid bounds.
	centroids := EmptyAABB()
	for _, i := range order {
		c := leaves[i].Center()
		centroids = centroids.Union(AABB{Min: c, Max: c})
	}
	axis := centroids.LongestAxis()

	sort.Slice(order, func(a, b int) bool {
		return leaves[order[a]].Center()[axis] < leaves[order[b]].Center()[axis]
	})
	mid := len(order) / 2

	left := t.build(leaves, order[:mid])
	right := t.build(leaves, order[mid:])
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	return idx
}

// Query visits every leaf whose bounds overlap b.
func (t *BVH) Query(b AABB, fn func(leaf int)) {
	if len(t.nodes) == 0 {
		return
	}
	t.query(0, b, fn)
}

func (t *BVH) query(node int32, b AABB, fn func(leaf int)) {
	n := &t.nodes[node]
	if !n.bounds.Overlaps(b) {
		return
	}
	if n.leaf >= 0 {
		fn(int(n.leaf))
		return
	}
	t.query(n.left, b, fn)
	t.query(n.right, b, fn)
}
