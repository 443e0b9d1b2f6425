package spatial

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/entity"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultCapacity is the number of items a leaf holds before it splits.
	DefaultCapacity = 8

	// DefaultMaxDepth bounds how deep the tree may split. The root is depth 0.
	DefaultMaxDepth = 6
)

type item struct {
	handle entity.Handle
	bounds common.OrientedBox
	box    common.AABB
}

type node struct {
	box      common.AABB
	depth    int
	items    []item
	children []*node // nil for leaves
}

func (n *node) leaf() bool {
	return n.children == nil
}

// tree implements Index for both the horizontal quadtree and the octree.
// The two differ only in how a node box is partitioned on split.
type tree struct {
	mu sync.RWMutex

	root     *node
	capacity int
	maxDepth int

	partition func(box common.AABB) []common.AABB
}

var _ Index = &tree{}

// NewQuadtree creates a horizontal quadtree. Splits partition a node in the X/Z
// plane only; every child keeps its parent's full Y extent.
//
// Parameters:
//   - options: functional options to configure the tree
//
// Returns:
//   - Index: the newly created quadtree
func NewQuadtree(options ...IndexBuilderOption) Index {
	return newTree(partitionXZ, options...)
}

// NewOctree creates an octree. Splits partition a node into eight octants.
//
// Parameters:
//   - options: functional options to configure the tree
//
// Returns:
//   - Index: the newly created octree
func NewOctree(options ...IndexBuilderOption) Index {
	return newTree(partitionXYZ, options...)
}

func newTree(partition func(common.AABB) []common.AABB, options ...IndexBuilderOption) *tree {
	t := &tree{
		capacity:  DefaultCapacity,
		maxDepth:  DefaultMaxDepth,
		partition: partition,
	}
	for _, option := range options {
		option(t)
	}
	if t.capacity < 1 {
		panic("spatial: capacity must be at least 1")
	}
	if t.maxDepth < 0 {
		panic("spatial: max depth must not be negative")
	}
	return t
}

func partitionXZ(box common.AABB) []common.AABB {
	c := box.Center()
	out := make([]common.AABB, 0, 4)
	for _, x := range [2][2]float32{{box.Min[0], c[0]}, {c[0], box.Max[0]}} {
		for _, z := range [2][2]float32{{box.Min[2], c[2]}, {c[2], box.Max[2]}} {
			out = append(out, common.AABB{
				Min: mgl32.Vec3{x[0], box.Min[1], z[0]},
				Max: mgl32.Vec3{x[1], box.Max[1], z[1]},
			})
		}
	}
	return out
}

func partitionXYZ(box common.AABB) []common.AABB {
	c := box.Center()
	out := make([]common.AABB, 0, 8)
	for _, x := range [2][2]float32{{box.Min[0], c[0]}, {c[0], box.Max[0]}} {
		for _, y := range [2][2]float32{{box.Min[1], c[1]}, {c[1], box.Max[1]}} {
			for _, z := range [2][2]float32{{box.Min[2], c[2]}, {c[2], box.Max[2]}} {
				out = append(out, common.AABB{
					Min: mgl32.Vec3{x[0], y[0], z[0]},
					Max: mgl32.Vec3{x[1], y[1], z[1]},
				})
			}
		}
	}
	return out
}

func (t *tree) Initialize(bounds common.AABB) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = &node{box: bounds}
}

func (t *tree) Initialized() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root != nil
}

func (t *tree) Bounds() common.AABB {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.root == nil {
		return common.AABB{}
	}
	return t.root.box
}

func (t *tree) Insert(h entity.Handle, bounds common.OrientedBox) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		return false
	}
	return t.insert(t.root, item{handle: h, bounds: bounds, box: bounds.AABB()})
}

// insert places it under n. Caller must hold the write lock.
func (t *tree) insert(n *node, it item) bool {
	if !n.box.Intersects(it.box) {
		return false
	}

	if n.leaf() {
		for i := range n.items {
			if n.items[i].handle == it.handle {
				n.items[i] = it
				return true
			}
		}
		if len(n.items) < t.capacity || n.depth >= t.maxDepth {
			n.items = append(n.items, it)
			return true
		}
		t.split(n)
	}

	inserted := false
	for _, c := range n.children {
		if t.insert(c, it) {
			inserted = true
		}
	}
	return inserted
}

// split turns leaf n into an internal node and redistributes its items.
// Caller must hold the write lock.
func (t *tree) split(n *node) {
	boxes := t.partition(n.box)
	n.children = make([]*node, len(boxes))
	for i, b := range boxes {
		n.children[i] = &node{box: b, depth: n.depth + 1}
	}

	items := n.items
	n.items = nil
	for _, it := range items {
		for _, c := range n.children {
			t.insert(c, it)
		}
	}
}

func (t *tree) Remove(h entity.Handle, bounds common.OrientedBox, skipIntersection bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		return false
	}
	t.remove(t.root, h, bounds.AABB(), skipIntersection)
	return true
}

// remove deletes h below n. It reports whether anything was removed and whether
// a node in the subtree collapsed, so at most one level merges per removal.
// Caller must hold the write lock.
func (t *tree) remove(n *node, h entity.Handle, box common.AABB, skip bool) (removed, collapsed bool) {
	if !skip && !n.box.Intersects(box) {
		return false, false
	}

	if n.leaf() {
		kept := n.items[:0]
		for _, it := range n.items {
			if it.handle == h {
				removed = true
				continue
			}
			kept = append(kept, it)
		}
		clear(n.items[len(kept):])
		n.items = kept
		return removed, false
	}

	for _, c := range n.children {
		r, col := t.remove(c, h, box, skip)
		removed = removed || r
		collapsed = collapsed || col
	}
	if removed && !collapsed {
		collapsed = t.collapse(n)
	}
	return removed, collapsed
}

// collapse merges the children of n back into n when they are all leaves and
// their distinct items fit in one leaf.
// Caller must hold the write lock.
func (t *tree) collapse(n *node) bool {
	distinct := 0
	seen := make(map[entity.Handle]struct{})
	for _, c := range n.children {
		if !c.leaf() {
			return false
		}
		for _, it := range c.items {
			if _, ok := seen[it.handle]; ok {
				continue
			}
			seen[it.handle] = struct{}{}
			distinct++
			if distinct > t.capacity {
				return false
			}
		}
	}

	merged := make([]item, 0, distinct)
	clear(seen)
	for _, c := range n.children {
		for _, it := range c.items {
			if _, ok := seen[it.handle]; ok {
				continue
			}
			seen[it.handle] = struct{}{}
			merged = append(merged, it)
		}
	}
	n.items = merged
	n.children = nil
	return true
}

func (t *tree) FrustumCull(f *common.Frustum, out *[]entity.Handle) bool {
	if f == nil {
		return false
	}
	return t.Cull(f, out)
}

func (t *tree) BoxCull(box *common.OrientedBox, out *[]entity.Handle) bool {
	if box == nil {
		return false
	}
	return t.Cull(box, out)
}

func (t *tree) Cull(vol common.Volume, out *[]entity.Handle) bool {
	if vol == nil || out == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.root == nil {
		return false
	}
	seen := make(map[entity.Handle]struct{})
	t.cull(t.root, vol, out, seen)
	return true
}

// cull classifies n against vol: disjoint subtrees are pruned, contained subtrees
// are collected without further tests and straddling subtrees recurse.
// Caller must hold the read lock.
func (t *tree) cull(n *node, vol common.Volume, out *[]entity.Handle, seen map[entity.Handle]struct{}) {
	switch vol.ContainsAABB(n.box) {
	case common.Disjoint:
		return
	case common.Contains:
		t.collect(n, out, seen)
		return
	}

	if !n.leaf() {
		for _, c := range n.children {
			t.cull(c, vol, out, seen)
		}
		return
	}

	for _, it := range n.items {
		if _, ok := seen[it.handle]; ok {
			continue
		}
		if vol.ContainsOrientedBox(it.bounds) == common.Disjoint {
			continue
		}
		seen[it.handle] = struct{}{}
		*out = append(*out, it.handle)
	}
}

// collect appends every item of the subtree once.
// Caller must hold the read lock.
func (t *tree) collect(n *node, out *[]entity.Handle, seen map[entity.Handle]struct{}) {
	if !n.leaf() {
		for _, c := range n.children {
			t.collect(c, out, seen)
		}
		return
	}
	for _, it := range n.items {
		if _, ok := seen[it.handle]; ok {
			continue
		}
		seen[it.handle] = struct{}{}
		*out = append(*out, it.handle)
	}
}

type rayEntry struct {
	n *node
	t float32
}

func (t *tree) Raycast(origin, dir mgl32.Vec3) (entity.Handle, float32, bool) {
	l := dir.Len()
	if l == 0 {
		return entity.InvalidHandle, 0, false
	}
	d := dir.Mul(1 / l)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.root == nil {
		return entity.InvalidHandle, 0, false
	}
	if ok, _ := common.RaycastAABB(origin, d, t.root.box); !ok {
		return entity.InvalidHandle, 0, false
	}
	return t.raycast(t.root, origin, d)
}

// raycast visits children nearest-entry first. A child whose entry distance is
// already beyond the best hit cannot improve it, which ends the walk.
// Caller must hold the read lock.
func (t *tree) raycast(n *node, origin, dir mgl32.Vec3) (entity.Handle, float32, bool) {
	best := entity.InvalidHandle
	var bestDist float32
	hit := false

	if n.leaf() {
		for _, it := range n.items {
			ok, dist := common.RaycastOrientedBox(origin, dir, it.bounds)
			if ok && (!hit || dist < bestDist) {
				best, bestDist, hit = it.handle, dist, true
			}
		}
		return best, bestDist, hit
	}

	var buf [8]rayEntry
	order := buf[:0]
	for _, c := range n.children {
		ok, entry := common.RaycastAABB(origin, dir, c.box)
		if !ok {
			continue
		}
		order = append(order, rayEntry{n: c, t: entry})
		for j := len(order) - 1; j > 0 && order[j].t < order[j-1].t; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	for _, e := range order {
		if hit && e.t > bestDist {
			break
		}
		h, dist, ok := t.raycast(e.n, origin, dir)
		if ok && (!hit || dist < bestDist) {
			best, bestDist, hit = h, dist, true
		}
	}
	return best, bestDist, hit
}

func (t *tree) Has(h entity.Handle) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.root == nil {
		return false
	}
	var find func(n *node) bool
	find = func(n *node) bool {
		for _, it := range n.items {
			if it.handle == h {
				return true
			}
		}
		for _, c := range n.children {
			if find(c) {
				return true
			}
		}
		return false
	}
	return find(t.root)
}

func (t *tree) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var s Stats
	if t.root == nil {
		return s
	}
	seen := make(map[entity.Handle]struct{})
	var walk func(n *node)
	walk = func(n *node) {
		s.Nodes++
		s.MaxDepth = max(s.MaxDepth, n.depth)
		if n.leaf() {
			s.Leaves++
			s.Refs += len(n.items)
			for _, it := range n.items {
				seen[it.handle] = struct{}{}
			}
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	s.Items = len(seen)
	return s
}
