package spatial

import (
	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/entity"
	"github.com/go-gl/mathgl/mgl32"
)

// Index is a bounds-keyed tree over entity handles. It holds no ownership of the
// entities: every stored reference is a handle plus the world bounds it was
// inserted with.
//
// All operations fail softly: before Initialize they return false and leave the
// output untouched. Queries take a read lock so several cameras may cull at once;
// mutations take the write lock and must not overlap a visibility pass.
type Index interface {
	// Initialize sets the world extent and discards any previous contents.
	// Entities whose bounds fall outside the extent are never inserted.
	//
	// Parameters:
	//   - bounds: the maximum extent of the world
	Initialize(bounds common.AABB)

	// Initialized reports whether Initialize has been called.
	//
	// Returns:
	//   - bool: true once a root exists
	Initialized() bool

	// Bounds returns the root extent.
	//
	// Returns:
	//   - common.AABB: the world extent, or the zero box before Initialize
	Bounds() common.AABB

	// Insert stores h in every leaf its bounds intersect, splitting leaves that
	// exceed capacity while the depth limit allows it.
	//
	// Parameters:
	//   - h: the entity handle
	//   - bounds: the entity's world-space oriented box
	//
	// Returns:
	//   - bool: true if h was stored in at least one leaf
	Insert(h entity.Handle, bounds common.OrientedBox) bool

	// Remove deletes h from every leaf reached by the same traversal Insert
	// would take, then collapses one level where the children fit in a single leaf.
	// Removing an absent handle is a no-op.
	//
	// Parameters:
	//   - h: the entity handle
	//   - bounds: the bounds h was inserted with
	//   - skipIntersection: visit every node regardless of bounds
	//
	// Returns:
	//   - bool: false only when the index is not initialized
	Remove(h entity.Handle, bounds common.OrientedBox, skipIntersection bool) bool

	// FrustumCull appends every handle whose bounds intersect f to out, once each.
	//
	// Parameters:
	//   - f: the query frustum
	//   - out: destination slice, appended to
	//
	// Returns:
	//   - bool: false when the index is not initialized or an argument is nil
	FrustumCull(f *common.Frustum, out *[]entity.Handle) bool

	// BoxCull appends every handle whose bounds intersect box to out, once each.
	//
	// Parameters:
	//   - box: the query oriented box
	//   - out: destination slice, appended to
	//
	// Returns:
	//   - bool: false when the index is not initialized or an argument is nil
	BoxCull(box *common.OrientedBox, out *[]entity.Handle) bool

	// Cull dispatches to the frustum or box query for any common.Volume.
	//
	// Parameters:
	//   - vol: the query volume
	//   - out: destination slice, appended to
	//
	// Returns:
	//   - bool: false when the index is not initialized or an argument is nil
	Cull(vol common.Volume, out *[]entity.Handle) bool

	// Raycast finds the nearest entity whose bounds the ray hits.
	//
	// Parameters:
	//   - origin: ray origin
	//   - dir: ray direction, any non-zero length
	//
	// Returns:
	//   - entity.Handle: the nearest hit
	//   - float32: distance along the normalized ray
	//   - bool: false if nothing was hit
	Raycast(origin, dir mgl32.Vec3) (entity.Handle, float32, bool)

	// Has reports whether h is stored anywhere in the tree.
	//
	// Parameters:
	//   - h: the entity handle
	//
	// Returns:
	//   - bool: true if some leaf references h
	Has(h entity.Handle) bool

	// Stats walks the tree and reports its shape.
	//
	// Returns:
	//   - Stats: node, leaf and item counts
	Stats() Stats
}

// Stats describes the shape of an Index.
type Stats struct {
	Nodes    int
	Leaves   int
	Items    int // distinct handles
	Refs     int // handle references including duplicates across leaves
	MaxDepth int
}
