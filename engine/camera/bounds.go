package camera

import "github.com/Carmen-Shannon/oxy-cull/common"

// BoundsKind tags which member of Bounds is valid.
type BoundsKind int

const (
	// BoundsFrustum marks a perspective view frustum.
	BoundsFrustum BoundsKind = iota

	// BoundsOrientedBox marks an orthographic view box.
	BoundsOrientedBox
)

// Bounds is a camera's world-space culling volume. Only the member named by Kind
// carries data; callers switch on Kind rather than inspecting both.
type Bounds struct {
	Kind    BoundsKind
	Frustum common.Frustum
	Box     common.OrientedBox
}

// Volume returns the active member as a common.Volume.
func (b *Bounds) Volume() common.Volume {
	if b.Kind == BoundsOrientedBox {
		return &b.Box
	}
	return &b.Frustum
}

// AABB returns the axis-aligned box enclosing the active member.
func (b *Bounds) AABB() common.AABB {
	if b.Kind == BoundsOrientedBox {
		return b.Box.AABB()
	}
	return b.Frustum.AABB()
}
