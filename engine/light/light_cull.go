package light

import "github.com/Carmen-Shannon/oxy-cull/common"

// Relevant runs the coarse light rejection test: a light only needs its cameras
// refreshed when its bounds touch at least one of the given view volumes. The
// test works on enclosing boxes, so it may accept lights that are not actually
// visible but never rejects one that is.
//
// Parameters:
//   - l: the light to test
//   - views: enclosing boxes of the main view and any cubemap due this frame
//
// Returns:
//   - bool: true if the light's bounds intersect any view
func Relevant(l Light, views ...common.AABB) bool {
	b := l.Bounds()
	if b.IsEmpty() {
		return false
	}
	for _, v := range views {
		if !v.IsEmpty() && b.Intersects(v) {
			return true
		}
	}
	return false
}
