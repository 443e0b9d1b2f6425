package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Containment is the tri-state result of classifying a box against a query volume.
type Containment int

const (
	// Disjoint means the box lies entirely outside the volume.
	Disjoint Containment = iota
	// Intersects means the box straddles the volume's boundary.
	Intersects
	// Contains means the box lies entirely inside the volume.
	Contains
)

func (c Containment) String() string {
	switch c {
	case Disjoint:
		return "disjoint"
	case Intersects:
		return "intersects"
	case Contains:
		return "contains"
	default:
		return "unknown"
	}
}

// Volume is a query shape the spatial index can cull against.
// Both the perspective Frustum and the orthographic OrientedBox implement it.
type Volume interface {
	// ContainsAABB classifies an axis-aligned box against the volume.
	//
	// Parameters:
	//   - box: the box to classify
	//
	// Returns:
	//   - Containment: Disjoint, Intersects or Contains
	ContainsAABB(box AABB) Containment

	// ContainsOrientedBox classifies an oriented box against the volume.
	//
	// Parameters:
	//   - ob: the box to classify
	//
	// Returns:
	//   - Containment: Disjoint, Intersects or Contains
	ContainsOrientedBox(ob OrientedBox) Containment

	// AABB returns the axis-aligned box enclosing the volume.
	//
	// Returns:
	//   - AABB: the enclosing world-space box
	AABB() AABB
}

// AABB is an axis-aligned bounding box described by its minimum and maximum corners.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewAABB builds a box from a centre and half extents.
//
// Parameters:
//   - center: the centre of the box
//   - extents: half sizes along X, Y and Z
//
// Returns:
//   - AABB: the resulting box
func NewAABB(center, extents mgl32.Vec3) AABB {
	return AABB{Min: center.Sub(extents), Max: center.Add(extents)}
}

// EmptyAABB returns an inverted box that any Extend call will overwrite.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// AABBFromPoints returns the smallest box enclosing every point.
func AABBFromPoints(points []mgl32.Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box = box.ExtendPoint(p)
	}
	return box
}

// IsEmpty reports whether the box is inverted on any axis.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Center returns the box centre.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extents returns the half sizes of the box.
func (b AABB) Extents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// ExtendPoint grows the box to include p.
func (b AABB) ExtendPoint(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box enclosing both b and o.
func (b AABB) Union(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	return b.ExtendPoint(o.Min).ExtendPoint(o.Max)
}

// Intersects reports whether the two boxes overlap. Touching faces count as overlap.
func (b AABB) Intersects(o AABB) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1] &&
		b.Min[2] <= o.Max[2] && b.Max[2] >= o.Min[2]
}

// ContainsPoint reports whether p is inside or on the box.
func (b AABB) ContainsPoint(p mgl32.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Encloses reports whether o lies entirely inside b.
func (b AABB) Encloses(o AABB) bool {
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// OrientedBox is an arbitrarily rotated box: a centre, three unit axes and the
// half extent along each axis.
type OrientedBox struct {
	Center  mgl32.Vec3
	Extents mgl32.Vec3
	Axes    [3]mgl32.Vec3
}

var _ Volume = &OrientedBox{}

// NewOrientedBox builds an axis-aligned oriented box from a centre and half extents.
//
// Parameters:
//   - center: the centre of the box
//   - extents: half sizes along the box axes
//
// Returns:
//   - OrientedBox: the box with world-aligned axes
func NewOrientedBox(center, extents mgl32.Vec3) OrientedBox {
	return OrientedBox{
		Center:  center,
		Extents: extents,
		Axes:    [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
}

// NewOrientedBoxFromAABB converts an axis-aligned box into an oriented box with world axes.
func NewOrientedBoxFromAABB(box AABB) OrientedBox {
	return NewOrientedBox(box.Center(), box.Extents())
}

// Transform returns ob transformed by m. Each scaled axis is pushed through the
// upper 3x3 of m and re-split into a unit axis and an extent, so non-uniform scale
// is folded into the extents. Shear is not represented.
func (ob OrientedBox) Transform(m mgl32.Mat4) OrientedBox {
	out := OrientedBox{Center: TransformPoint(m, ob.Center)}
	for i := 0; i < 3; i++ {
		v := TransformDirection(m, ob.Axes[i].Mul(ob.Extents[i]))
		l := v.Len()
		if l == 0 {
			out.Axes[i] = TransformDirection(m, ob.Axes[i])
			if al := out.Axes[i].Len(); al > 0 {
				out.Axes[i] = out.Axes[i].Mul(1 / al)
			} else {
				out.Axes[i] = ob.Axes[i]
			}
			continue
		}
		out.Axes[i] = v.Mul(1 / l)
		out.Extents[i] = l
	}
	return out
}

// Corners returns the eight corners of the box.
func (ob OrientedBox) Corners() [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	ax := ob.Axes[0].Mul(ob.Extents[0])
	ay := ob.Axes[1].Mul(ob.Extents[1])
	az := ob.Axes[2].Mul(ob.Extents[2])
	i := 0
	for _, sz := range [2]float32{-1, 1} {
		for _, sy := range [2]float32{-1, 1} {
			for _, sx := range [2]float32{-1, 1} {
				out[i] = ob.Center.Add(ax.Mul(sx)).Add(ay.Mul(sy)).Add(az.Mul(sz))
				i++
			}
		}
	}
	return out
}

// AABB returns the axis-aligned box enclosing ob.
func (ob OrientedBox) AABB() AABB {
	var ext mgl32.Vec3
	for i := 0; i < 3; i++ {
		axis := mgl32.Vec3{}
		axis[i] = 1
		ext[i] = ob.ProjectedRadius(axis)
	}
	return NewAABB(ob.Center, ext)
}

// ContainsPoint reports whether p lies inside or on ob.
func (ob *OrientedBox) ContainsPoint(p mgl32.Vec3) bool {
	d := p.Sub(ob.Center)
	for i := 0; i < 3; i++ {
		if math32.Abs(d.Dot(ob.Axes[i])) > ob.Extents[i] {
			return false
		}
	}
	return true
}

func (ob *OrientedBox) ContainsAABB(box AABB) Containment {
	return ob.ContainsOrientedBox(NewOrientedBoxFromAABB(box))
}

// ContainsOrientedBox classifies inner against ob. The inner box is projected onto
// each of ob's axes: it is contained when every projection fits inside ob's extent.
// Otherwise the full separating axis test decides between Disjoint and Intersects.
func (ob *OrientedBox) ContainsOrientedBox(inner OrientedBox) Containment {
	t := inner.Center.Sub(ob.Center)
	contained := true
	for i := 0; i < 3; i++ {
		dist := math32.Abs(t.Dot(ob.Axes[i]))
		r := inner.ProjectedRadius(ob.Axes[i])
		if dist > ob.Extents[i]+r {
			return Disjoint
		}
		if dist+r > ob.Extents[i] {
			contained = false
		}
	}
	if contained {
		return Contains
	}
	if !ob.Overlaps(inner) {
		return Disjoint
	}
	return Intersects
}

// Overlaps runs the 15-axis separating axis test between ob and o.
func (ob OrientedBox) Overlaps(o OrientedBox) bool {
	t := o.Center.Sub(ob.Center)
	separated := func(axis mgl32.Vec3) bool {
		if axis.Dot(axis) < 1e-10 {
			return false
		}
		return math32.Abs(t.Dot(axis)) > ob.ProjectedRadius(axis)+o.ProjectedRadius(axis)
	}
	for i := 0; i < 3; i++ {
		if separated(ob.Axes[i]) || separated(o.Axes[i]) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if separated(ob.Axes[i].Cross(o.Axes[j])) {
				return false
			}
		}
	}
	return true
}
