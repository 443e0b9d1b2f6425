package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the signed distance of p from the plane. Positive values lie
// on the side the normal points to.
func (p Plane) SignedDistance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.Distance
}

// Frustum represents the six planes of a view frustum for culling, plus the eight
// world-space corners used for coarse bounding-box tests.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes  [6]Plane // Left, Right, Bottom, Top, Near, Far
	Corners [8]mgl32.Vec3
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

var _ Volume = &Frustum{}

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix using the zero-to-one
// clip depth convention produced by Perspective and Orthographic.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes and world corners
func ExtractFrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	// For column-major M, row i is (M[i], M[4+i], M[8+i], M[12+i]).
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	set := func(index int, v mgl32.Vec4) {
		f.Planes[index] = Plane{Normal: v.Vec3(), Distance: v[3]}
	}
	set(FrustumLeft, r3.Add(r0))
	set(FrustumRight, r3.Sub(r0))
	set(FrustumBottom, r3.Add(r1))
	set(FrustumTop, r3.Sub(r1))
	// zero-to-one depth: near is 0 <= z rather than -w <= z
	set(FrustumNear, r2)
	set(FrustumFar, r3.Sub(r2))

	for i := range f.Planes {
		f.normalizePlane(i)
	}

	if inv, ok := Invert4(viewProj); ok {
		i := 0
		for _, z := range [2]float32{0, 1} {
			for _, y := range [2]float32{-1, 1} {
				for _, x := range [2]float32{-1, 1} {
					f.Corners[i] = TransformPoint(inv, mgl32.Vec3{x, y, z})
					i++
				}
			}
		}
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := p.Normal.Len()
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
}

// AABB returns the axis-aligned box enclosing the frustum's corners.
func (f *Frustum) AABB() AABB {
	return AABBFromPoints(f.Corners[:])
}

// ContainsPoint reports whether v is inside or on every plane.
func (f *Frustum) ContainsPoint(v mgl32.Vec3) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(v) < 0 {
			return false
		}
	}
	return true
}

func (f *Frustum) ContainsAABB(box AABB) Containment {
	return f.ContainsOrientedBox(NewOrientedBoxFromAABB(box))
}

// ContainsOrientedBox classifies ob against the frustum with the plane-radius test:
// the box is projected onto each plane normal and compared with the signed
// distance of its centre. A box that straddles planes is then checked against
// the frustum hull with a separating-axis test, so boxes beyond an edge or a
// corner come back Disjoint.
func (f *Frustum) ContainsOrientedBox(ob OrientedBox) Containment {
	result := Contains
	for _, p := range f.Planes {
		d := p.SignedDistance(ob.Center)
		r := ob.ProjectedRadius(p.Normal)
		if d < -r {
			return Disjoint
		}
		if d < r {
			result = Intersects
		}
	}
	if result == Intersects && f.separatedFrom(ob) {
		return Disjoint
	}
	return result
}

// separatedFrom reports whether some box axis, or the cross product of a box
// axis with a frustum edge, separates the frustum hull from ob. Plane normals
// are covered by the plane pass. Without corners (singular matrix) nothing is
// separated.
func (f *Frustum) separatedFrom(ob OrientedBox) bool {
	if f.Corners[0] == f.Corners[7] {
		return false
	}

	// Corner index is x + 2y + 4z. Near and far edges along x and y are
	// parallel, leaving the four side edges plus one x and one y edge.
	edges := [6]mgl32.Vec3{
		f.Corners[1].Sub(f.Corners[0]),
		f.Corners[2].Sub(f.Corners[0]),
		f.Corners[4].Sub(f.Corners[0]),
		f.Corners[5].Sub(f.Corners[1]),
		f.Corners[6].Sub(f.Corners[2]),
		f.Corners[7].Sub(f.Corners[3]),
	}

	for _, axis := range ob.Axes {
		if f.separatedOnAxis(ob, axis) {
			return true
		}
	}
	for _, e := range edges {
		for _, a := range ob.Axes {
			axis := e.Cross(a)
			if axis.Len() < 1e-6 {
				continue
			}
			if f.separatedOnAxis(ob, axis.Normalize()) {
				return true
			}
		}
	}
	return false
}

func (f *Frustum) separatedOnAxis(ob OrientedBox, axis mgl32.Vec3) bool {
	lo, hi := f.Corners[0].Dot(axis), f.Corners[0].Dot(axis)
	for _, c := range f.Corners[1:] {
		d := c.Dot(axis)
		lo = math32.Min(lo, d)
		hi = math32.Max(hi, d)
	}
	c := ob.Center.Dot(axis)
	r := ob.ProjectedRadius(axis)
	return c+r < lo || c-r > hi
}

// ProjectedRadius returns the half-length of ob's projection onto axis n.
func (ob OrientedBox) ProjectedRadius(n mgl32.Vec3) float32 {
	return math32.Abs(n.Dot(ob.Axes[0]))*ob.Extents[0] +
		math32.Abs(n.Dot(ob.Axes[1]))*ob.Extents[1] +
		math32.Abs(n.Dot(ob.Axes[2]))*ob.Extents[2]
}
