package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func testFrustum() Frustum {
	view := LookAt(mgl32.Vec3{0, 15, 60}, mgl32.Vec3{0, 15, 0}, mgl32.Vec3{0, 1, 0})
	proj := Perspective(mgl32.DegToRad(60), 1, 0.1, 200)
	return ExtractFrustumFromMatrix(proj.Mul4(view))
}

func TestExtractFrustumFromMatrix(t *testing.T) {
	f := testFrustum()

	for _, p := range f.Planes {
		require.InDelta(t, 1, p.Normal.Len(), 1e-4)
	}

	require.True(t, f.ContainsPoint(mgl32.Vec3{0, 15, 0}))
	require.False(t, f.ContainsPoint(mgl32.Vec3{0, 15, 70}))
	require.False(t, f.ContainsPoint(mgl32.Vec3{0, 15, -150}))

	// near plane faces along the view direction
	require.True(t, f.Planes[FrustumNear].Normal.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-4))

	box := f.AABB()
	require.InDelta(t, 60-200, box.Min[2], 5e-2)
	require.InDelta(t, 60-0.1, box.Max[2], 1e-2)
}

func TestFrustumContainment(t *testing.T) {
	f := testFrustum()

	require.Equal(t, Contains, f.ContainsAABB(NewAABB(mgl32.Vec3{0, 15, 0}, mgl32.Vec3{16, 16, 16})))
	require.Equal(t, Intersects, f.ContainsAABB(NewAABB(mgl32.Vec3{0, 15, 60}, mgl32.Vec3{4, 4, 4})))
	require.Equal(t, Disjoint, f.ContainsAABB(NewAABB(mgl32.Vec3{0, 15, 100}, mgl32.Vec3{4, 4, 4})))
	require.Equal(t, Disjoint, f.ContainsOrientedBox(NewOrientedBox(mgl32.Vec3{500, 15, 0}, mgl32.Vec3{1, 1, 1})))
}

// narrowFrustum sits at the origin looking down -Z.
func narrowFrustum() Frustum {
	view := LookAt(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	proj := Perspective(mgl32.DegToRad(60), 1, 1, 20)
	return ExtractFrustumFromMatrix(proj.Mul4(view))
}

// hullsSeparated projects both vertex sets onto the face normals of each
// hull and every pairwise edge cross product.
func hullsSeparated(f Frustum, ob OrientedBox) bool {
	box := ob.Corners()
	axes := []mgl32.Vec3{ob.Axes[0], ob.Axes[1], ob.Axes[2]}
	for _, p := range f.Planes {
		axes = append(axes, p.Normal)
	}
	edges := []mgl32.Vec3{
		f.Corners[1].Sub(f.Corners[0]), f.Corners[2].Sub(f.Corners[0]),
		f.Corners[4].Sub(f.Corners[0]), f.Corners[5].Sub(f.Corners[1]),
		f.Corners[6].Sub(f.Corners[2]), f.Corners[7].Sub(f.Corners[3]),
	}
	for _, e := range edges {
		for _, a := range ob.Axes {
			if c := e.Cross(a); c.Len() > 1e-6 {
				axes = append(axes, c.Normalize())
			}
		}
	}

	span := func(points []mgl32.Vec3, axis mgl32.Vec3) (float32, float32) {
		lo, hi := points[0].Dot(axis), points[0].Dot(axis)
		for _, p := range points[1:] {
			d := p.Dot(axis)
			if d < lo {
				lo = d
			}
			if d > hi {
				hi = d
			}
		}
		return lo, hi
	}
	for _, axis := range axes {
		flo, fhi := span(f.Corners[:], axis)
		blo, bhi := span(box[:], axis)
		if fhi < blo-1e-3 || bhi < flo-1e-3 {
			return true
		}
	}
	return false
}

func TestFrustumEdgeAndCornerBoxes(t *testing.T) {
	f := narrowFrustum()

	t.Run("box beyond far corner is disjoint", func(t *testing.T) {
		ob := NewOrientedBox(mgl32.Vec3{-14, -14, -21}, mgl32.Vec3{1.5, 1.5, 1.5})
		require.True(t, hullsSeparated(f, ob))
		require.Equal(t, Disjoint, f.ContainsOrientedBox(ob))
		require.Equal(t, Disjoint, f.ContainsAABB(ob.AABB()))
	})

	t.Run("box beyond far edge is disjoint", func(t *testing.T) {
		ob := NewOrientedBox(mgl32.Vec3{0, 13.2, -21}, mgl32.Vec3{1.5, 1.5, 1.5})
		require.True(t, hullsSeparated(f, ob))
		require.Equal(t, Disjoint, f.ContainsOrientedBox(ob))
	})

	t.Run("sweep agrees with hull separation", func(t *testing.T) {
		ext := mgl32.Vec3{1.5, 1.5, 1.5}
		for x := float32(-16); x <= 16; x += 2 {
			for y := float32(-16); y <= 16; y += 2 {
				for z := float32(-24); z <= 2; z += 2 {
					ob := NewOrientedBox(mgl32.Vec3{x, y, z}, ext)
					got := f.ContainsOrientedBox(ob)
					if hullsSeparated(f, ob) {
						require.Equal(t, Disjoint, got, "centre %v", ob.Center)
					}
					if f.ContainsPoint(ob.Center) {
						require.NotEqual(t, Disjoint, got, "centre %v", ob.Center)
					}
				}
			}
		}
	})
}

func TestOrthographicFrustum(t *testing.T) {
	view := LookAt(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := Orthographic(20, 10, 1, 50)
	f := ExtractFrustumFromMatrix(proj.Mul4(view))

	require.True(t, f.ContainsPoint(mgl32.Vec3{9.9, 4.9, 0}))
	require.False(t, f.ContainsPoint(mgl32.Vec3{10.1, 0, 0}))
	require.False(t, f.ContainsPoint(mgl32.Vec3{0, 5.1, 0}))
	require.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 9.5}))
	require.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, -39.5}))
}

func TestInvert4(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(0.7)).Mul4(mgl32.Scale3D(2, 2, 2))
	inv, ok := Invert4(m)
	require.True(t, ok)
	require.True(t, m.Mul4(inv).ApproxEqualThreshold(mgl32.Ident4(), 1e-5))

	_, ok = Invert4(mgl32.Mat4{})
	require.False(t, ok)
}
