package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestAABB(t *testing.T) {
	t.Run("center and extents round trip", func(t *testing.T) {
		b := NewAABB(mgl32.Vec3{0, 15, 0}, mgl32.Vec3{16, 16, 16})
		require.Equal(t, mgl32.Vec3{-16, -1, -16}, b.Min)
		require.Equal(t, mgl32.Vec3{16, 31, 16}, b.Max)
		require.Equal(t, mgl32.Vec3{0, 15, 0}, b.Center())
		require.Equal(t, mgl32.Vec3{16, 16, 16}, b.Extents())
	})

	t.Run("empty box grows from points", func(t *testing.T) {
		b := EmptyAABB()
		require.True(t, b.IsEmpty())

		b = b.ExtendPoint(mgl32.Vec3{1, 2, 3})
		b = b.ExtendPoint(mgl32.Vec3{-1, 0, 5})
		require.False(t, b.IsEmpty())
		require.Equal(t, mgl32.Vec3{-1, 0, 3}, b.Min)
		require.Equal(t, mgl32.Vec3{1, 2, 5}, b.Max)

		require.Equal(t, b, AABBFromPoints([]mgl32.Vec3{{1, 2, 3}, {-1, 0, 5}}))
	})

	t.Run("touching boxes intersect", func(t *testing.T) {
		a := NewAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
		b := NewAABB(mgl32.Vec3{2, 0, 0}, mgl32.Vec3{1, 1, 1})
		c := NewAABB(mgl32.Vec3{2.5, 0, 0}, mgl32.Vec3{1, 1, 1})
		require.True(t, a.Intersects(b))
		require.False(t, a.Intersects(c))
	})

	t.Run("union encloses both", func(t *testing.T) {
		a := NewAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
		b := NewAABB(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{1, 1, 1})
		u := a.Union(b)
		require.True(t, u.Encloses(a))
		require.True(t, u.Encloses(b))
		require.False(t, a.Encloses(u))
		require.Equal(t, a, EmptyAABB().Union(a))
	})
}

func TestOrientedBox(t *testing.T) {
	t.Run("rotated box encloses its corners", func(t *testing.T) {
		ob := NewOrientedBox(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}).
			Transform(mgl32.HomogRotate3DY(mgl32.DegToRad(45)))

		aabb := ob.AABB()
		for _, c := range ob.Corners() {
			require.True(t, aabb.ContainsPoint(c.Mul(0.999)))
		}
		require.InDelta(t, 1.41421, aabb.Extents()[0], 1e-4)
		require.InDelta(t, 1, aabb.Extents()[1], 1e-4)
	})

	t.Run("transform folds scale into extents", func(t *testing.T) {
		ob := NewOrientedBox(mgl32.Vec3{}, mgl32.Vec3{0.5, 0.5, 0.5}).
			Transform(mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 4, 6)))
		require.True(t, ob.Center.ApproxEqual(mgl32.Vec3{10, 0, 0}))
		require.True(t, ob.Extents.ApproxEqual(mgl32.Vec3{1, 2, 3}))
	})

	t.Run("classifies inner boxes", func(t *testing.T) {
		outer := NewOrientedBox(mgl32.Vec3{}, mgl32.Vec3{10, 10, 10})

		require.Equal(t, Contains, outer.ContainsOrientedBox(NewOrientedBox(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1})))
		require.Equal(t, Intersects, outer.ContainsOrientedBox(NewOrientedBox(mgl32.Vec3{10, 0, 0}, mgl32.Vec3{1, 1, 1})))
		require.Equal(t, Disjoint, outer.ContainsOrientedBox(NewOrientedBox(mgl32.Vec3{20, 0, 0}, mgl32.Vec3{1, 1, 1})))
		require.Equal(t, Disjoint, outer.ContainsAABB(NewAABB(mgl32.Vec3{0, -30, 0}, mgl32.Vec3{1, 1, 1})))
	})

	t.Run("separating axis rejects diagonal near miss", func(t *testing.T) {
		a := NewOrientedBox(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}).
			Transform(mgl32.HomogRotate3DY(mgl32.DegToRad(45)))
		b := NewOrientedBox(mgl32.Vec3{2.3, 0, 0}, mgl32.Vec3{0.5, 0.5, 0.5})
		c := NewOrientedBox(mgl32.Vec3{1.8, 0, 0}, mgl32.Vec3{0.5, 0.5, 0.5})

		require.False(t, a.Overlaps(b))
		require.True(t, a.Overlaps(c))
	})
}

func TestContainmentString(t *testing.T) {
	require.Equal(t, "disjoint", Disjoint.String())
	require.Equal(t, "intersects", Intersects.String())
	require.Equal(t, "contains", Contains.String())
}
