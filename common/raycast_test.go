package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestRaycastAABB(t *testing.T) {
	box := NewAABB(mgl32.Vec3{10, 0, 0}, mgl32.Vec3{1, 1, 1})

	t.Run("hit returns entry distance", func(t *testing.T) {
		hit, dist := RaycastAABB(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, box)
		require.True(t, hit)
		require.InDelta(t, 9, dist, 1e-4)
	})

	t.Run("ray pointing away misses", func(t *testing.T) {
		hit, _ := RaycastAABB(mgl32.Vec3{}, mgl32.Vec3{-1, 0, 0}, box)
		require.False(t, hit)
	})

	t.Run("parallel ray outside slab misses", func(t *testing.T) {
		hit, _ := RaycastAABB(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 0, 0}, box)
		require.False(t, hit)
	})

	t.Run("origin inside reports zero", func(t *testing.T) {
		hit, dist := RaycastAABB(mgl32.Vec3{10, 0, 0}, mgl32.Vec3{0, 1, 0}, box)
		require.True(t, hit)
		require.Zero(t, dist)
	})
}

func TestRaycastOrientedBox(t *testing.T) {
	ob := NewOrientedBox(mgl32.Vec3{0, 0, -10}, mgl32.Vec3{1, 1, 1}).
		Transform(mgl32.Translate3D(0, 0, -10).
			Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(45))).
			Mul4(mgl32.Translate3D(0, 0, 10)))

	hit, dist := RaycastOrientedBox(mgl32.Vec3{}, mgl32.Vec3{0, 0, -5}, ob)
	require.True(t, hit)
	// the rotated cube's leading edge sits sqrt(2) in front of its centre
	require.InDelta(t, 10-1.41421, dist, 1e-3)

	hit, _ = RaycastOrientedBox(mgl32.Vec3{}, mgl32.Vec3{0, 0, 0}, ob)
	require.False(t, hit)

	hit, _ = RaycastOrientedBox(mgl32.Vec3{3, 0, 0}, mgl32.Vec3{0, 0, -1}, ob)
	require.False(t, hit)
}
