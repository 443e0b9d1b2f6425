package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestLightCameras(t *testing.T) {
	t.Run("spot light owns one perspective camera", func(t *testing.T) {
		l := NewLight(LightTypeSpot,
			WithPosition(mgl32.Vec3{0, 10, 0}),
			WithDirection(mgl32.Vec3{0, -1, 0}),
			WithSpotCone(20, 30),
			WithRange(25),
		)
		cams := l.Cameras()
		require.Len(t, cams, 1)
		require.InDelta(t, mgl32.DegToRad(60), cams[0].Fov(), 1e-5)
		require.Equal(t, float32(25), cams[0].Far())
		b := cams[0].Bounds()
		require.True(t, b.Frustum.ContainsPoint(mgl32.Vec3{0, 0, 0}))
		require.False(t, b.Frustum.ContainsPoint(mgl32.Vec3{0, 20, 0}))
	})

	t.Run("wide spot cone is clamped", func(t *testing.T) {
		l := NewLight(LightTypeSpot, WithSpotCone(80, 89))
		require.Less(t, l.Cameras()[0].Fov(), mgl32.DegToRad(171))
	})

	t.Run("point light owns six faces", func(t *testing.T) {
		l := NewLight(LightTypePoint, WithPosition(mgl32.Vec3{1, 1, 1}), WithRange(5))
		cams := l.Cameras()
		require.Len(t, cams, 6)
		for _, c := range cams {
			require.Equal(t, mgl32.Vec3{1, 1, 1}, c.Position())
			require.Equal(t, float32(5), c.Far())
		}

		l.SetPosition(mgl32.Vec3{2, 2, 2})
		require.Equal(t, mgl32.Vec3{2, 2, 2}, cams[0].Position())
	})

	t.Run("directional light owns one camera per cascade", func(t *testing.T) {
		l := NewLight(LightTypeDirectional, WithCascades(0.25, 1))
		cams := l.Cameras()
		require.Len(t, cams, 2)
		for _, c := range cams {
			require.Equal(t, camera.ProjectionOrthographic, c.Kind())
		}
	})
}

func TestCascadesCoverMainView(t *testing.T) {
	main := camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{0, 10, 30}),
		camera.WithTarget(mgl32.Vec3{0, 0, 0}),
		camera.WithFar(80),
	)
	l := NewLight(LightTypeDirectional, WithDirection(mgl32.Vec3{-0.3, -1, -0.2}))
	l.UpdateCascades(main)

	mainBounds := main.Bounds()
	view := mainBounds.AABB()
	require.True(t, l.Bounds().Intersects(view))

	// every point along the view axis lands in some cascade
	forward := main.Forward()
	for d := float32(1); d < 80; d += 7 {
		p := main.Position().Add(forward.Mul(d))
		covered := false
		for _, c := range l.Cameras() {
			b := c.Bounds()
			if b.Box.ContainsPoint(p) {
				covered = true
				break
			}
		}
		require.True(t, covered, "distance %v", d)
	}
}

func TestBoundsAndRelevance(t *testing.T) {
	view := common.NewAABB(mgl32.Vec3{}, mgl32.Vec3{10, 10, 10})

	near := NewLight(LightTypePoint, WithPosition(mgl32.Vec3{12, 0, 0}), WithRange(5))
	far := NewLight(LightTypePoint, WithPosition(mgl32.Vec3{100, 0, 0}), WithRange(5))
	require.Equal(t, common.NewAABB(mgl32.Vec3{12, 0, 0}, mgl32.Vec3{5, 5, 5}), near.Bounds())

	require.True(t, Relevant(near, view))
	require.False(t, Relevant(far, view))
	require.False(t, Relevant(far))

	probe := common.NewAABB(mgl32.Vec3{100, 0, 0}, mgl32.Vec3{1, 1, 1})
	require.True(t, Relevant(far, view, probe))
	require.False(t, Relevant(far, view, common.EmptyAABB()))
}

func TestActiveFlag(t *testing.T) {
	l := NewLight(LightTypeSpot)
	require.True(t, l.Active())
	l.SetActive(false)
	require.False(t, l.Active())
	require.Equal(t, "spot", l.Name())
}
