package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/Carmen-Shannon/oxy-cull/engine/entity"
	"github.com/Carmen-Shannon/oxy-cull/engine/scene"
	"github.com/Carmen-Shannon/oxy-cull/engine/visibility"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func newTestScene(active bool) scene.Scene {
	cam := camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{0, 15, 60}),
		camera.WithTarget(mgl32.Vec3{0, 15, 0}),
		camera.WithFov(mgl32.DegToRad(60)),
		camera.WithFar(200),
	)
	return scene.NewScene("engine", cam,
		scene.WithActive(active),
		scene.WithWorldBounds(common.NewAABB(mgl32.Vec3{0, 15, 0}, mgl32.Vec3{32, 32, 32})),
	)
}

func TestStep(t *testing.T) {
	s := newTestScene(true)
	idle := newTestScene(false)
	e := NewEngine(WithScene(0, s), WithScene(1, idle), WithCullWorkers(0))

	var spawned entity.Handle
	e.SetTickCallback(func(frame uint64, _ float32) {
		if frame == 0 {
			var ok bool
			spawned, ok = s.AddEntity(entity.NewEntity(
				entity.WithPosition(mgl32.Vec3{0, 15, 0}),
				entity.WithRenderable(entity.MeshRenderable{Sig: camera.NewSignature(1)}),
			), entity.InvalidHandle)
			require.True(t, ok)
		}
	})

	var rendered []uint64
	e.SetRenderCallback(func(frame uint64, stats map[int]visibility.FrameStats) {
		rendered = append(rendered, frame)
	})

	// entities spawned during the tick are indexed before the same frame is culled
	stats := e.Step(1.0 / 60)
	require.Len(t, stats, 1)
	require.Equal(t, 1, stats[0].VisibleFor(visibility.KindMain))
	require.Equal(t, 1, stats[0].Submitted[visibility.KindMain])
	require.Equal(t, uint64(1), e.Frame())

	st, ok := e.Stats(0)
	require.True(t, ok)
	require.Equal(t, uint64(0), st.Frame)
	_, ok = e.Stats(1)
	require.False(t, ok)

	require.True(t, s.RemoveEntity(spawned))
	stats = e.Step(1.0 / 60)
	require.Zero(t, stats[0].VisibleFor(visibility.KindMain))
	require.Equal(t, []uint64{0, 1}, rendered)
}

func TestScenes(t *testing.T) {
	e := NewEngine(WithCullWorkers(0))
	require.Empty(t, e.Scenes())

	s := newTestScene(true)
	e.AddScene(3, s)
	e.AddScene(4, nil)
	require.Equal(t, s, e.Scene(3))
	require.Nil(t, e.Scene(4))
	require.Len(t, e.Scenes(), 1)

	e.Step(0)
	_, ok := e.Stats(3)
	require.True(t, ok)

	e.RemoveScene(3)
	require.Nil(t, e.Scene(3))
	_, ok = e.Stats(3)
	require.False(t, ok)
	require.Empty(t, e.Step(0))
}

func TestRun(t *testing.T) {
	t.Run("max frames", func(t *testing.T) {
		var ticks atomic.Int32
		e := NewEngine(
			WithScene(0, newTestScene(true)),
			WithTickRate(1000),
			WithMaxFrames(5),
			WithProfiling(true),
			WithProfileInterval(time.Millisecond),
		)
		e.SetTickCallback(func(uint64, float32) { ticks.Add(1) })

		require.NoError(t, e.Run(context.Background()))
		require.Equal(t, uint64(5), e.Frame())
		require.Equal(t, int32(5), ticks.Load())
	})

	t.Run("context cancel", func(t *testing.T) {
		e := NewEngine(WithTickRate(1000))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.NoError(t, e.Run(ctx))
	})

	t.Run("quit", func(t *testing.T) {
		e := NewEngine(WithTickRate(1000))
		e.SetTickCallback(func(frame uint64, _ float32) {
			if frame == 2 {
				e.Quit()
				e.Quit()
			}
		})
		require.NoError(t, e.Run(context.Background()))
		require.GreaterOrEqual(t, e.Frame(), uint64(3))
	})

	t.Run("already running", func(t *testing.T) {
		e := NewEngine(WithTickRate(1000))
		started := make(chan struct{})
		var once atomic.Bool
		e.SetTickCallback(func(uint64, float32) {
			if once.CompareAndSwap(false, true) {
				close(started)
			}
		})

		done := make(chan error, 1)
		go func() { done <- e.Run(context.Background()) }()
		<-started

		require.Error(t, e.Run(context.Background()))
		e.SetTickRate(500)
		e.Quit()
		require.NoError(t, <-done)
	})
}
