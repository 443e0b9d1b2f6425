package visibility

import (
	"strconv"
	"testing"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/Carmen-Shannon/oxy-cull/engine/entity"
	"github.com/Carmen-Shannon/oxy-cull/engine/light"
	"github.com/Carmen-Shannon/oxy-cull/engine/scene"
	"github.com/Carmen-Shannon/oxy-cull/engine/spatial"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	benchSpacing = 3.0
	// benchMaxSide is the number of cubes per side before the grid stacks upward.
	benchMaxSide = 200
)

// benchScene lays count cubes out on a grid centred on the origin, stacking
// layers once a side reaches benchMaxSide.
func benchScene(b *testing.B, count int, index spatial.Index) scene.Scene {
	side := min(benchMaxSide, max(1, int(math32.Ceil(math32.Sqrt(float32(count))))))
	layers := (count + side*side - 1) / (side * side)
	half := float32(side) * benchSpacing / 2

	cam := camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{half * 0.7, half * 0.4, half * 0.7}),
		camera.WithTarget(mgl32.Vec3{}),
		camera.WithFov(mgl32.DegToRad(60)),
		camera.WithAspect(16.0/9.0),
		camera.WithFar(half*3),
	)
	world := common.NewAABB(
		mgl32.Vec3{0, float32(layers) * benchSpacing / 2, 0},
		mgl32.Vec3{half + benchSpacing, float32(layers)*benchSpacing/2 + benchSpacing, half + benchSpacing},
	)
	s := scene.NewScene("bench", cam,
		scene.WithIndex(index),
		scene.WithWorldBounds(world),
		scene.WithLights(
			light.NewLight(light.LightTypeDirectional, light.WithDirection(mgl32.Vec3{-0.3, -1, -0.2})),
			light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 5, 0}), light.WithRange(20)),
		),
	)

	sig := camera.NewSignature(1)
	for i := range count {
		layer := i / (side * side)
		cell := i % (side * side)
		p := mgl32.Vec3{
			(float32(cell%side) - float32(side)/2) * benchSpacing,
			float32(layer)*benchSpacing + 0.5,
			(float32(cell/side) - float32(side)/2) * benchSpacing,
		}
		if _, ok := s.AddEntity(entity.NewEntity(
			entity.WithPosition(p),
			entity.WithRenderable(entity.MeshRenderable{Sig: sig}),
		), entity.InvalidHandle); !ok {
			b.Fatal("add entity failed")
		}
	}
	s.Update()
	return s
}

func BenchmarkCull(b *testing.B) {
	indexes := map[string]func() spatial.Index{
		"quadtree": func() spatial.Index { return spatial.NewQuadtree() },
		"octree":   func() spatial.Index { return spatial.NewOctree() },
	}
	// ramp by 10x per step
	for _, count := range []int{1_000, 10_000, 100_000} {
		for name, newIndex := range indexes {
			b.Run(name+"/"+strconv.Itoa(count), func(b *testing.B) {
				s := benchScene(b, count, newIndex())
				o := NewOrchestrator(s, WithWorkers(DefaultWorkers))
				defer o.Close()

				b.ResetTimer()
				for i := range b.N {
					o.Cull(uint64(i))
				}
				b.ReportMetric(float64(o.LastCullCount(KindMain)), "visible")
			})
		}
	}
}
