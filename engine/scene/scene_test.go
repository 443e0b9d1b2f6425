package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/Carmen-Shannon/oxy-cull/engine/entity"
	"github.com/Carmen-Shannon/oxy-cull/engine/light"
	"github.com/Carmen-Shannon/oxy-cull/engine/spatial"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

var worldBounds = common.NewAABB(mgl32.Vec3{0, 15, 0}, mgl32.Vec3{16, 16, 16})

func newTestScene(options ...SceneBuilderOption) Scene {
	cam := camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{0, 15, 60}),
		camera.WithTarget(mgl32.Vec3{0, 15, 0}),
		camera.WithFov(mgl32.DegToRad(60)),
		camera.WithFar(200),
	)
	return NewScene("test", cam, append([]SceneBuilderOption{WithWorldBounds(worldBounds)}, options...)...)
}

func visible(t *testing.T, s Scene) []entity.Handle {
	b := s.Camera().Bounds()
	var out []entity.Handle
	require.True(t, s.Index().FrustumCull(&b.Frustum, &out))
	return out
}

func add(t *testing.T, s Scene, parent entity.Handle, options ...entity.EntityBuilderOption) (entity.Handle, entity.Entity) {
	e := entity.NewEntity(options...)
	h, ok := s.AddEntity(e, parent)
	require.True(t, ok)
	return h, e
}

func TestNewSceneRequiresCamera(t *testing.T) {
	require.Panics(t, func() { NewScene("nil", nil) })
}

func TestSceneScenario(t *testing.T) {
	s := newTestScene()
	a, e := add(t, s, entity.InvalidHandle,
		entity.WithPosition(mgl32.Vec3{0, 15, 0}),
		entity.WithBounds(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}),
	)
	require.Equal(t, 1, s.Update())
	require.Equal(t, []entity.Handle{a}, visible(t, s))

	e.SetPosition(mgl32.Vec3{100, 100, 100})
	require.True(t, s.UpdateEntityPosition(a))
	require.Empty(t, visible(t, s))

	e.SetPosition(mgl32.Vec3{0, 15, 0})
	require.True(t, s.UpdateEntityPosition(a))
	require.Equal(t, []entity.Handle{a}, visible(t, s))
}

func TestIDsStartAtZero(t *testing.T) {
	s := newTestScene()
	for i := range 5 {
		_, e := add(t, s, entity.InvalidHandle)
		require.Equal(t, uint64(i), e.ID())
	}

	h, _ := add(t, s, entity.InvalidHandle)
	require.True(t, s.RemoveEntity(h))
	_, e := add(t, s, entity.InvalidHandle)
	require.Equal(t, uint64(6), e.ID())
}

func TestAddEntityRejects(t *testing.T) {
	s := newTestScene()
	_, ok := s.AddEntity(nil, entity.InvalidHandle)
	require.False(t, ok)

	_, e := add(t, s, entity.InvalidHandle)
	_, ok = s.AddEntity(e, entity.InvalidHandle)
	require.False(t, ok)

	_, ok = s.AddEntity(entity.NewEntity(), entity.Handle{Index: 42, Generation: 1})
	require.False(t, ok)
	require.Equal(t, 1, s.EntityCount())
}

func TestDeferredInsertion(t *testing.T) {
	s := newTestScene()
	h, _ := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{0, 15, 0}))

	require.Equal(t, 1, s.Pending())
	require.Empty(t, visible(t, s))
	require.False(t, s.Index().Has(h))

	// moving a pending entity leaves it pending
	require.True(t, s.UpdateEntityPosition(h))
	require.False(t, s.Index().Has(h))

	require.Equal(t, 1, s.Update())
	require.Zero(t, s.Pending())
	require.Equal(t, []entity.Handle{h}, visible(t, s))
	require.Zero(t, s.Update())
}

func TestOutsideWorldIsNotIndexed(t *testing.T) {
	s := newTestScene()
	h, _ := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{500, 0, 0}))
	require.Zero(t, s.Update())
	require.False(t, s.Index().Has(h))
	require.Equal(t, 1, s.EntityCount())
}

func TestRemoveEntityCascades(t *testing.T) {
	s := newTestScene()
	root, _ := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{0, 15, 0}))
	child, _ := add(t, s, root, entity.WithPosition(mgl32.Vec3{2, 0, 0}))
	grandchild, _ := add(t, s, child, entity.WithPosition(mgl32.Vec3{2, 0, 0}))
	other, _ := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{-5, 15, 0}))
	require.Equal(t, 4, s.Update())

	require.True(t, s.RemoveEntity(root))
	for _, h := range []entity.Handle{root, child, grandchild} {
		_, ok := s.Resolve(h)
		require.False(t, ok)
		require.False(t, s.Index().Has(h))
	}
	require.Equal(t, []entity.Handle{other}, visible(t, s))
	require.Equal(t, 1, s.EntityCount())

	require.False(t, s.RemoveEntity(root))
}

func TestRemoveChildFromParent(t *testing.T) {
	s := newTestScene()
	root, re := add(t, s, entity.InvalidHandle)
	child, _ := add(t, s, root)

	require.True(t, s.RemoveEntity(child))
	require.Empty(t, re.Children())
	_, ok := s.Resolve(root)
	require.True(t, ok)
}

func TestRemoveEntityFailedChildStillRemovesParent(t *testing.T) {
	s := newTestScene()
	root, re := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{0, 15, 0}))
	child, _ := add(t, s, root)
	s.Update()

	re.AddChild(entity.Handle{Index: 999, Generation: 1})

	require.False(t, s.RemoveEntity(root))
	_, ok := s.Resolve(root)
	require.False(t, ok)
	_, ok = s.Resolve(child)
	require.False(t, ok)
	require.Empty(t, visible(t, s))
	require.Zero(t, s.EntityCount())
}

func TestRemovePendingEntity(t *testing.T) {
	s := newTestScene()
	h, _ := add(t, s, entity.InvalidHandle)
	require.True(t, s.RemoveEntity(h))
	require.Zero(t, s.Pending())
	require.Zero(t, s.Update())
}

func TestStaleHandleAfterReuse(t *testing.T) {
	s := newTestScene()
	old, _ := add(t, s, entity.InvalidHandle)
	require.True(t, s.RemoveEntity(old))

	fresh, e := add(t, s, entity.InvalidHandle)
	require.Equal(t, old.Index, fresh.Index)
	require.NotEqual(t, old.Generation, fresh.Generation)

	_, ok := s.Resolve(old)
	require.False(t, ok)
	got, ok := s.Resolve(fresh)
	require.True(t, ok)
	require.Equal(t, e, got)
	require.False(t, s.UpdateEntityPosition(old))
}

func TestUpdateEntityPositionMovesChildren(t *testing.T) {
	s := newTestScene()
	root, re := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{0, 15, 0}))
	child, _ := add(t, s, root, entity.WithPosition(mgl32.Vec3{1, 0, 0}))
	s.Update()
	require.ElementsMatch(t, []entity.Handle{root, child}, visible(t, s))

	re.SetPosition(mgl32.Vec3{200, 15, 0})
	require.True(t, s.UpdateEntityPosition(root))
	require.Empty(t, visible(t, s))
	require.False(t, s.Index().Has(child))

	re.SetPosition(mgl32.Vec3{0, 15, 0})
	require.True(t, s.UpdateEntityPosition(root))
	require.ElementsMatch(t, []entity.Handle{root, child}, visible(t, s))
}

func TestSetParent(t *testing.T) {
	s := newTestScene()
	a, ae := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{5, 15, 0}))
	b, be := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{1, 0, 0}))
	c, _ := add(t, s, b)
	s.Update()

	require.True(t, s.SetParent(b, a))
	require.Equal(t, a, be.Parent())
	require.Equal(t, []entity.Handle{b}, ae.Children())
	require.True(t, be.WorldBounds().Center.ApproxEqual(mgl32.Vec3{6, 15, 0}))

	require.False(t, s.SetParent(a, c))
	require.False(t, s.SetParent(a, a))

	require.True(t, s.SetParent(b, entity.InvalidHandle))
	require.Empty(t, ae.Children())
	require.False(t, be.Parent().Valid())
}

func TestLookups(t *testing.T) {
	s := newTestScene()
	a, _ := add(t, s, entity.InvalidHandle, entity.WithName("alpha"))
	b, be := add(t, s, entity.InvalidHandle, entity.WithName("beta"))
	c, _ := add(t, s, entity.InvalidHandle, entity.WithName("beta"))

	e, ok := s.GetEntity(1)
	require.True(t, ok)
	require.Equal(t, be, e)
	_, ok = s.GetEntity(3)
	require.False(t, ok)
	_, ok = s.GetEntity(-1)
	require.False(t, ok)

	e, ok = s.GetEntityByID(2)
	require.True(t, ok)
	require.Equal(t, c, e.Handle())
	_, ok = s.GetEntityByID(99)
	require.False(t, ok)

	e, ok = s.GetEntityByName("beta")
	require.True(t, ok)
	require.Equal(t, b, e.Handle())
	_, ok = s.GetEntityByName("gamma")
	require.False(t, ok)

	require.Equal(t, 0, s.GetEntityIndex(a))
	require.Equal(t, 2, s.GetEntityIndex(c))
	require.Equal(t, -1, s.GetEntityIndex(entity.InvalidHandle))

	require.True(t, s.RemoveEntity(a))
	require.Equal(t, 0, s.GetEntityIndex(b))
	require.Len(t, s.Entities(), 2)
}

func TestRaycast(t *testing.T) {
	s := newTestScene(WithIndex(spatial.NewOctree(spatial.WithCapacity(1))))
	_, far := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{10, 15, 0}))
	_, near := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{4, 15, 0}))
	s.Update()

	e, dist, ok := s.Raycast(mgl32.Vec3{-10, 15, 0}, mgl32.Vec3{1, 0, 0})
	require.True(t, ok)
	require.Equal(t, near, e)
	require.InDelta(t, 13.5, dist, 1e-4)

	e, _, ok = s.Raycast(mgl32.Vec3{14, 15, 0}, mgl32.Vec3{-1, 0, 0})
	require.True(t, ok)
	require.Equal(t, far, e)
}

func TestContentSignature(t *testing.T) {
	s := newTestScene(WithContent(MapContent{
		Meshes:   map[string]uint32{"cube": 3},
		Textures: map[string]uint32{"checker": 7, "noise": 9},
	}))

	sig, ok := s.Signature("cube", "checker", "noise")
	require.True(t, ok)
	require.Equal(t, camera.NewSignature(3, 7, 9), sig)

	_, ok = s.Signature("cube", "missing")
	require.False(t, ok)
	_, ok = s.Signature("sphere")
	require.False(t, ok)

	_, ok = newTestScene().Signature("cube")
	require.False(t, ok)
}

func TestWithEntitiesQueuesInitialEntities(t *testing.T) {
	a := entity.NewEntity(entity.WithName("a"), entity.WithPosition(mgl32.Vec3{0, 15, 0}))
	b := entity.NewEntity(entity.WithName("b"), entity.WithPosition(mgl32.Vec3{3, 15, 0}))
	s := newTestScene(WithEntities(a, b))

	require.Equal(t, uint64(0), a.ID())
	require.Equal(t, uint64(1), b.ID())
	require.Equal(t, 2, s.Pending())
	require.Equal(t, 2, s.Update())
	require.Len(t, visible(t, s), 2)
}

func TestLightsAndClear(t *testing.T) {
	s := newTestScene()
	l := light.NewLight(light.LightTypePoint)
	s.AddLight(l)
	require.Len(t, s.Lights(), 1)
	require.True(t, s.RemoveLight(l))
	require.False(t, s.RemoveLight(l))

	h, e := add(t, s, entity.InvalidHandle, entity.WithPosition(mgl32.Vec3{0, 15, 0}))
	add(t, s, h)
	s.Update()

	s.Clear()
	require.Zero(t, s.EntityCount())
	require.Empty(t, visible(t, s))
	require.Equal(t, 0, s.Index().Stats().Items)
	require.False(t, e.Handle().Valid())

	_, ok := s.AddEntity(e, entity.InvalidHandle)
	require.True(t, ok)
}
