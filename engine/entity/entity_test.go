package entity

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

type mapResolver map[Handle]Entity

func (m mapResolver) Resolve(h Handle) (Entity, bool) {
	e, ok := m[h]
	return e, ok
}

// bindChain binds entities to consecutive handles and links each one to the
// previous as its parent.
func bindChain(r mapResolver, entities ...Entity) []Handle {
	handles := make([]Handle, len(entities))
	for i, e := range entities {
		h := Handle{Index: uint32(i), Generation: 1}
		handles[i] = h
		r[h] = e
		e.Bind(h, uint64(i), r)
		if i > 0 {
			e.SetParentHandle(handles[i-1])
			entities[i-1].AddChild(h)
		}
	}
	return handles
}

func TestHandle(t *testing.T) {
	require.False(t, InvalidHandle.Valid())
	require.True(t, Handle{Index: 0, Generation: 1}.Valid())
	require.Equal(t, "3#2", Handle{Index: 3, Generation: 2}.String())
}

func TestBindAssignsIDOnce(t *testing.T) {
	r := mapResolver{}
	e := NewEntity(WithName("crate"))
	h := Handle{Index: 4, Generation: 1}

	require.True(t, e.Bind(h, 7, r))
	require.False(t, e.Bind(Handle{Index: 5, Generation: 1}, 8, r))
	require.Equal(t, uint64(7), e.ID())
	require.Equal(t, h, e.Handle())

	e.Unbind()
	require.False(t, e.Handle().Valid())
	require.True(t, e.Bind(Handle{Index: 9, Generation: 3}, 99, r))
	require.Equal(t, uint64(7), e.ID())
}

func TestWorldBounds(t *testing.T) {
	t.Run("local bounds follow the transform", func(t *testing.T) {
		e := NewEntity(
			WithPosition(mgl32.Vec3{1, 2, 3}),
			WithScale(mgl32.Vec3{2, 2, 2}),
			WithBounds(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}),
		)

		var ob common.OrientedBox
		e.StoreBounds(&ob)
		require.True(t, ob.Center.ApproxEqual(mgl32.Vec3{1, 2, 3}))
		require.True(t, ob.Extents.ApproxEqual(mgl32.Vec3{2, 2, 2}))
		require.False(t, e.Dirty())
	})

	t.Run("moving recomputes only when dirty", func(t *testing.T) {
		e := NewEntity()
		_ = e.WorldBounds()
		require.False(t, e.Dirty())

		e.SetPosition(mgl32.Vec3{10, 0, 0})
		require.True(t, e.Dirty())
		require.True(t, e.WorldBounds().Center.ApproxEqual(mgl32.Vec3{10, 0, 0}))
		require.False(t, e.Dirty())
	})

	t.Run("rotation turns the box axes", func(t *testing.T) {
		e := NewEntity(
			WithEulerRotation(0, mgl32.DegToRad(90), 0),
			WithBounds(mgl32.Vec3{}, mgl32.Vec3{2, 1, 1}),
		)
		aabb := e.WorldBounds().AABB()
		require.InDelta(t, 1, aabb.Extents()[0], 1e-4)
		require.InDelta(t, 2, aabb.Extents()[2], 1e-4)
	})
}

func TestHierarchy(t *testing.T) {
	r := mapResolver{}
	root := NewEntity(WithPosition(mgl32.Vec3{10, 0, 0}))
	mid := NewEntity(WithPosition(mgl32.Vec3{0, 5, 0}))
	leaf := NewEntity(WithPosition(mgl32.Vec3{0, 0, 1}))
	handles := bindChain(r, root, mid, leaf)

	require.Equal(t, handles[0], mid.Parent())
	require.Equal(t, []Handle{handles[2]}, mid.Children())
	require.True(t, leaf.WorldBounds().Center.ApproxEqual(mgl32.Vec3{10, 5, 1}))

	t.Run("moving an ancestor dirties every descendant", func(t *testing.T) {
		require.False(t, leaf.Dirty())
		root.SetPosition(mgl32.Vec3{-10, 0, 0})
		require.True(t, mid.Dirty())
		require.True(t, leaf.Dirty())
		require.True(t, leaf.WorldBounds().Center.ApproxEqual(mgl32.Vec3{-10, 5, 1}))
	})

	t.Run("removing a child detaches it", func(t *testing.T) {
		require.True(t, mid.RemoveChild(handles[2]))
		require.False(t, mid.RemoveChild(handles[2]))
		require.Empty(t, mid.Children())
	})
}

func TestDeepHierarchyMarkDirty(t *testing.T) {
	r := mapResolver{}
	chain := make([]Entity, 2000)
	for i := range chain {
		chain[i] = NewEntity(WithPosition(mgl32.Vec3{0, 1, 0}))
	}
	bindChain(r, chain...)
	require.True(t, chain[len(chain)-1].WorldBounds().Center.ApproxEqual(mgl32.Vec3{0, 2000, 0}))

	chain[0].Translate(mgl32.Vec3{0, 1, 0})
	require.True(t, chain[len(chain)-1].Dirty())
	require.True(t, chain[len(chain)-1].WorldBounds().Center.ApproxEqual(mgl32.Vec3{0, 2001, 0}))
}

func TestRender(t *testing.T) {
	cam := camera.NewCamera()
	sig := camera.NewSignature(3, 1)

	e := NewEntity(WithRenderable(MeshRenderable{Sig: sig}))
	require.True(t, e.Render(cam))
	require.Equal(t, 1, cam.Queue().Len())

	payloads := cam.Queue().Get(sig)
	require.Len(t, payloads, 1)
	inst, ok := payloads[0].(InstanceTransform)
	require.True(t, ok)
	require.Equal(t, mgl32.Ident4(), inst.World)

	e.SetEnabled(false)
	require.False(t, e.Render(cam))
	require.False(t, NewEntity().Render(cam))
	require.Equal(t, 1, cam.Queue().Len())
}
