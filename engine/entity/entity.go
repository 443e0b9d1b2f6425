package entity

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

type entityImpl struct {
	mu sync.Mutex

	id       uint64
	bound    bool
	handle   Handle
	resolver Resolver

	name    string
	enabled bool

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	parent   Handle
	children []Handle

	localBounds common.OrientedBox

	// recalculate is set whenever the local transform or any ancestor changes.
	// version counts those changes so a recompute racing a mutation keeps the flag.
	recalculate bool
	version     uint64
	world       mgl32.Mat4
	worldBounds common.OrientedBox

	renderable Renderable
}

// Entity defines the interface for a scene participant: identity, a local
// transform inside a parent/child hierarchy, object-space bounds and a render hook.
//
// The world matrix and world-space oriented box are derived lazily and cached.
// Any change to the entity's own transform or to an ancestor's marks the cache
// for recalculation before it can be observed again.
type Entity interface {
	// ID returns the entity's registry-assigned identifier.
	//
	// Returns:
	//   - uint64: the ID, or 0 before registration
	ID() uint64

	// Handle returns the arena handle the entity is registered under.
	//
	// Returns:
	//   - Handle: the handle, or InvalidHandle when unregistered
	Handle() Handle

	// Bind attaches the entity to a registry slot. The ID is assigned on the first
	// bind and never changes afterwards.
	//
	// Parameters:
	//   - h: the arena handle
	//   - id: the identifier to assign
	//   - r: resolver used to reach parent and children
	//
	// Returns:
	//   - bool: false if the entity is already bound
	Bind(h Handle, id uint64, r Resolver) bool

	// Unbind detaches the entity from its registry slot and hierarchy.
	// The ID is kept.
	Unbind()

	// Name returns the entity's name. Names are not unique.
	//
	// Returns:
	//   - string: the name
	Name() string

	// SetName renames the entity.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// Enabled returns whether the entity submits itself for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the entity submits itself for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Position returns the local translation.
	//
	// Returns:
	//   - mgl32.Vec3: translation relative to the parent
	Position() mgl32.Vec3

	// SetPosition sets the local translation and dirties the subtree.
	//
	// Parameters:
	//   - p: translation relative to the parent
	SetPosition(p mgl32.Vec3)

	// Translate offsets the local translation and dirties the subtree.
	//
	// Parameters:
	//   - delta: the offset
	Translate(delta mgl32.Vec3)

	// Rotation returns the local rotation.
	//
	// Returns:
	//   - mgl32.Quat: rotation relative to the parent
	Rotation() mgl32.Quat

	// SetRotation sets the local rotation and dirties the subtree.
	//
	// Parameters:
	//   - q: rotation relative to the parent
	SetRotation(q mgl32.Quat)

	// Scale returns the local scale.
	//
	// Returns:
	//   - mgl32.Vec3: per-axis scale
	Scale() mgl32.Vec3

	// SetScale sets the local scale and dirties the subtree.
	//
	// Parameters:
	//   - s: per-axis scale
	SetScale(s mgl32.Vec3)

	// LocalMatrix returns translation * rotation * scale.
	//
	// Returns:
	//   - mgl32.Mat4: the local transform
	LocalMatrix() mgl32.Mat4

	// WorldMatrix returns the parent's world matrix times the local matrix,
	// recomputing it when dirty.
	//
	// Returns:
	//   - mgl32.Mat4: the local-to-world transform
	WorldMatrix() mgl32.Mat4

	// Parent returns the parent handle.
	//
	// Returns:
	//   - Handle: the parent, or InvalidHandle for roots
	Parent() Handle

	// SetParentHandle records the parent link and dirties the subtree.
	// The registry keeps the parent's child list in sync.
	//
	// Parameters:
	//   - h: the new parent, or InvalidHandle
	SetParentHandle(h Handle)

	// Children returns a copy of the child handles.
	//
	// Returns:
	//   - []Handle: the children in attachment order
	Children() []Handle

	// AddChild records a child link.
	//
	// Parameters:
	//   - h: the child handle
	AddChild(h Handle)

	// RemoveChild drops a child link.
	//
	// Parameters:
	//   - h: the child handle
	//
	// Returns:
	//   - bool: true if the link existed
	RemoveChild(h Handle) bool

	// LocalBounds returns the object-space oriented box.
	//
	// Returns:
	//   - common.OrientedBox: bounds before the world transform
	LocalBounds() common.OrientedBox

	// SetLocalBounds replaces the object-space oriented box.
	//
	// Parameters:
	//   - ob: bounds before the world transform
	SetLocalBounds(ob common.OrientedBox)

	// StoreBounds writes the current world-space oriented box into out,
	// recomputing it only if dirty.
	//
	// Parameters:
	//   - out: destination box
	StoreBounds(out *common.OrientedBox)

	// WorldBounds returns the current world-space oriented box.
	//
	// Returns:
	//   - common.OrientedBox: the world bounds
	WorldBounds() common.OrientedBox

	// MarkDirty invalidates the cached world state of this entity and every descendant.
	MarkDirty()

	// Invalidate marks only this entity dirty and returns its children so callers
	// can continue the walk.
	//
	// Returns:
	//   - []Handle: the children to visit next
	//   - Resolver: the resolver to reach them with, or nil when unbound
	Invalidate() ([]Handle, Resolver)

	// Dirty reports whether the world cache will be recomputed on the next read.
	//
	// Returns:
	//   - bool: true if dirty
	Dirty() bool

	// Renderable returns the render submission source, or nil.
	//
	// Returns:
	//   - Renderable: the submission source
	Renderable() Renderable

	// SetRenderable sets the render submission source.
	//
	// Parameters:
	//   - r: the submission source, or nil to stop rendering
	SetRenderable(r Renderable)

	// Render submits the entity into the camera's render queue.
	//
	// Parameters:
	//   - cam: the camera that found the entity visible
	//
	// Returns:
	//   - bool: false if the entity is disabled or has nothing to render
	Render(cam camera.Camera) bool
}

var _ Entity = &entityImpl{}

// NewEntity creates an unregistered Entity at the origin with a unit bounding box.
//
// Parameters:
//   - options: functional options to configure the entity
//
// Returns:
//   - Entity: the newly created entity
func NewEntity(options ...EntityBuilderOption) Entity {
	e := &entityImpl{
		enabled:     true,
		rotation:    mgl32.QuatIdent(),
		scale:       mgl32.Vec3{1, 1, 1},
		localBounds: common.NewOrientedBox(mgl32.Vec3{}, mgl32.Vec3{0.5, 0.5, 0.5}),
		recalculate: true,
		world:       mgl32.Ident4(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *entityImpl) ID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

func (e *entityImpl) Handle() Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handle
}

func (e *entityImpl) Bind(h Handle, id uint64, r Resolver) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle.Valid() {
		return false
	}
	if !e.bound {
		e.id = id
		e.bound = true
	}
	e.handle = h
	e.resolver = r
	e.dirty()
	return true
}

func (e *entityImpl) Unbind() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handle = InvalidHandle
	e.resolver = nil
	e.parent = InvalidHandle
	e.children = nil
	e.dirty()
}

func (e *entityImpl) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

func (e *entityImpl) SetName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.name = name
}

func (e *entityImpl) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *entityImpl) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

func (e *entityImpl) Position() mgl32.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *entityImpl) SetPosition(p mgl32.Vec3) {
	e.mu.Lock()
	e.position = p
	e.mu.Unlock()
	e.MarkDirty()
}

func (e *entityImpl) Translate(delta mgl32.Vec3) {
	e.mu.Lock()
	e.position = e.position.Add(delta)
	e.mu.Unlock()
	e.MarkDirty()
}

func (e *entityImpl) Rotation() mgl32.Quat {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rotation
}

func (e *entityImpl) SetRotation(q mgl32.Quat) {
	e.mu.Lock()
	e.rotation = q.Normalize()
	e.mu.Unlock()
	e.MarkDirty()
}

func (e *entityImpl) Scale() mgl32.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scale
}

func (e *entityImpl) SetScale(s mgl32.Vec3) {
	e.mu.Lock()
	e.scale = s
	e.mu.Unlock()
	e.MarkDirty()
}

func (e *entityImpl) LocalMatrix() mgl32.Mat4 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.localMatrix()
}

// localMatrix composes T * R * S.
// Caller must hold the mutex.
func (e *entityImpl) localMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(e.position[0], e.position[1], e.position[2])
	s := mgl32.Scale3D(e.scale[0], e.scale[1], e.scale[2])
	return t.Mul4(e.rotation.Mat4()).Mul4(s)
}

func (e *entityImpl) WorldMatrix() mgl32.Mat4 {
	e.mu.Lock()
	if !e.recalculate {
		defer e.mu.Unlock()
		return e.world
	}
	local := e.localMatrix()
	parent, resolver, version := e.parent, e.resolver, e.version
	e.mu.Unlock()

	// the parent is resolved without holding our lock; ancestors lock themselves
	world := local
	if parent.Valid() && resolver != nil {
		if p, ok := resolver.Resolve(parent); ok {
			world = p.WorldMatrix().Mul4(local)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.world = world
	e.worldBounds = e.localBounds.Transform(world)
	if e.version == version {
		e.recalculate = false
	}
	return world
}

func (e *entityImpl) Parent() Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parent
}

func (e *entityImpl) SetParentHandle(h Handle) {
	e.mu.Lock()
	e.parent = h
	e.mu.Unlock()
	e.MarkDirty()
}

func (e *entityImpl) Children() []Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.children)
}

func (e *entityImpl) AddChild(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !slices.Contains(e.children, h) {
		e.children = append(e.children, h)
	}
}

func (e *entityImpl) RemoveChild(h Handle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := slices.Index(e.children, h)
	if i < 0 {
		return false
	}
	e.children = slices.Delete(e.children, i, i+1)
	return true
}

func (e *entityImpl) LocalBounds() common.OrientedBox {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.localBounds
}

func (e *entityImpl) SetLocalBounds(ob common.OrientedBox) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.localBounds = ob
	e.dirty()
}

func (e *entityImpl) StoreBounds(out *common.OrientedBox) {
	if out == nil {
		return
	}
	*out = e.WorldBounds()
}

func (e *entityImpl) WorldBounds() common.OrientedBox {
	e.mu.Lock()
	if !e.recalculate {
		defer e.mu.Unlock()
		return e.worldBounds
	}
	e.mu.Unlock()

	world := e.WorldMatrix()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recalculate {
		// mutated again since WorldMatrix returned; use the matrix we were handed
		return e.localBounds.Transform(world)
	}
	return e.worldBounds
}

// MarkDirty walks the subtree with an explicit stack so deep hierarchies do not
// grow the goroutine stack.
func (e *entityImpl) MarkDirty() {
	stack := []Entity{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, resolver := cur.Invalidate()
		if resolver == nil {
			continue
		}
		for _, h := range children {
			if c, ok := resolver.Resolve(h); ok {
				stack = append(stack, c)
			}
		}
	}
}

func (e *entityImpl) Invalidate() ([]Handle, Resolver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty()
	return slices.Clone(e.children), e.resolver
}

// dirty flags the world cache for recalculation.
// Caller must hold the mutex.
func (e *entityImpl) dirty() {
	e.recalculate = true
	e.version++
}

func (e *entityImpl) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recalculate
}

func (e *entityImpl) Renderable() Renderable {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderable
}

func (e *entityImpl) SetRenderable(r Renderable) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderable = r
}

func (e *entityImpl) Render(cam camera.Camera) bool {
	e.mu.Lock()
	enabled, r := e.enabled, e.renderable
	e.mu.Unlock()

	if !enabled || r == nil || cam == nil {
		return false
	}
	cam.Queue().Push(r.Signature(), r.InstanceData(e, cam))
	return true
}
