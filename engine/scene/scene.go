package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/Carmen-Shannon/oxy-cull/engine/cubemap"
	"github.com/Carmen-Shannon/oxy-cull/engine/entity"
	"github.com/Carmen-Shannon/oxy-cull/engine/light"
	"github.com/Carmen-Shannon/oxy-cull/engine/spatial"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene owns every entity of a level together with the spatial index they are
// culled through, the main and secondary cameras, lights and cubemap probes.
//
// Entities are registered immediately but reach the spatial index only at the
// next Update, so an entity spawned mid-frame is never culled before its
// bounds are final. Removal and position updates are synchronous and recurse
// into children first.
//
// Mutating calls are serialized. Resolve and the spatial index may be read
// concurrently by the visibility pass while no mutation is in flight.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's main camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's main camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// SecondaryCamera returns the optional secondary view camera, or nil.
	SecondaryCamera() camera.Camera

	// SetSecondaryCamera sets the secondary view camera.
	//
	// Parameters:
	//   - cam: the camera, or nil to disable the secondary view
	SetSecondaryCamera(cam camera.Camera)

	// Index returns the spatial index entities are culled through.
	Index() spatial.Index

	// Content returns the content lookup injected at construction, or nil.
	Content() ContentLookup

	// Signature resolves mesh and texture names through the content lookup.
	//
	// Parameters:
	//   - mesh: the mesh name
	//   - textures: texture names in binding order
	//
	// Returns:
	//   - camera.Signature: the resolved signature
	//   - bool: false if there is no content lookup or a name is unknown
	Signature(mesh string, textures ...string) (camera.Signature, bool)

	// Resolve returns the live entity addressed by h.
	//
	// Parameters:
	//   - h: the handle to resolve
	//
	// Returns:
	//   - entity.Entity: the entity, or nil
	//   - bool: false if h is stale or was never issued
	Resolve(h entity.Handle) (entity.Entity, bool)

	// AddEntity registers e, assigns it the next ID and queues it for insertion
	// into the spatial index at the next Update.
	//
	// Parameters:
	//   - e: the entity to register
	//   - parent: the parent handle, or entity.InvalidHandle for a root entity
	//
	// Returns:
	//   - entity.Handle: the new handle
	//   - bool: false if e is nil, already registered, or parent is stale
	AddEntity(e entity.Entity, parent entity.Handle) (entity.Handle, bool)

	// SetParent re-parents child. Cycles are rejected.
	//
	// Parameters:
	//   - child: the entity to move
	//   - parent: the new parent, or entity.InvalidHandle to make child a root
	//
	// Returns:
	//   - bool: false if a handle is stale or the link would create a cycle
	SetParent(child, parent entity.Handle) bool

	// Update inserts every pending entity into the spatial index using its
	// current world bounds.
	//
	// Returns:
	//   - int: the number of entities inserted
	Update() int

	// Pending returns the number of entities waiting for the next Update.
	Pending() int

	// RemoveEntity removes the entity and its descendants, children first, from
	// both the spatial index and the registry. A failed child removal does not
	// stop the parent from being removed.
	//
	// Parameters:
	//   - h: the entity to remove
	//
	// Returns:
	//   - bool: false if h is stale or any descendant could not be removed
	RemoveEntity(h entity.Handle) bool

	// UpdateEntityPosition re-inserts the entity and its descendants, children
	// first, against their current world bounds.
	//
	// Parameters:
	//   - h: the entity that moved
	//
	// Returns:
	//   - bool: false if h is stale or any descendant could not be updated
	UpdateEntityPosition(h entity.Handle) bool

	// GetEntity returns the entity at a position in registration order.
	//
	// Parameters:
	//   - index: zero-based position
	//
	// Returns:
	//   - entity.Entity: the entity, or nil
	//   - bool: false if index is out of range
	GetEntity(index int) (entity.Entity, bool)

	// GetEntityByID returns the entity with the given ID.
	//
	// Parameters:
	//   - id: the registry-assigned ID
	//
	// Returns:
	//   - entity.Entity: the entity, or nil
	//   - bool: false if no live entity has that ID
	GetEntityByID(id uint64) (entity.Entity, bool)

	// GetEntityByName returns the first entity, in registration order, with the given name.
	//
	// Parameters:
	//   - name: the name to match
	//
	// Returns:
	//   - entity.Entity: the entity, or nil
	//   - bool: false if no live entity has that name
	GetEntityByName(name string) (entity.Entity, bool)

	// GetEntityIndex returns the position of h in registration order.
	//
	// Parameters:
	//   - h: the entity handle
	//
	// Returns:
	//   - int: the position, or -1 if h is not registered
	GetEntityIndex(h entity.Handle) int

	// EntityCount returns the number of registered entities.
	EntityCount() int

	// Entities returns the registered entities in registration order.
	Entities() []entity.Entity

	// Raycast returns the nearest indexed entity hit by the ray.
	//
	// Parameters:
	//   - origin: ray origin
	//   - dir: ray direction, any non-zero length
	//
	// Returns:
	//   - entity.Entity: the nearest hit, or nil
	//   - float32: distance along the normalized ray
	//   - bool: false if nothing was hit
	Raycast(origin, dir mgl32.Vec3) (entity.Entity, float32, bool)

	// AddLight adds a light to the scene.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a light from the scene.
	//
	// Parameters:
	//   - l: the light to remove
	//
	// Returns:
	//   - bool: false if the light was not in the scene
	RemoveLight(l light.Light) bool

	// Lights returns a copy of the scene's lights.
	Lights() []light.Light

	// AddCubemap adds a cubemap probe to the scene.
	//
	// Parameters:
	//   - c: the probe to add
	AddCubemap(c cubemap.Cubemap)

	// Cubemaps returns a copy of the scene's cubemap probes.
	Cubemaps() []cubemap.Cubemap

	// Clear removes every entity from the registry and the spatial index.
	Clear()
}

type slot struct {
	e   entity.Entity
	gen uint32
}

type scene struct {
	// mu serializes mutations and guards everything except the arena slots.
	mu sync.Mutex
	// arenaMu guards slots and free; it is only held for slot reads and writes so
	// entities can resolve their parents while a mutation is in progress.
	arenaMu sync.RWMutex

	name   string
	active bool

	cam       camera.Camera
	secondary camera.Camera

	slots []slot
	free  []uint32

	order     []entity.Handle
	pending   []entity.Handle
	residency map[entity.Handle]common.OrientedBox
	nextID    uint64

	index       spatial.Index
	worldBounds *common.AABB
	content     ContentLookup

	lights   []light.Light
	cubemaps []cubemap.Cubemap
}

// Ensure scene implements Scene and entity.Resolver.
var (
	_ Scene           = &scene{}
	_ entity.Resolver = &scene{}
)

// NewScene creates a new Scene culled through a horizontal quadtree unless
// WithIndex supplies another index. The camera is required and NewScene panics
// if it is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the main camera (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	s := &scene{
		name:      name,
		cam:       cam,
		residency: make(map[entity.Handle]common.OrientedBox),
	}
	for _, option := range options {
		option(s)
	}

	if s.index == nil {
		s.index = spatial.NewQuadtree()
	}
	if s.worldBounds != nil {
		s.index.Initialize(*s.worldBounds)
	}
	if !s.index.Initialized() {
		logs.WithTag("scene", name).Warn("spatial index has no world bounds, entities will not be culled")
	}
	return s
}

func (s *scene) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	if cam == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) SecondaryCamera() camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secondary
}

func (s *scene) SetSecondaryCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secondary = cam
}

func (s *scene) Index() spatial.Index {
	return s.index
}

func (s *scene) Content() ContentLookup {
	return s.content
}

func (s *scene) Signature(mesh string, textures ...string) (camera.Signature, bool) {
	if s.content == nil {
		return camera.Signature{}, false
	}
	meshID, ok := s.content.MeshID(mesh)
	if !ok {
		return camera.Signature{}, false
	}
	ids := make([]uint32, 0, len(textures))
	for _, t := range textures {
		id, ok := s.content.TextureID(t)
		if !ok {
			return camera.Signature{}, false
		}
		ids = append(ids, id)
	}
	return camera.NewSignature(meshID, ids...), true
}

func (s *scene) Resolve(h entity.Handle) (entity.Entity, bool) {
	if !h.Valid() {
		return nil, false
	}
	s.arenaMu.RLock()
	defer s.arenaMu.RUnlock()
	if int(h.Index) >= len(s.slots) {
		return nil, false
	}
	sl := s.slots[h.Index]
	if sl.e == nil || sl.gen != h.Generation {
		return nil, false
	}
	return sl.e, true
}

func (s *scene) AddEntity(e entity.Entity, parent entity.Handle) (entity.Handle, bool) {
	if e == nil {
		return entity.InvalidHandle, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pe entity.Entity
	if parent.Valid() {
		var ok bool
		if pe, ok = s.Resolve(parent); !ok {
			return entity.InvalidHandle, false
		}
	}

	h := s.allocate(e)
	if !e.Bind(h, s.nextID, s) {
		s.release(h)
		return entity.InvalidHandle, false
	}
	s.nextID++

	if pe != nil {
		e.SetParentHandle(parent)
		pe.AddChild(h)
	}
	s.order = append(s.order, h)
	s.pending = append(s.pending, h)
	return h, true
}

// allocate stores e in a free or new arena slot.
// Caller must hold mu.
func (s *scene) allocate(e entity.Entity) entity.Handle {
	s.arenaMu.Lock()
	defer s.arenaMu.Unlock()
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[idx].e = e
		return entity.Handle{Index: idx, Generation: s.slots[idx].gen}
	}
	s.slots = append(s.slots, slot{e: e, gen: 1})
	return entity.Handle{Index: uint32(len(s.slots) - 1), Generation: 1}
}

// release empties the slot of h and bumps its generation so stale handles fail.
// Caller must hold mu.
func (s *scene) release(h entity.Handle) {
	s.arenaMu.Lock()
	defer s.arenaMu.Unlock()
	sl := &s.slots[h.Index]
	sl.e = nil
	sl.gen++
	if sl.gen == 0 {
		sl.gen = 1
	}
	s.free = append(s.free, h.Index)
}

func (s *scene) SetParent(child, parent entity.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ce, ok := s.Resolve(child)
	if !ok {
		return false
	}
	var pe entity.Entity
	if parent.Valid() {
		if pe, ok = s.Resolve(parent); !ok {
			return false
		}
		for a := parent; a.Valid(); {
			if a == child {
				return false
			}
			ae, ok := s.Resolve(a)
			if !ok {
				break
			}
			a = ae.Parent()
		}
	}

	if old := ce.Parent(); old.Valid() {
		if oe, ok := s.Resolve(old); ok {
			oe.RemoveChild(child)
		}
	}
	ce.SetParentHandle(parent)
	if pe != nil {
		pe.AddChild(child)
	}
	return s.updatePosition(child)
}

func (s *scene) Update() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return 0
	}
	pending := s.pending
	s.pending = nil

	inserted := 0
	for _, h := range pending {
		e, ok := s.Resolve(h)
		if !ok {
			continue
		}
		if s.insert(h, e) {
			inserted++
		}
	}
	return inserted
}

// insert stores e in the index under its current bounds and records them.
// Caller must hold mu.
func (s *scene) insert(h entity.Handle, e entity.Entity) bool {
	var b common.OrientedBox
	e.StoreBounds(&b)
	if !s.index.Insert(h, b) {
		logs.WithTag("scene", s.name).
			WithTag("entity", e.ID()).
			Debug("entity outside world bounds, not indexed")
		return false
	}
	s.residency[h] = b
	return true
}

// evict removes h from the index using the bounds it was inserted with.
// Caller must hold mu.
func (s *scene) evict(h entity.Handle) {
	b, ok := s.residency[h]
	if !ok {
		return
	}
	s.index.Remove(h, b, false)
	delete(s.residency, h)
}

func (s *scene) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *scene) RemoveEntity(h entity.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeEntity(h)
}

// removeEntity removes h after its children, depth-first.
// Caller must hold mu.
func (s *scene) removeEntity(h entity.Handle) bool {
	e, ok := s.Resolve(h)
	if !ok {
		return false
	}

	ok = true
	for _, c := range e.Children() {
		if !s.removeEntity(c) {
			logs.WithTag("scene", s.name).
				WithTag("parent", e.ID()).
				WithTag("child", c.String()).
				Warn("child removal failed")
			ok = false
		}
	}

	s.evict(h)
	s.pending = slices.DeleteFunc(s.pending, func(p entity.Handle) bool { return p == h })
	s.order = slices.DeleteFunc(s.order, func(o entity.Handle) bool { return o == h })

	if p := e.Parent(); p.Valid() {
		if pe, found := s.Resolve(p); found {
			pe.RemoveChild(h)
		}
	}

	s.release(h)
	e.Unbind()
	return ok
}

func (s *scene) UpdateEntityPosition(h entity.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatePosition(h)
}

// updatePosition re-inserts h after its children.
// Caller must hold mu.
func (s *scene) updatePosition(h entity.Handle) bool {
	e, ok := s.Resolve(h)
	if !ok {
		return false
	}

	ok = true
	for _, c := range e.Children() {
		if !s.updatePosition(c) {
			ok = false
		}
	}

	if slices.Contains(s.pending, h) {
		return ok
	}
	s.evict(h)
	s.insert(h, e)
	return ok
}

func (s *scene) GetEntity(index int) (entity.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.order) {
		return nil, false
	}
	return s.Resolve(s.order[index])
}

func (s *scene) GetEntityByID(id uint64) (entity.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.order {
		if e, ok := s.Resolve(h); ok && e.ID() == id {
			return e, true
		}
	}
	return nil, false
}

func (s *scene) GetEntityByName(name string) (entity.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.order {
		if e, ok := s.Resolve(h); ok && e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

func (s *scene) GetEntityIndex(h entity.Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Index(s.order, h)
}

func (s *scene) EntityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *scene) Entities() []entity.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Entity, 0, len(s.order))
	for _, h := range s.order {
		if e, ok := s.Resolve(h); ok {
			out = append(out, e)
		}
	}
	return out
}

func (s *scene) Raycast(origin, dir mgl32.Vec3) (entity.Entity, float32, bool) {
	h, dist, ok := s.index.Raycast(origin, dir)
	if !ok {
		return nil, 0, false
	}
	e, ok := s.Resolve(h)
	if !ok {
		return nil, 0, false
	}
	return e, dist, true
}

func (s *scene) AddLight(l light.Light) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.lights, l)
	if i < 0 {
		return false
	}
	s.lights = slices.Delete(s.lights, i, i+1)
	return true
}

func (s *scene) Lights() []light.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lights)
}

func (s *scene) AddCubemap(c cubemap.Cubemap) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cubemaps = append(s.cubemaps, c)
}

func (s *scene) Cubemaps() []cubemap.Cubemap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cubemaps)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// every resident handle is known to sit under the root
	for h, b := range s.residency {
		s.index.Remove(h, b, true)
	}
	clear(s.residency)

	for _, h := range s.order {
		if e, ok := s.Resolve(h); ok {
			e.Unbind()
		}
		s.release(h)
	}
	s.order = nil
	s.pending = nil
}
