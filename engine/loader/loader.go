package loader

import (
	"io"
	"maps"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/scene"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl32"
)

// Asset summarizes one loaded glTF or GLB file.
type Asset struct {
	// Name is the cache key: the file path, or the name given to LoadReader.
	Name string

	// Meshes are the catalog names of the asset's meshes in document order.
	Meshes []string

	// Textures are the catalog names of the asset's textures in document order.
	Textures []string

	// Bounds encloses every mesh of the asset in mesh space.
	Bounds common.AABB
}

// Catalog assigns stable numeric IDs to mesh and texture names and records the
// local bounds of each mesh. It implements scene.ContentLookup, so render
// signatures can be resolved by name, and supplies entity bounds for meshes
// imported from glTF.
//
// Names are global across assets. A mesh or texture name seen again keeps the
// ID it was first given.
type Catalog interface {
	scene.ContentLookup

	// Load imports a .gltf or .glb file and caches the result by path.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - Asset: the imported asset, or the cached one if path was loaded before
	//   - error: error if reading or parsing fails
	Load(path string) (Asset, error)

	// LoadReader imports a glTF document from a stream and caches it by name.
	// Unnamed meshes are registered as "<name>#<index>".
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the reader providing the document
	//   - isGLB: true if r carries the GLB binary container
	//
	// Returns:
	//   - Asset: the imported asset
	//   - error: error if parsing fails
	LoadReader(name string, r io.Reader, isGLB bool) (Asset, error)

	// RegisterMesh adds a procedural mesh that has no file behind it.
	//
	// Parameters:
	//   - name: the mesh name
	//   - bounds: the mesh's local bounds
	//
	// Returns:
	//   - uint32: the mesh ID, the existing one if name is already registered
	RegisterMesh(name string, bounds common.AABB) uint32

	// RegisterTexture adds a texture name.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - uint32: the texture ID, the existing one if name is already registered
	RegisterTexture(name string) uint32

	// MeshBounds returns the local oriented bounds of a mesh, ready for
	// entity.WithBounds or Entity.SetLocalBounds.
	//
	// Parameters:
	//   - name: the mesh name
	//
	// Returns:
	//   - common.OrientedBox: the bounds
	//   - bool: false if the mesh is unknown
	MeshBounds(name string) (common.OrientedBox, bool)

	// Asset returns a cached asset.
	//
	// Parameters:
	//   - name: the path or stream name it was loaded under
	//
	// Returns:
	//   - Asset: the asset
	//   - bool: false if nothing was loaded under name
	Asset(name string) (Asset, bool)

	// Assets returns a copy of every cached asset keyed by name.
	Assets() map[string]Asset
}

type meshEntry struct {
	id     uint32
	bounds common.AABB
}

type catalog struct {
	mu sync.RWMutex

	meshes   map[string]meshEntry
	textures map[string]uint32
	assets   map[string]Asset
}

var _ Catalog = &catalog{}

// NewCatalog creates an empty Catalog.
//
// Parameters:
//   - options: functional options to pre-register content
//
// Returns:
//   - Catalog: the newly created catalog
func NewCatalog(options ...CatalogBuilderOption) Catalog {
	c := &catalog{
		meshes:   make(map[string]meshEntry),
		textures: make(map[string]uint32),
		assets:   make(map[string]Asset),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *catalog) MeshID(name string) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.meshes[name]
	return m.id, ok
}

func (c *catalog) TextureID(name string) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.textures[name]
	return id, ok
}

func (c *catalog) MeshBounds(name string) (common.OrientedBox, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.meshes[name]
	if !ok {
		return common.OrientedBox{}, false
	}
	return common.NewOrientedBoxFromAABB(m.bounds), true
}

func (c *catalog) RegisterMesh(name string, bounds common.AABB) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerMesh(name, bounds)
}

// registerMesh returns the ID of name, assigning the next one if it is new.
// Caller must hold the write lock.
func (c *catalog) registerMesh(name string, bounds common.AABB) uint32 {
	if m, ok := c.meshes[name]; ok {
		return m.id
	}
	id := uint32(len(c.meshes))
	c.meshes[name] = meshEntry{id: id, bounds: bounds}
	return id
}

func (c *catalog) RegisterTexture(name string) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerTexture(name)
}

// registerTexture returns the ID of name, assigning the next one if it is new.
// Caller must hold the write lock.
func (c *catalog) registerTexture(name string) uint32 {
	if id, ok := c.textures[name]; ok {
		return id
	}
	id := uint32(len(c.textures))
	c.textures[name] = id
	return id
}

func (c *catalog) Load(path string) (Asset, error) {
	if a, ok := c.Asset(path); ok {
		return a, nil
	}
	p, err := parseFile(path)
	if err != nil {
		return Asset{}, err
	}
	return c.register(path, p)
}

func (c *catalog) LoadReader(name string, r io.Reader, isGLB bool) (Asset, error) {
	p, err := parseReader(r, isGLB, ".")
	if err != nil {
		return Asset{}, errors.New("parsing asset failed").WithTag("name", name).Wrap(err)
	}
	return c.register(name, p)
}

// register computes mesh bounds outside the lock, then assigns IDs and caches
// the asset.
func (c *catalog) register(name string, p *gltfParser) (Asset, error) {
	type mesh struct {
		name   string
		bounds common.AABB
	}
	meshes := make([]mesh, len(p.doc.Meshes))
	for i, m := range p.doc.Meshes {
		b, err := p.meshBounds(&m)
		if err != nil {
			return Asset{}, errors.New("computing mesh bounds failed").
				WithTag("asset", name).
				WithTag("mesh", i).
				Wrap(err)
		}
		meshes[i] = mesh{name: m.Name, bounds: b}
		if meshes[i].name == "" {
			meshes[i].name = name + "#" + strconv.Itoa(i)
		}
	}

	a := Asset{Name: name, Bounds: common.EmptyAABB()}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range meshes {
		if _, dup := c.meshes[m.name]; dup {
			logs.WithTag("asset", name).
				WithTag("mesh", m.name).
				Warn("mesh name already registered, keeping the first")
		}
		c.registerMesh(m.name, m.bounds)
		a.Meshes = append(a.Meshes, m.name)
		a.Bounds = a.Bounds.Union(m.bounds)
	}
	for i := range p.doc.Textures {
		t := p.textureName(i)
		c.registerTexture(t)
		a.Textures = append(a.Textures, t)
	}
	c.assets[name] = a

	logs.WithTag("asset", name).
		WithTag("meshes", len(a.Meshes)).
		WithTag("textures", len(a.Textures)).
		Debug("asset loaded")
	return a, nil
}

func (c *catalog) Asset(name string) (Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.assets[name]
	return a, ok
}

func (c *catalog) Assets() map[string]Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.assets)
}

// meshBounds unions the POSITION extents of every primitive. Accessor min/max
// are used when present; otherwise the positions are read from the buffer.
func (p *gltfParser) meshBounds(m *gltfMesh) (common.AABB, error) {
	box := common.EmptyAABB()
	for _, prim := range m.Primitives {
		idx, ok := prim.Attributes[gltfAttributePosition]
		if !ok {
			continue
		}
		if idx < 0 || idx >= len(p.doc.Accessors) {
			return box, errors.New("position accessor out of range").WithTag("accessor", idx)
		}
		acc := &p.doc.Accessors[idx]
		if len(acc.Min) == 3 && len(acc.Max) == 3 {
			box = box.Union(common.AABB{
				Min: mgl32.Vec3{acc.Min[0], acc.Min[1], acc.Min[2]},
				Max: mgl32.Vec3{acc.Max[0], acc.Max[1], acc.Max[2]},
			})
			continue
		}
		positions, err := p.readVec3(idx)
		if err != nil {
			return box, err
		}
		for _, v := range positions {
			box = box.ExtendPoint(mgl32.Vec3(v))
		}
	}
	if box.IsEmpty() {
		return common.AABB{}, nil
	}
	return box, nil
}

// textureName prefers the texture's own name, then its image's name, then the
// image file name.
func (p *gltfParser) textureName(i int) string {
	t := p.doc.Textures[i]
	if t.Name != "" {
		return t.Name
	}
	if t.Source != nil && *t.Source < len(p.doc.Images) {
		img := p.doc.Images[*t.Source]
		if img.Name != "" {
			return img.Name
		}
		if img.URI != "" && !isDataURI(img.URI) {
			return filepath.Base(img.URI)
		}
	}
	return "texture#" + strconv.Itoa(i)
}

func isDataURI(uri string) bool {
	return len(uri) >= 5 && uri[:5] == "data:"
}
