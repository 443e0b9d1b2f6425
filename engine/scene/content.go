package scene

// ContentLookup maps mesh and texture names to the numeric IDs render
// signatures are keyed on. It is injected into the scene at construction.
type ContentLookup interface {
	// MeshID returns the ID registered for a mesh name.
	//
	// Parameters:
	//   - name: the mesh name
	//
	// Returns:
	//   - uint32: the mesh ID
	//   - bool: false if the name is unknown
	MeshID(name string) (uint32, bool)

	// TextureID returns the ID registered for a texture name.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - uint32: the texture ID
	//   - bool: false if the name is unknown
	TextureID(name string) (uint32, bool)
}

// MapContent is a ContentLookup backed by two maps.
type MapContent struct {
	Meshes   map[string]uint32
	Textures map[string]uint32
}

var _ ContentLookup = MapContent{}

func (c MapContent) MeshID(name string) (uint32, bool) {
	id, ok := c.Meshes[name]
	return id, ok
}

func (c MapContent) TextureID(name string) (uint32, bool) {
	id, ok := c.Textures[name]
	return id, ok
}
