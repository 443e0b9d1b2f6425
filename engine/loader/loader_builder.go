package loader

import "github.com/Carmen-Shannon/oxy-cull/common"

// CatalogBuilderOption is a functional option for configuring a Catalog via NewCatalog.
type CatalogBuilderOption func(*catalog)

// WithMesh pre-registers a procedural mesh.
//
// Parameters:
//   - name: the mesh name
//   - bounds: the mesh's local bounds
//
// Returns:
//   - CatalogBuilderOption: a function that registers the mesh
func WithMesh(name string, bounds common.AABB) CatalogBuilderOption {
	return func(c *catalog) {
		c.registerMesh(name, bounds)
	}
}

// WithTexture pre-registers a texture name.
//
// Parameters:
//   - name: the texture name
//
// Returns:
//   - CatalogBuilderOption: a function that registers the texture
func WithTexture(name string) CatalogBuilderOption {
	return func(c *catalog) {
		c.registerTexture(name)
	}
}
