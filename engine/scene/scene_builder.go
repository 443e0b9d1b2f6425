package scene

import (
	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/Carmen-Shannon/oxy-cull/engine/cubemap"
	"github.com/Carmen-Shannon/oxy-cull/engine/entity"
	"github.com/Carmen-Shannon/oxy-cull/engine/light"
	"github.com/Carmen-Shannon/oxy-cull/engine/spatial"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithIndex replaces the default quadtree with another spatial index, such as
// spatial.NewOctree for scenes with significant vertical spread.
//
// Parameters:
//   - index: the spatial index to cull through
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithIndex(index spatial.Index) SceneBuilderOption {
	return func(s *scene) {
		if index != nil {
			s.index = index
		}
	}
}

// WithWorldBounds initializes the spatial index over the given world volume.
// Entities whose bounds fall fully outside it are never indexed.
//
// Parameters:
//   - bounds: the world volume
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorldBounds(bounds common.AABB) SceneBuilderOption {
	return func(s *scene) {
		s.worldBounds = &bounds
	}
}

// WithContent injects the mesh and texture lookup used to build render signatures.
//
// Parameters:
//   - content: the content lookup
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithContent(content ContentLookup) SceneBuilderOption {
	return func(s *scene) {
		s.content = content
	}
}

// WithSecondaryCamera sets the secondary view camera.
//
// Parameters:
//   - cam: the secondary camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSecondaryCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.secondary = cam
	}
}

// WithLights adds initial lights to the scene.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			if l != nil {
				s.lights = append(s.lights, l)
			}
		}
	}
}

// WithCubemaps adds initial cubemap probes to the scene.
//
// Parameters:
//   - cubemaps: the probes to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCubemaps(cubemaps ...cubemap.Cubemap) SceneBuilderOption {
	return func(s *scene) {
		for _, c := range cubemaps {
			if c != nil {
				s.cubemaps = append(s.cubemaps, c)
			}
		}
	}
}

// WithEntities registers initial root entities. They are queued like any other
// registration and reach the spatial index at the first Update.
//
// Parameters:
//   - entities: the entities to register
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEntities(entities ...entity.Entity) SceneBuilderOption {
	return func(s *scene) {
		for _, e := range entities {
			if e == nil {
				continue
			}
			h := s.allocate(e)
			if !e.Bind(h, s.nextID, s) {
				s.release(h)
				logs.WithTag("scene", s.name).Warn("entity already registered elsewhere, skipped")
				continue
			}
			s.nextID++
			s.order = append(s.order, h)
			s.pending = append(s.pending, h)
		}
	}
}
