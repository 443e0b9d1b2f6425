package cubemap

import "github.com/go-gl/mathgl/mgl32"

// CubemapBuilderOption is a functional option for configuring a Cubemap.
type CubemapBuilderOption func(*cubemapImpl)

// WithName sets the probe's diagnostic name, also used to name its face cameras.
//
// Parameters:
//   - name: the name
//
// Returns:
//   - CubemapBuilderOption: a function that sets the name
func WithName(name string) CubemapBuilderOption {
	return func(c *cubemapImpl) {
		c.name = name
	}
}

// WithPosition sets the probe's centre.
//
// Parameters:
//   - p: world-space centre
//
// Returns:
//   - CubemapBuilderOption: a function that sets the position
func WithPosition(p mgl32.Vec3) CubemapBuilderOption {
	return func(c *cubemapImpl) {
		c.position = p
	}
}

// WithClip sets the near and far distances of the face cameras.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CubemapBuilderOption: a function that sets the clip distances
func WithClip(near, far float32) CubemapBuilderOption {
	return func(c *cubemapImpl) {
		c.near = near
		c.far = far
	}
}

// WithRefreshInterval sets how many frames pass between refreshes.
//
// Parameters:
//   - frames: frames between refreshes, 0 and 1 both meaning every frame
//
// Returns:
//   - CubemapBuilderOption: a function that sets the refresh interval
func WithRefreshInterval(frames uint64) CubemapBuilderOption {
	return func(c *cubemapImpl) {
		c.refreshInterval = frames
	}
}
