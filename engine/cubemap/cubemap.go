package cubemap

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

type cubemapImpl struct {
	mu sync.Mutex

	name            string
	position        mgl32.Vec3
	near            float32
	far             float32
	refreshInterval uint64
	lastRefresh     uint64
	refreshed       bool

	faces [6]camera.Camera
}

// Cubemap is an environment probe rendered from six face cameras. It is
// re-rendered every RefreshInterval frames rather than every frame.
type Cubemap interface {
	// Name returns the probe's diagnostic name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Position returns the probe's world-space centre.
	//
	// Returns:
	//   - mgl32.Vec3: the centre
	Position() mgl32.Vec3

	// SetPosition moves the probe and its face cameras.
	//
	// Parameters:
	//   - p: the new centre
	SetPosition(p mgl32.Vec3)

	// Faces returns the six face cameras, ordered +X, -X, +Y, -Y, +Z, -Z.
	//
	// Returns:
	//   - [6]camera.Camera: the face cameras
	Faces() [6]camera.Camera

	// RefreshInterval returns how many frames pass between refreshes.
	//
	// Returns:
	//   - uint64: frames between refreshes, 1 meaning every frame
	RefreshInterval() uint64

	// Due reports whether the probe needs refreshing on the given frame.
	// A probe that has never been refreshed is always due.
	//
	// Parameters:
	//   - frame: the current frame number
	//
	// Returns:
	//   - bool: true if the faces should be culled this frame
	Due(frame uint64) bool

	// MarkRefreshed records that the faces were culled on the given frame.
	//
	// Parameters:
	//   - frame: the current frame number
	MarkRefreshed(frame uint64)

	// Bounds returns the box reachable by the face cameras.
	//
	// Returns:
	//   - common.AABB: position extended by the far distance on every axis
	Bounds() common.AABB
}

var _ Cubemap = &cubemapImpl{}

// NewCubemap creates a cubemap probe at the origin refreshed every 30 frames.
//
// Parameters:
//   - options: functional options to configure the probe
//
// Returns:
//   - Cubemap: the newly created probe
func NewCubemap(options ...CubemapBuilderOption) Cubemap {
	c := &cubemapImpl{
		name:            "cubemap",
		near:            0.1,
		far:             50.0,
		refreshInterval: 30,
	}
	for _, option := range options {
		option(c)
	}
	if c.refreshInterval == 0 {
		c.refreshInterval = 1
	}
	c.faces = camera.NewCubeFaceCameras(c.name, c.position, c.near, c.far)
	return c
}

func (c *cubemapImpl) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *cubemapImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cubemapImpl) SetPosition(p mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
	camera.MoveCubeFaceCameras(c.faces, p)
}

func (c *cubemapImpl) Faces() [6]camera.Camera {
	return c.faces
}

func (c *cubemapImpl) RefreshInterval() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshInterval
}

func (c *cubemapImpl) Due(frame uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.refreshed {
		return true
	}
	return frame >= c.lastRefresh+c.refreshInterval
}

func (c *cubemapImpl) MarkRefreshed(frame uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRefresh = frame
	c.refreshed = true
}

func (c *cubemapImpl) Bounds() common.AABB {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.NewAABB(c.position, mgl32.Vec3{c.far, c.far, c.far})
}
