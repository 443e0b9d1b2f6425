package entity

import (
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// Renderable supplies what an entity submits to a camera's render queue.
type Renderable interface {
	// Signature returns the resource signature the instance draws with.
	//
	// Returns:
	//   - camera.Signature: mesh and texture identifiers
	Signature() camera.Signature

	// InstanceData returns the opaque per-instance payload for one camera.
	//
	// Parameters:
	//   - e: the entity being submitted
	//   - cam: the camera that found it visible
	//
	// Returns:
	//   - any: the payload stored in the render queue
	InstanceData(e Entity, cam camera.Camera) any
}

// InstanceTransform is the payload submitted by MeshRenderable.
type InstanceTransform struct {
	ID    uint64
	World mgl32.Mat4
}

// MeshRenderable submits the entity's world matrix under a fixed signature.
type MeshRenderable struct {
	Sig camera.Signature
}

var _ Renderable = MeshRenderable{}

func (m MeshRenderable) Signature() camera.Signature {
	return m.Sig
}

func (m MeshRenderable) InstanceData(e Entity, _ camera.Camera) any {
	return InstanceTransform{ID: e.ID(), World: e.WorldMatrix()}
}
