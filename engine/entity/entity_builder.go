package entity

import (
	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/go-gl/mathgl/mgl32"
)

// EntityBuilderOption is a functional option for configuring an Entity.
type EntityBuilderOption func(*entityImpl)

// WithName sets the entity's name.
//
// Parameters:
//   - name: the name, not required to be unique
//
// Returns:
//   - EntityBuilderOption: a function that sets the name
func WithName(name string) EntityBuilderOption {
	return func(e *entityImpl) {
		e.name = name
	}
}

// WithEnabled sets whether the entity submits itself for rendering.
//
// Parameters:
//   - enabled: true to enable
//
// Returns:
//   - EntityBuilderOption: a function that sets the enabled state
func WithEnabled(enabled bool) EntityBuilderOption {
	return func(e *entityImpl) {
		e.enabled = enabled
	}
}

// WithPosition sets the local translation.
//
// Parameters:
//   - p: translation relative to the parent
//
// Returns:
//   - EntityBuilderOption: a function that sets the translation
func WithPosition(p mgl32.Vec3) EntityBuilderOption {
	return func(e *entityImpl) {
		e.position = p
	}
}

// WithRotation sets the local rotation.
//
// Parameters:
//   - q: rotation relative to the parent
//
// Returns:
//   - EntityBuilderOption: a function that sets the rotation
func WithRotation(q mgl32.Quat) EntityBuilderOption {
	return func(e *entityImpl) {
		e.rotation = q.Normalize()
	}
}

// WithEulerRotation sets the local rotation from angles in radians applied in X, Y, Z order.
//
// Parameters:
//   - x, y, z: rotation angles in radians
//
// Returns:
//   - EntityBuilderOption: a function that sets the rotation
func WithEulerRotation(x, y, z float32) EntityBuilderOption {
	return func(e *entityImpl) {
		e.rotation = mgl32.AnglesToQuat(x, y, z, mgl32.XYZ)
	}
}

// WithScale sets the local scale.
//
// Parameters:
//   - s: per-axis scale
//
// Returns:
//   - EntityBuilderOption: a function that sets the scale
func WithScale(s mgl32.Vec3) EntityBuilderOption {
	return func(e *entityImpl) {
		e.scale = s
	}
}

// WithBounds sets an object-space box from a centre and half extents.
//
// Parameters:
//   - center: box centre in object space
//   - extents: half sizes in object space
//
// Returns:
//   - EntityBuilderOption: a function that sets the local bounds
func WithBounds(center, extents mgl32.Vec3) EntityBuilderOption {
	return func(e *entityImpl) {
		e.localBounds = common.NewOrientedBox(center, extents)
	}
}

// WithRenderable sets the render submission source.
//
// Parameters:
//   - r: the submission source
//
// Returns:
//   - EntityBuilderOption: a function that sets the renderable
func WithRenderable(r Renderable) EntityBuilderOption {
	return func(e *entityImpl) {
		e.renderable = r
	}
}
