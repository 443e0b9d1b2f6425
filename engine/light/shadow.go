package light

// DefaultShadowHalfExtent is the orthographic half-extent (in world units) of a
// directional cascade before it has been fitted to a main camera.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the near plane shared by spot, point and cascade cameras.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the depth of a directional cascade's orthographic box,
// measured back along the light direction from the cascade centre.
const DefaultShadowFar float32 = 200.0

// DefaultCascadeSplits are the fractions of the main camera's far plane at which
// consecutive directional cascades end.
var DefaultCascadeSplits = []float32{0.1, 0.3, 1.0}

// maxSpotFov caps a spot camera's field of view; wider cones are clamped so the
// projection stays finite.
const maxSpotFovDeg float32 = 170.0
