package camera

import "github.com/go-gl/mathgl/mgl32"

// Controller owns a camera pose. Cameras read position and target from their
// controller on Update, so a moving controller dirties the camera's world layer
// once per frame at most.
type Controller interface {
	// Position returns the controlled eye position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space eye position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - t: world-space target
	SetTarget(t mgl32.Vec3)

	// Orbit rotates the eye around the target. Elevation is clamped to the
	// configured bounds.
	//
	// Parameters:
	//   - dAzimuth: change of the horizontal angle in radians
	//   - dElevation: change of the vertical angle in radians
	Orbit(dAzimuth, dElevation float32)

	// Step orbits horizontally by one orbit speed step. Negative steps orbit left.
	//
	// Parameters:
	//   - steps: number of orbit speed steps
	Step(steps float32)

	// Zoom adjusts the distance to the target. Positive delta moves closer.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// Pan translates eye and target together along the horizontal right and
	// forward axes, preserving the orbit relationship.
	//
	// Parameters:
	//   - right: amount along the camera's right axis
	//   - forward: amount along the camera's horizontal forward axis
	Pan(right, forward float32)

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// Azimuth returns the current horizontal angle around the Y axis.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// Elevation returns the current vertical angle from the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32
}
