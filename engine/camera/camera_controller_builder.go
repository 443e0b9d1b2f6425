package camera

import "github.com/go-gl/mathgl/mgl32"

// ControllerBuilderOption is a functional option for configuring an orbit controller.
type ControllerBuilderOption func(*orbitController)

// WithRadius sets the initial orbit radius.
//
// Parameters:
//   - radius: distance from the target
//
// Returns:
//   - ControllerBuilderOption: functional option to set the radius
func WithRadius(radius float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle.
//
// Parameters:
//   - azimuth: angle around the Y axis in radians
//
// Returns:
//   - ControllerBuilderOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle.
//
// Parameters:
//   - elevation: angle above the horizontal plane in radians
//
// Returns:
//   - ControllerBuilderOption: functional option to set the elevation
func WithElevation(elevation float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.elevation = elevation
	}
}

// WithOrbitTarget sets the pivot point.
//
// Parameters:
//   - t: world-space pivot
//
// Returns:
//   - ControllerBuilderOption: functional option to set the target position
func WithOrbitTarget(t mgl32.Vec3) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.target = t
	}
}

// WithRadiusBounds sets the zoom limits.
//
// Parameters:
//   - min, max: allowed radius range
//
// Returns:
//   - ControllerBuilderOption: functional option to set radius bounds
func WithRadiusBounds(min, max float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.minRadius = min
		cc.maxRadius = max
	}
}

// WithOrbitSpeed sets the angle covered by one Step.
//
// Parameters:
//   - speed: radians per step
//
// Returns:
//   - ControllerBuilderOption: functional option to set orbit speed
func WithOrbitSpeed(speed float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the zoom multiplier.
//
// Parameters:
//   - speed: multiplier for zoom input
//
// Returns:
//   - ControllerBuilderOption: functional option to set zoom speed
func WithZoomSpeed(speed float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.zoomSpeed = speed
	}
}
