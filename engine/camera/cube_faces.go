package camera

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
)

// CubeFace indexes the six faces of a cube camera set.
type CubeFace int

const (
	CubeFacePosX CubeFace = iota
	CubeFaceNegX
	CubeFacePosY
	CubeFaceNegY
	CubeFacePosZ
	CubeFaceNegZ
)

// cubeFaceDirections holds the view direction and up vector per face, following
// the usual cubemap layer convention.
var cubeFaceDirections = [6][2]mgl32.Vec3{
	{{1, 0, 0}, {0, -1, 0}},
	{{-1, 0, 0}, {0, -1, 0}},
	{{0, 1, 0}, {0, 0, 1}},
	{{0, -1, 0}, {0, 0, -1}},
	{{0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, -1, 0}},
}

// NewCubeFaceCameras creates six 90 degree perspective cameras covering every
// direction around position.
//
// Parameters:
//   - name: prefix for the camera names, suffixed with the face index
//   - position: shared eye position
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - [6]Camera: cameras ordered +X, -X, +Y, -Y, +Z, -Z
func NewCubeFaceCameras(name string, position mgl32.Vec3, near, far float32) [6]Camera {
	var out [6]Camera
	for i, dir := range cubeFaceDirections {
		out[i] = NewCamera(
			WithName(name+"["+strconv.Itoa(i)+"]"),
			WithPosition(position),
			WithTarget(position.Add(dir[0])),
			WithUp(dir[1]),
			WithFov(mgl32.DegToRad(90)),
			WithAspect(1),
			WithNear(near),
			WithFar(far),
		)
	}
	return out
}

// MoveCubeFaceCameras repositions all six faces, keeping their orientation.
//
// Parameters:
//   - faces: cameras created by NewCubeFaceCameras
//   - position: the new shared eye position
func MoveCubeFaceCameras(faces [6]Camera, position mgl32.Vec3) {
	for i, c := range faces {
		c.LookAt(position, position.Add(cubeFaceDirections[i][0]))
	}
}
