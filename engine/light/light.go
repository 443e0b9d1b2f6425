package light

import (
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Its shadow cameras are orthographic cascades fitted to the main view.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Its shadow cameras are six cube faces reaching out to the light's range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Its shadow camera is a single perspective camera covering the outer cone.
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu sync.Mutex

	name         string
	lightType    LightType
	position     mgl32.Vec3
	direction    mgl32.Vec3
	color        mgl32.Vec3
	intensity    float32
	lightRange   float32
	innerCone    float32 // stored as cos(angle in radians)
	outerCone    float32 // stored as cos(angle in radians)
	outerAngle   float32 // radians
	enabled      bool
	castsShadows bool
	active       bool

	cascadeSplits []float32
	cascadeDepth  float32

	cameras []camera.Camera
}

// Light defines the interface for a light source in the scene.
//
// Besides its lighting parameters, every light owns the auxiliary cameras used
// to render its shadow viewpoints. The visibility pass culls the scene once per
// light camera, after a coarse test that the light's bounds touch the main view.
type Light interface {
	// Name returns the light's diagnostic name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Direction returns the normalized direction of the light.
	// For directional lights this is the light direction. For spot lights this
	// is the cone axis. Meaningless for point lights.
	//
	// Returns:
	//   - mgl32.Vec3: the normalized direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum reach of point and spot lights.
	//
	// Returns:
	//   - float32: the range in world units
	Range() float32

	// InnerCone returns the cosine of the spot light's inner cone angle.
	//
	// Returns:
	//   - float32: cos(inner angle)
	InnerCone() float32

	// OuterCone returns the cosine of the spot light's outer cone angle.
	//
	// Returns:
	//   - float32: cos(outer angle)
	OuterCone() float32

	// Enabled returns whether the light is switched on.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// CastsShadows returns whether the light renders shadow views.
	//
	// Returns:
	//   - bool: true if the light's cameras are culled each frame
	CastsShadows() bool

	// Active returns whether the light's cameras were refreshed this frame.
	// The visibility pass clears it for lights that fail the coarse view test.
	//
	// Returns:
	//   - bool: true if refreshed this frame
	Active() bool

	// Cameras returns the light's shadow cameras, creating them on first use.
	//
	// Returns:
	//   - []camera.Camera: 1 for spot, 6 for point, one per cascade for directional
	Cameras() []camera.Camera

	// UpdateCascades fits every directional cascade to a slice of the main view.
	// Does nothing for point and spot lights.
	//
	// Parameters:
	//   - main: the camera whose view the cascades cover
	UpdateCascades(main camera.Camera)

	// Bounds returns a conservative world-space box around everything the light
	// can affect.
	//
	// Returns:
	//   - common.AABB: the light's enclosing box
	Bounds() common.AABB

	// SetName sets the light's diagnostic name.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// SetPosition moves the light and its cameras.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p mgl32.Vec3)

	// SetDirection re-aims the light and its cameras. The direction is normalized.
	//
	// Parameters:
	//   - d: the new direction
	SetDirection(d mgl32.Vec3)

	// SetColor sets the RGB color.
	//
	// Parameters:
	//   - c: color as (r, g, b)
	SetColor(c mgl32.Vec3)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetRange sets the reach of point and spot lights and their cameras' far planes.
	//
	// Parameters:
	//   - lightRange: the range in world units
	SetRange(lightRange float32)

	// SetSpotCone sets the inner and outer cone angles in degrees.
	//
	// Parameters:
	//   - innerDeg: inner cone angle
	//   - outerDeg: outer cone angle
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled switches the light on or off.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetCastsShadows sets whether the light renders shadow views.
	//
	// Parameters:
	//   - castsShadows: true to cull the light's cameras each frame
	SetCastsShadows(castsShadows bool)

	// SetActive records whether the light's cameras were refreshed this frame.
	//
	// Parameters:
	//   - active: false when the light was skipped
	SetActive(active bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the given type with the supplied options applied.
// Defaults to white, intensity 1, range 10, enabled and casting shadows.
//
// Parameters:
//   - lightType: the kind of light source (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the newly created light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		name:          lightType.String(),
		lightType:     lightType,
		direction:     mgl32.Vec3{0, -1, 0},
		color:         mgl32.Vec3{1, 1, 1},
		intensity:     1.0,
		lightRange:    10.0,
		innerCone:     cosDeg(15),
		outerCone:     cosDeg(30),
		outerAngle:    mgl32.DegToRad(30),
		enabled:       true,
		castsShadows:  true,
		active:        true,
		cascadeSplits: DefaultCascadeSplits,
		cascadeDepth:  DefaultShadowFar,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lightRange
}

func (l *lightImpl) InnerCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.castsShadows
}

func (l *lightImpl) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *lightImpl) Cameras() []camera.Camera {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cameras == nil {
		l.buildCameras()
	}
	return l.cameras
}

// buildCameras creates the shadow cameras for the light type.
// Caller must hold the mutex.
func (l *lightImpl) buildCameras() {
	switch l.lightType {
	case LightTypeSpot:
		l.cameras = []camera.Camera{camera.NewCamera(
			camera.WithName(l.name),
			camera.WithFov(l.spotFov()),
			camera.WithAspect(1),
			camera.WithNear(DefaultShadowNear),
			camera.WithFar(l.lightRange),
		)}
	case LightTypePoint:
		faces := camera.NewCubeFaceCameras(l.name, l.position, DefaultShadowNear, l.lightRange)
		l.cameras = faces[:]
	case LightTypeDirectional:
		l.cameras = make([]camera.Camera, len(l.cascadeSplits))
		for i := range l.cascadeSplits {
			l.cameras[i] = camera.NewCamera(
				camera.WithName(l.name+"["+strconv.Itoa(i)+"]"),
				camera.WithOrthographic(2*DefaultShadowHalfExtent, 2*DefaultShadowHalfExtent),
				camera.WithNear(DefaultShadowNear),
				camera.WithFar(l.cascadeDepth),
			)
		}
	}
	l.poseCameras()
}

// poseCameras pushes position and direction into existing cameras.
// Caller must hold the mutex.
func (l *lightImpl) poseCameras() {
	switch l.lightType {
	case LightTypeSpot:
		if len(l.cameras) == 1 {
			c := l.cameras[0]
			c.SetUp(common.PerpendicularUp(l.direction))
			c.LookAt(l.position, l.position.Add(l.direction))
		}
	case LightTypePoint:
		if len(l.cameras) == 6 {
			camera.MoveCubeFaceCameras([6]camera.Camera(l.cameras), l.position)
		}
	case LightTypeDirectional:
		for _, c := range l.cameras {
			// keep each cascade centre, only re-aim it
			center := c.Target()
			c.SetUp(common.PerpendicularUp(l.direction))
			c.LookAt(center.Sub(l.direction.Mul(l.cascadeDepth/2)), center)
		}
	}
}

// spotFov is the full outer cone angle, clamped to keep the projection finite.
// Caller must hold the mutex.
func (l *lightImpl) spotFov() float32 {
	return math32.Min(2*l.outerAngle, mgl32.DegToRad(maxSpotFovDeg))
}

func (l *lightImpl) UpdateCascades(main camera.Camera) {
	if l.lightType != LightTypeDirectional || main == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cameras == nil {
		l.buildCameras()
	}

	eye, forward := main.Position(), main.Forward()
	near, far := main.Near(), main.Far()
	tanHalf := math32.Tan(main.Fov() / 2)
	diag := math32.Sqrt(1 + main.Aspect()*main.Aspect())
	up := common.PerpendicularUp(l.direction)

	start := near
	for i, split := range l.cascadeSplits {
		end := near + (far-near)*split
		mid := (start + end) / 2
		center := eye.Add(forward.Mul(mid))

		// radius of a sphere around the frustum slice, so the box covers it at any light angle
		halfDepth := (end - start) / 2
		halfWidth := end * tanHalf * diag
		radius := math32.Sqrt(halfDepth*halfDepth + halfWidth*halfWidth)

		c := l.cameras[i]
		c.SetOrthoSize(2*radius, 2*radius)
		c.SetFar(math32.Max(l.cascadeDepth, 2*radius))
		c.SetUp(up)
		c.LookAt(center.Sub(l.direction.Mul(c.Far()/2)), center)
		start = end
	}
}

func (l *lightImpl) Bounds() common.AABB {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.lightType {
	case LightTypePoint:
		r := l.lightRange
		return common.NewAABB(l.position, mgl32.Vec3{r, r, r})
	case LightTypeSpot:
		if l.cameras == nil {
			l.buildCameras()
		}
		b := l.cameras[0].Bounds()
		return b.AABB()
	default:
		if l.cameras == nil {
			l.buildCameras()
		}
		box := common.EmptyAABB()
		for _, c := range l.cameras {
			b := c.Bounds()
			box = box.Union(b.AABB())
		}
		return box
	}
}

func (l *lightImpl) SetName(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.name = name
}

func (l *lightImpl) SetPosition(p mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = p
	l.poseCameras()
}

func (l *lightImpl) SetDirection(d mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = normalize(d)
	l.poseCameras()
}

func (l *lightImpl) SetColor(c mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = c
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lightRange = lightRange
	if l.lightType == LightTypeDirectional {
		return
	}
	for _, c := range l.cameras {
		c.SetFar(lightRange)
	}
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.innerCone = cosDeg(innerDeg)
	l.outerCone = cosDeg(outerDeg)
	l.outerAngle = mgl32.DegToRad(outerDeg)
	if l.lightType == LightTypeSpot && len(l.cameras) == 1 {
		l.cameras[0].SetFov(l.spotFov())
	}
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.castsShadows = castsShadows
}

func (l *lightImpl) SetActive(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = active
}
