package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ProjectionKind selects how a camera projects the scene and therefore which
// bounding volume it culls with.
type ProjectionKind int

const (
	// ProjectionPerspective culls with a six-plane view frustum.
	ProjectionPerspective ProjectionKind = iota

	// ProjectionOrthographic culls with an oriented box.
	ProjectionOrthographic
)

func (k ProjectionKind) String() string {
	if k == ProjectionOrthographic {
		return "orthographic"
	}
	return "perspective"
}

type cameraImpl struct {
	mu sync.Mutex

	name string
	kind ProjectionKind

	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3

	fov         float32
	aspect      float32
	near        float32
	far         float32
	orthoWidth  float32
	orthoHeight float32

	// projection layer, recomputed when projectionDirty is set
	projectionDirty  bool
	projectionMatrix mgl32.Mat4
	localBox         common.OrientedBox

	// world layer, recomputed when the pose or the projection layer changed
	transformDirty       bool
	worldDirty           bool
	viewMatrix           mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4
	bounds               Bounds

	controller Controller
	queue      *RenderQueue
}

// Camera defines the interface for a culling camera.
// A camera holds projection settings and a pose, and lazily derives its view
// frustum (perspective) or view box (orthographic) from them. Both layers of that
// cache are invalidated by dirty flags: projection setters dirty the projection
// layer, pose setters dirty the world layer.
//
// Each camera owns a RenderQueue that visible entities submit into.
type Camera interface {
	// Name returns the camera's diagnostic name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Kind returns the projection kind.
	//
	// Returns:
	//   - ProjectionKind: perspective or orthographic
	Kind() ProjectionKind

	// Position returns the world-space eye position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Position() mgl32.Vec3

	// Target returns the world-space look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: the target point
	Target() mgl32.Vec3

	// Forward returns the normalized view direction.
	//
	// Returns:
	//   - mgl32.Vec3: target minus position, normalized
	Forward() mgl32.Vec3

	// Up returns the camera's up vector.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// OrthoSize returns the full width and height of the orthographic view volume.
	//
	// Returns:
	//   - width, height: view volume size
	OrthoSize() (width, height float32)

	// ViewMatrix returns the current view matrix, recomputing it if the pose changed.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix (column-major)
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix, recomputing it if dirty.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix (column-major)
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns Projection * View.
	//
	// Returns:
	//   - mgl32.Mat4: the combined matrix (column-major)
	ViewProjectionMatrix() mgl32.Mat4

	// Bounds returns the world-space culling volume, recomputing only the layers
	// whose inputs changed since the last call.
	//
	// Returns:
	//   - Bounds: frustum or oriented box, tagged by kind
	Bounds() Bounds

	// Dirty reports whether the next Bounds call has to recompute anything.
	//
	// Returns:
	//   - bool: true if a projection or pose change is pending
	Dirty() bool

	// Queue returns the camera's render queue.
	//
	// Returns:
	//   - *RenderQueue: the queue visible entities submit into
	Queue() *RenderQueue

	// Controller returns the attached pose controller, or nil.
	//
	// Returns:
	//   - Controller: the attached controller or nil
	Controller() Controller

	// Update pulls position and target from the attached controller.
	// Does nothing when no controller is attached or the pose is unchanged.
	Update()

	// SetName sets the camera's diagnostic name.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// SetKind switches the projection kind.
	//
	// Parameters:
	//   - kind: perspective or orthographic
	SetKind(kind ProjectionKind)

	// SetPosition moves the eye.
	//
	// Parameters:
	//   - p: world-space eye position
	SetPosition(p mgl32.Vec3)

	// SetTarget sets the look-at point.
	//
	// Parameters:
	//   - t: world-space target
	SetTarget(t mgl32.Vec3)

	// LookAt sets position and target together.
	//
	// Parameters:
	//   - position: world-space eye position
	//   - target: world-space target
	LookAt(position, target mgl32.Vec3)

	// SetUp sets the camera's up vector.
	//
	// Parameters:
	//   - up: the up vector
	SetUp(up mgl32.Vec3)

	// SetFov sets the vertical field of view in radians.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height).
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetOrthoSize sets the full width and height of the orthographic view volume.
	//
	// Parameters:
	//   - width, height: view volume size
	SetOrthoSize(width, height float32)

	// SetController attaches a pose controller.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl Controller)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new perspective Camera at (0, 0, 1) looking at the origin.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		name:            "camera",
		kind:            ProjectionPerspective,
		position:        mgl32.Vec3{0, 0, 1},
		up:              mgl32.Vec3{0, 1, 0},
		fov:             mgl32.DegToRad(45),
		aspect:          1.0,
		near:            0.1,
		far:             100.0,
		orthoWidth:      10.0,
		orthoHeight:     10.0,
		projectionDirty: true,
		transformDirty:  true,
		worldDirty:      true,
		queue:           NewRenderQueue(),
	}
	for _, option := range options {
		option(c)
	}
	if c.controller != nil {
		c.position = c.controller.Position()
		c.target = c.controller.Target()
	}
	return c
}

func (c *cameraImpl) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *cameraImpl) Kind() ProjectionKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.target.Sub(c.position)
	if l := d.Len(); l > 0 {
		return d.Mul(1 / l)
	}
	return mgl32.Vec3{0, 0, -1}
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) OrthoSize() (width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orthoWidth, c.orthoHeight
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Bounds() Bounds {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	return c.bounds
}

func (c *cameraImpl) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionDirty || c.transformDirty || c.worldDirty
}

func (c *cameraImpl) Queue() *RenderQueue {
	return c.queue
}

func (c *cameraImpl) Controller() Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	p, t := c.controller.Position(), c.controller.Target()
	if p == c.position && t == c.target {
		return
	}
	c.position, c.target = p, t
	c.transformDirty = true
}

func (c *cameraImpl) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

func (c *cameraImpl) SetKind(kind ProjectionKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kind != kind {
		c.kind = kind
		c.projectionDirty = true
	}
}

func (c *cameraImpl) SetPosition(p mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
	c.transformDirty = true
}

func (c *cameraImpl) SetTarget(t mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = t
	c.transformDirty = true
}

func (c *cameraImpl) LookAt(position, target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.target = target
	c.transformDirty = true
}

func (c *cameraImpl) SetUp(up mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.transformDirty = true
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.projectionDirty = true
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.projectionDirty = true
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.projectionDirty = true
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.projectionDirty = true
}

func (c *cameraImpl) SetOrthoSize(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoWidth = width
	c.orthoHeight = height
	c.projectionDirty = true
}

func (c *cameraImpl) SetController(ctrl Controller) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

// refresh recomputes whichever cache layers are dirty.
// Caller must hold the mutex.
func (c *cameraImpl) refresh() {
	if c.projectionDirty {
		c.updateProjection()
		c.projectionDirty = false
		c.worldDirty = true
	}
	if c.transformDirty {
		c.viewMatrix = common.LookAt(c.position, c.target, c.safeUp())
		c.transformDirty = false
		c.worldDirty = true
	}
	if !c.worldDirty {
		return
	}

	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	switch c.kind {
	case ProjectionOrthographic:
		camToWorld, _ := common.Invert4(c.viewMatrix)
		c.bounds = Bounds{Kind: BoundsOrientedBox, Box: c.localBox.Transform(camToWorld)}
	default:
		c.bounds = Bounds{Kind: BoundsFrustum, Frustum: common.ExtractFrustumFromMatrix(c.viewProjectionMatrix)}
	}
	c.worldDirty = false
}

// updateProjection rebuilds the projection matrix and the view-space volume.
// Caller must hold the mutex.
func (c *cameraImpl) updateProjection() {
	switch c.kind {
	case ProjectionOrthographic:
		c.projectionMatrix = common.Orthographic(c.orthoWidth, c.orthoHeight, c.near, c.far)
		depth := math32.Abs(c.far - c.near)
		c.localBox = common.NewOrientedBox(
			mgl32.Vec3{0, 0, -(c.near + c.far) / 2},
			mgl32.Vec3{c.orthoWidth / 2, c.orthoHeight / 2, depth / 2},
		)
	default:
		c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	}
}

// safeUp returns the configured up vector, or a perpendicular fallback when it is
// parallel to the view direction.
// Caller must hold the mutex.
func (c *cameraImpl) safeUp() mgl32.Vec3 {
	d := c.target.Sub(c.position)
	if d.Len() == 0 {
		return c.up
	}
	if math32.Abs(d.Normalize().Dot(c.up.Normalize())) > 0.999 {
		return common.PerpendicularUp(d)
	}
	return c.up
}
