package visibility

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/Carmen-Shannon/oxy-cull/engine/entity"
	"github.com/Carmen-Shannon/oxy-cull/engine/light"
	"github.com/Carmen-Shannon/oxy-cull/engine/scene"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// DefaultWorkers is the number of goroutines light and cubemap cameras are
// culled on when WithWorkers is not given.
const DefaultWorkers = 2

// Consumer receives each camera's render queue after submission and before the
// queue is reset. When workers are enabled it is called concurrently for
// different cameras.
type Consumer func(kind Kind, cam camera.Camera, queue *camera.RenderQueue)

// FrameStats summarizes one call to Cull.
type FrameStats struct {
	Frame uint64

	// Visible is the number of entities the index returned, summed per camera kind.
	Visible [kindCount]int

	// Submitted is the number of render submissions, summed per camera kind.
	Submitted [kindCount]int

	// Cameras is the number of cameras culled per kind.
	Cameras [kindCount]int

	LightsActive      int
	LightsSkipped     int
	CubemapsRefreshed int
	Duration          time.Duration
}

// VisibleFor returns the visible entity count for a camera kind.
func (s FrameStats) VisibleFor(k Kind) int {
	if k < 0 || k >= kindCount {
		return 0
	}
	return s.Visible[k]
}

// Orchestrator determines, once per frame, which entities every camera of a
// scene can see and hands them to the entities' render submission hooks.
//
// The scene must not be mutated while Cull runs: all spawns, removals and moves
// of a frame happen before it.
type Orchestrator interface {
	// Cull runs the visibility pass for one frame.
	//
	// The main and secondary cameras are culled first on the calling goroutine.
	// Cubemaps due this frame contribute their six faces. Each enabled
	// shadow-casting light is gated against the main view and due cubemaps;
	// lights that fail are marked inactive and skipped. Light and cubemap face
	// cameras are then culled on the worker pool.
	//
	// Parameters:
	//   - frame: the frame number, used for cubemap refresh scheduling
	//
	// Returns:
	//   - FrameStats: counts for the frame
	Cull(frame uint64) FrameStats

	// LastCullCount returns the visible count recorded for a camera kind by the
	// previous Cull.
	//
	// Parameters:
	//   - kind: the camera kind
	//
	// Returns:
	//   - int: the visible entity count
	LastCullCount(kind Kind) int

	// Scene returns the scene being culled.
	Scene() scene.Scene

	// Workers returns the size of the worker pool, 0 when culling serially.
	Workers() int

	// Close stops the worker pool.
	Close()
}

type job struct {
	kind Kind
	cam  camera.Camera
}

type result struct {
	visible   int
	submitted int
}

type orchestrator struct {
	mu sync.Mutex

	scene    scene.Scene
	workers  int
	pool     worker.DynamicWorkerPool
	consumer Consumer

	last [kindCount]int
}

var _ Orchestrator = &orchestrator{}

// NewOrchestrator creates an Orchestrator for a scene. It panics if the scene is nil.
//
// Parameters:
//   - sc: the scene to cull
//   - options: functional options to configure the orchestrator
//
// Returns:
//   - Orchestrator: the newly created orchestrator
func NewOrchestrator(sc scene.Scene, options ...OrchestratorBuilderOption) Orchestrator {
	if sc == nil {
		panic("visibility: NewOrchestrator requires a non-nil Scene")
	}
	o := &orchestrator{
		scene:   sc,
		workers: DefaultWorkers,
	}
	for _, option := range options {
		option(o)
	}
	if o.workers > 0 {
		o.pool = worker.NewDynamicWorkerPool(o.workers, 256, 1*time.Second)
	}
	return o
}

func (o *orchestrator) Scene() scene.Scene {
	return o.scene
}

func (o *orchestrator) Workers() int {
	return o.workers
}

func (o *orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pool != nil {
		o.pool.Stop()
		o.pool = nil
	}
}

func (o *orchestrator) LastCullCount(kind Kind) int {
	if kind < 0 || kind >= kindCount {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last[kind]
}

func (o *orchestrator) Cull(frame uint64) FrameStats {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	stats := FrameStats{Frame: frame}

	main := o.scene.Camera()
	mainBounds := main.Bounds()
	views := []common.AABB{mainBounds.AABB()}

	o.record(&stats, KindMain, o.cullCamera(KindMain, main))
	if sec := o.scene.SecondaryCamera(); sec != nil {
		o.record(&stats, KindSecondary, o.cullCamera(KindSecondary, sec))
	}

	var jobs []job
	for _, c := range o.scene.Cubemaps() {
		if !c.Due(frame) {
			continue
		}
		views = append(views, c.Bounds())
		for _, face := range c.Faces() {
			jobs = append(jobs, job{kind: KindCubemap, cam: face})
		}
		c.MarkRefreshed(frame)
		stats.CubemapsRefreshed++
	}

	for _, l := range o.scene.Lights() {
		if !l.Enabled() || !l.CastsShadows() {
			l.SetActive(false)
			continue
		}
		if l.Type() == light.LightTypeDirectional {
			l.UpdateCascades(main)
		}
		if !light.Relevant(l, views...) {
			l.SetActive(false)
			stats.LightsSkipped++
			instrumentSkippedLight(l.Type().String())
			logs.WithTag("light", l.Name()).
				WithTag("frame", frame).
				Debug("light outside view, skipped")
			continue
		}
		l.SetActive(true)
		stats.LightsActive++
		k := kindOf(l.Type())
		for _, cam := range l.Cameras() {
			jobs = append(jobs, job{kind: k, cam: cam})
		}
	}

	results := o.run(jobs)
	for i, j := range jobs {
		o.record(&stats, j.kind, results[i])
	}

	stats.Duration = time.Since(start)
	o.last = stats.Visible
	instrumentFrame(stats)
	return stats
}

// run culls every job, on the worker pool when there is one. Each job writes
// only its own result slot and its own camera's queue.
func (o *orchestrator) run(jobs []job) []result {
	results := make([]result, len(jobs))
	if o.pool == nil || len(jobs) < 2 {
		for i, j := range jobs {
			results[i] = o.cullCamera(j.kind, j.cam)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		id := i
		jCap := j
		o.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				results[id] = o.cullCamera(jCap.kind, jCap.cam)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return results
}

// cullCamera queries the index with the camera's bounds, submits every visible
// entity to the camera's queue, hands the queue to the consumer and resets it.
func (o *orchestrator) cullCamera(kind Kind, cam camera.Camera) result {
	queue := cam.Queue()
	bounds := cam.Bounds()
	index := o.scene.Index()

	handles := make([]entity.Handle, 0, queue.LastCullCount())
	switch bounds.Kind {
	case camera.BoundsOrientedBox:
		index.BoxCull(&bounds.Box, &handles)
	default:
		index.FrustumCull(&bounds.Frustum, &handles)
	}

	var r result
	r.visible = len(handles)
	for _, h := range handles {
		e, ok := o.scene.Resolve(h)
		if !ok {
			continue
		}
		if e.Render(cam) {
			r.submitted++
		}
	}

	if o.consumer != nil {
		o.consumer(kind, cam, queue)
	}
	queue.Reset()
	return r
}

func (o *orchestrator) record(stats *FrameStats, kind Kind, r result) {
	stats.Visible[kind] += r.visible
	stats.Submitted[kind] += r.submitted
	stats.Cameras[kind]++
}
