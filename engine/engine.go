package engine

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cull/engine/profiler"
	"github.com/Carmen-Shannon/oxy-cull/engine/scene"
	"github.com/Carmen-Shannon/oxy-cull/engine/visibility"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// engine implements the Engine interface.
// A single loop goroutine runs the tick callback, flushes every active scene's
// pending insertions and then runs visibility, so the spatial index is never
// mutated while it is being culled.
type engine struct {
	mu sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled bool
	profileInterval  time.Duration

	engineTickRate time.Duration
	tickCallback   func(frame uint64, deltaTime float32)
	renderCallback func(frame uint64, stats map[int]visibility.FrameStats)

	workers   int
	consumer  visibility.Consumer
	maxFrames uint64
	frame     uint64

	scenes        map[int]scene.Scene
	orchestrators map[int]visibility.Orchestrator
	stats         map[int]visibility.FrameStats
}

// Engine is the main entry point for the engine.
// It owns the frame loop that drives scene updates and visibility determination.
type Engine interface {
	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the frame rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the start of each frame,
	// before pending entities are indexed. Use this for game logic that spawns,
	// removes or moves entities.
	//
	// Parameters:
	//   - callback: function receiving the frame number and delta time in seconds
	SetTickCallback(callback func(frame uint64, deltaTime float32))

	// SetRenderCallback registers the function called after visibility has run
	// for every active scene.
	//
	// Parameters:
	//   - callback: function receiving the frame number and per-scene stats keyed by z-index
	SetRenderCallback(callback func(frame uint64, stats map[int]visibility.FrameStats))

	// AddScene registers a scene at the given z-index key.
	// Scenes are culled in ascending key order each frame.
	//
	// Parameters:
	//   - key: the z-index determining processing order (lower runs first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Stats returns the visibility stats recorded for a scene in the last frame.
	//
	// Parameters:
	//   - key: the z-index of the scene
	//
	// Returns:
	//   - visibility.FrameStats: the stats
	//   - bool: false if the scene has not been culled yet
	Stats(key int) (visibility.FrameStats, bool)

	// Frame returns the number of frames run so far.
	Frame() uint64

	// Step runs a single frame synchronously.
	//
	// Parameters:
	//   - deltaTime: the delta time passed to the tick callback
	//
	// Returns:
	//   - map[int]visibility.FrameStats: per-scene stats for the frame
	Step(deltaTime float32) map[int]visibility.FrameStats

	// Run drives frames at the tick rate until the context is done, Quit is
	// called or the frame budget set with WithMaxFrames is spent.
	//
	// Parameters:
	//   - ctx: the context bounding the loop
	//
	// Returns:
	//   - error: an error if the engine is already running
	Run(ctx context.Context) error

	// Quit signals the frame loop to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		orchestrators:   make(map[int]visibility.Orchestrator),
		stats:           make(map[int]visibility.FrameStats),
		engineTickRate:  time.Second / 60,
		workers:         visibility.DefaultWorkers,
		profileInterval: time.Second,
	}
	for _, opt := range options {
		opt(e)
	}
	e.profiler = profiler.NewProfiler(e.profileInterval)
	for k, s := range e.scenes {
		e.orchestrators[k] = e.newOrchestrator(s)
	}
	return e
}

func (e *engine) newOrchestrator(s scene.Scene) visibility.Orchestrator {
	return visibility.NewOrchestrator(s,
		visibility.WithWorkers(e.workers),
		visibility.WithConsumer(e.consumer),
	)
}

func (e *engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("engine already running")
	}
	e.running = true
	rate := e.engineTickRate
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	logs.WithTag("tick_rate", rate).
		WithTag("workers", e.workers).
		Info("starting frame loop")

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-ctx.Done():
			logs.WithTag("frame", e.Frame()).Info("stopping frame loop")
			return nil
		case <-e.quitChannel:
			logs.WithTag("frame", e.Frame()).Info("frame loop quit")
			return nil
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.Step(dt)
			if e.maxFrames > 0 && e.Frame() >= e.maxFrames {
				logs.WithTag("frame", e.Frame()).Info("frame budget spent")
				return nil
			}
		}
	}
}

func (e *engine) Step(deltaTime float32) map[int]visibility.FrameStats {
	e.mu.Lock()
	frame := e.frame
	tick, render := e.tickCallback, e.renderCallback
	profilingEnabled := e.profilingEnabled
	e.mu.Unlock()

	if tick != nil {
		tick(frame, deltaTime)
	}

	e.mu.Lock()
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	type active struct {
		key  int
		s    scene.Scene
		orch visibility.Orchestrator
	}
	var scenes []active
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			scenes = append(scenes, active{key: k, s: s, orch: e.orchestrators[k]})
		}
	}
	e.mu.Unlock()

	frameStats := make(map[int]visibility.FrameStats, len(scenes))
	for _, a := range scenes {
		a.s.Update()
		st := a.orch.Cull(frame)
		frameStats[a.key] = st

		if profilingEnabled {
			visible, submitted := 0, 0
			for _, k := range visibility.Kinds() {
				visible += st.Visible[k]
				submitted += st.Submitted[k]
			}
			e.profiler.RecordCull(visible, submitted, st.LightsSkipped, st.Duration)
		}
	}

	e.mu.Lock()
	for k, st := range frameStats {
		e.stats[k] = st
	}
	e.frame++
	e.mu.Unlock()

	if render != nil {
		render(frame, frameStats)
	}
	if profilingEnabled {
		e.profiler.Tick()
	}
	return frameStats
}

// Quit signals the frame loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the frame rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	e.engineTickRate = newRate
	running := e.running
	e.mu.Unlock()
	if !running {
		return
	}

	// replace any pending update so the loop sees the newest rate
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(frame uint64, deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(frame uint64, stats map[int]visibility.FrameStats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) AddScene(key int, s scene.Scene) {
	if s == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.orchestrators[key]; ok {
		old.Close()
	}
	e.scenes[key] = s
	e.orchestrators[key] = e.newOrchestrator(s)
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o, ok := e.orchestrators[key]; ok {
		o.Close()
	}
	delete(e.scenes, key)
	delete(e.orchestrators, key)
	delete(e.stats, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func (e *engine) Stats(key int) (visibility.FrameStats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.stats[key]
	return st, ok
}

func (e *engine) Frame() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}
