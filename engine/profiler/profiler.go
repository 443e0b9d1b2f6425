package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Profiler tracks frame rate, memory and culling statistics for performance
// monitoring. Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	visible   int
	submitted int
	skipped   int
	cullTime  time.Duration
	culls     int
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - interval: how often stats are logged; defaults to 1 second when <= 0
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// RecordCull accumulates one scene's visibility pass into the current interval.
//
// Parameters:
//   - visible: entities returned by the index over all cameras
//   - submitted: render submissions over all cameras
//   - skipped: lights rejected by the coarse bounds test
//   - d: time spent in the pass
func (p *Profiler) RecordCull(visible, submitted, skipped int, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible += visible
	p.submitted += submitted
	p.skipped += skipped
	p.cullTime += d
	p.culls++
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times,
// total memory and per-frame culling averages.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	entry := logs.WithTag("fps", fps).
		WithTag("heap_mb", allocMB).
		WithTag("alloc_rate_mb", allocRateMB).
		WithTag("gc", gcCount).
		WithTag("gc_last_pause_us", lastPauseUs).
		WithTag("gc_max_pause_us", maxPauseUs).
		WithTag("sys_mb", sysMB)
	if p.culls > 0 {
		n := float64(p.culls)
		entry = entry.
			WithTag("visible_avg", float64(p.visible)/n).
			WithTag("submitted_avg", float64(p.submitted)/n).
			WithTag("lights_skipped_avg", float64(p.skipped)/n).
			WithTag("cull_avg", p.cullTime/time.Duration(p.culls))
	}
	entry.Info("profiler")

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.visible, p.submitted, p.skipped, p.culls = 0, 0, 0, 0
	p.cullTime = 0
	return true
}
