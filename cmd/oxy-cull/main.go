package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine"
	"github.com/Carmen-Shannon/oxy-cull/engine/camera"
	"github.com/Carmen-Shannon/oxy-cull/engine/cubemap"
	"github.com/Carmen-Shannon/oxy-cull/engine/entity"
	"github.com/Carmen-Shannon/oxy-cull/engine/light"
	"github.com/Carmen-Shannon/oxy-cull/engine/loader"
	"github.com/Carmen-Shannon/oxy-cull/engine/scene"
	"github.com/Carmen-Shannon/oxy-cull/engine/spatial"
	"github.com/Carmen-Shannon/oxy-cull/engine/visibility"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The oxy-cull version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "oxy_cull_info",
		Help:        "oxy-cull information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it,
// the keys would get obfuscated causing the cli package to generate garbled
// command-line options.
var _ = reflect.TypeOf(config{})

type config struct {
	LogLevel        string        `cli:""        env:"OXY_CULL_LOG_LEVEL"        help:"Log level (debug|info|warning|error)."`
	LogIndent       bool          `cli:""        env:"OXY_CULL_LOG_INDENT"       help:"Indent logs."`
	MetricsAddr     string        `cli:""        env:"OXY_CULL_METRICS_ADDR"     help:"Listening address for the prometheus metrics endpoint. Empty disables it."`
	TickRate        float64       `cli:""        env:"OXY_CULL_TICK_RATE"        help:"Frames per second."`
	Frames          uint64        `cli:""        env:"OXY_CULL_FRAMES"           help:"Number of frames to run. 0 runs until interrupted."`
	Entities        int           `cli:""        env:"OXY_CULL_ENTITIES"         help:"Number of entities in the demo grid."`
	Spacing         float64       `cli:",hidden" env:"OXY_CULL_SPACING"          help:"Distance between grid entities."`
	Workers         int           `cli:""        env:"OXY_CULL_WORKERS"          help:"Light and cubemap cull workers. 0 culls serially."`
	Octree          bool          `cli:""        env:"OXY_CULL_OCTREE"           help:"Use an octree instead of the horizontal quadtree."`
	Asset           string        `cli:""        env:"OXY_CULL_ASSET"            help:"Optional glTF or GLB file whose meshes are mixed into the grid."`
	Capacity        int           `cli:",hidden" env:"OXY_CULL_CAPACITY"         help:"Items per leaf before a split."`
	MaxDepth        int           `cli:",hidden" env:"OXY_CULL_MAX_DEPTH"        help:"Maximum tree depth."`
	ProfileInterval time.Duration `cli:",hidden" env:"OXY_CULL_PROFILE_INTERVAL" help:"Interval between profiler logs. 0 disables profiling."`
	Version         bool          `cli:""        env:"-"                         help:"Show version."`
	Help            bool          `cli:""        env:"-"                         help:"Show help."`
}

func main() {
	conf := config{
		LogLevel:        logs.InfoLevel.String(),
		MetricsAddr:     ":18290",
		TickRate:        60,
		Entities:        4096,
		Spacing:         3,
		Workers:         visibility.DefaultWorkers,
		Capacity:        spatial.DefaultCapacity,
		MaxDepth:        spatial.DefaultMaxDepth,
		ProfileInterval: time.Second * 5,
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Runs a headless culling demo scene.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	if conf.MetricsAddr != "" {
		go serveMetrics(ctx, conf.MetricsAddr)
	}

	sc, err := buildScene(conf)
	if err != nil {
		logs.Fatal(err)
	}

	var batches atomic.Int64
	eng := engine.NewEngine(
		engine.WithTickRate(conf.TickRate),
		engine.WithMaxFrames(conf.Frames),
		engine.WithCullWorkers(conf.Workers),
		engine.WithProfiling(conf.ProfileInterval > 0),
		engine.WithProfileInterval(conf.ProfileInterval),
		engine.WithScene(0, sc),
		engine.WithConsumer(func(_ visibility.Kind, _ camera.Camera, q *camera.RenderQueue) {
			q.Each(func(_ camera.Signature, _ []any) {
				batches.Add(1)
			})
		}),
	)

	d := newDriver(sc, conf)
	eng.SetTickCallback(d.tick)
	eng.SetRenderCallback(func(frame uint64, stats map[int]visibility.FrameStats) {
		st := stats[0]
		logs.WithTag("frame", frame).
			WithTag("main", st.VisibleFor(visibility.KindMain)).
			WithTag("lights_active", st.LightsActive).
			WithTag("lights_skipped", st.LightsSkipped).
			WithTag("batches", batches.Swap(0)).
			Debug("frame culled")
	})

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("entities", conf.Entities).
		WithTag("octree", conf.Octree).
		Info("starting oxy-cull demo")

	if err := eng.Run(ctx); err != nil {
		logs.Fatal(errors.New("running engine failed").Wrap(err))
	}

	s := sc.Index().Stats()
	logs.WithTag("nodes", s.Nodes).
		WithTag("leaves", s.Leaves).
		WithTag("items", s.Items).
		WithTag("refs", s.Refs).
		WithTag("max_depth", s.MaxDepth).
		Info("index stats")
}

func validateConfig(conf config) error {
	if conf.Entities < 0 {
		return errors.New("entity count must not be negative").
			WithTag("entities", conf.Entities)
	}
	if conf.Spacing <= 0 {
		return errors.New("spacing must be positive").
			WithTag("spacing", conf.Spacing)
	}
	if conf.Capacity < 1 {
		return errors.New("leaf capacity must be at least 1").
			WithTag("capacity", conf.Capacity)
	}
	if conf.MaxDepth < 0 {
		return errors.New("max depth must not be negative").
			WithTag("max_depth", conf.MaxDepth)
	}
	if conf.TickRate < 0 {
		return errors.Newf("invalid tick rate %v", conf.TickRate)
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string) {
	var mux http.ServeMux
	mux.Handle("/metrics", promhttp.Handler())
	s := &http.Server{Addr: addr, Handler: &mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logs.Warn(errors.New("shutting down metrics server failed").Wrap(err))
		}
	}()

	logs.WithTag("addr", addr).Info("starting metrics server")
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logs.Error(errors.New("metrics server failed").
			WithTag("addr", addr).
			Wrap(err))
	}
}

// gridSide returns the number of entities per side of the square demo grid.
func gridSide(n int) int {
	return max(int(math32.Ceil(math32.Sqrt(float32(n)))), 1)
}

// demoContent registers the procedural meshes every grid uses, plus the meshes
// of the optional asset. It returns the mesh/texture pairs entities cycle through.
func demoContent(conf config) (loader.Catalog, [][2]string, error) {
	unit := common.NewAABB(mgl32.Vec3{}, mgl32.Vec3{0.5, 0.5, 0.5})
	catalog := loader.NewCatalog(
		loader.WithMesh("cube", unit),
		loader.WithMesh("sphere", unit),
		loader.WithTexture("checker"),
		loader.WithTexture("noise"),
	)
	kinds := [][2]string{{"sphere", "noise"}, {"cube", "checker"}, {"cube", "checker"}}
	if conf.Asset == "" {
		return catalog, kinds, nil
	}

	a, err := catalog.Load(conf.Asset)
	if err != nil {
		return nil, nil, errors.New("loading demo asset failed").Wrap(err)
	}
	tex := "checker"
	if len(a.Textures) > 0 {
		tex = a.Textures[0]
	}
	for _, m := range a.Meshes {
		kinds = append(kinds, [2]string{m, tex})
	}
	logs.WithTag("asset", a.Name).
		WithTag("meshes", len(a.Meshes)).
		WithTag("extents", a.Bounds.Extents()).
		Info("demo asset loaded")
	return catalog, kinds, nil
}

func buildScene(conf config) (scene.Scene, error) {
	spacing := float32(conf.Spacing)
	half := float32(gridSide(conf.Entities))*spacing/2 + spacing
	world := common.NewAABB(mgl32.Vec3{0, 15, 0}, mgl32.Vec3{half, 16, half})

	opts := []spatial.IndexBuilderOption{
		spatial.WithCapacity(conf.Capacity),
		spatial.WithMaxDepth(conf.MaxDepth),
	}
	index := spatial.NewQuadtree(opts...)
	if conf.Octree {
		index = spatial.NewOctree(opts...)
	}

	content, kinds, err := demoContent(conf)
	if err != nil {
		return nil, err
	}

	cam := camera.NewCamera(
		camera.WithName("main"),
		camera.WithFov(mgl32.DegToRad(60)),
		camera.WithAspect(16.0/9.0),
		camera.WithNear(0.1),
		camera.WithFar(half*2),
		camera.WithController(camera.NewOrbitController(
			camera.WithRadius(half*0.75),
			camera.WithElevation(0.6),
			camera.WithOrbitTarget(mgl32.Vec3{0, 0, 0}),
			camera.WithRadiusBounds(5, half*2),
		)),
	)

	minimap := camera.NewCamera(
		camera.WithName("minimap"),
		camera.WithOrthographic(half, half),
		camera.WithPosition(mgl32.Vec3{0, 40, 0.01}),
		camera.WithTarget(mgl32.Vec3{0, 0, 0}),
		camera.WithNear(0.1),
		camera.WithFar(60),
	)

	sc := scene.NewScene("demo", cam,
		scene.WithActive(true),
		scene.WithIndex(index),
		scene.WithWorldBounds(world),
		scene.WithContent(content),
		scene.WithSecondaryCamera(minimap),
		scene.WithLights(
			light.NewLight(light.LightTypeDirectional,
				light.WithName("sun"),
				light.WithDirection(mgl32.Vec3{-0.3, -1, -0.2}),
				light.WithCastsShadows(true),
			),
			light.NewLight(light.LightTypeSpot,
				light.WithName("spot"),
				light.WithPosition(mgl32.Vec3{0, 20, 0}),
				light.WithDirection(mgl32.Vec3{0, -1, 0}),
				light.WithRange(40),
				light.WithSpotCone(20, 30),
				light.WithCastsShadows(true),
			),
			light.NewLight(light.LightTypePoint,
				light.WithName("lamp"),
				light.WithPosition(mgl32.Vec3{half * 0.5, 5, half * 0.5}),
				light.WithRange(15),
				light.WithCastsShadows(true),
			),
		),
		scene.WithCubemaps(cubemap.NewCubemap(
			cubemap.WithName("probe"),
			cubemap.WithPosition(mgl32.Vec3{0, 4, 0}),
			cubemap.WithRefreshInterval(30),
		)),
	)

	side := gridSide(conf.Entities)
	for i := range conf.Entities {
		x := (float32(i%side) - float32(side)/2) * spacing
		z := (float32(i/side) - float32(side)/2) * spacing

		mesh, tex := kinds[i%len(kinds)][0], kinds[i%len(kinds)][1]
		sig, ok := sc.Signature(mesh, tex)
		if !ok {
			logs.WithTag("mesh", mesh).Warn("unknown content")
			continue
		}

		e := entity.NewEntity(
			entity.WithName(fmt.Sprintf("%s-%d", mesh, i)),
			entity.WithPosition(mgl32.Vec3{x, 0.5, z}),
			entity.WithRenderable(entity.MeshRenderable{Sig: sig}),
		)
		if b, ok := content.MeshBounds(mesh); ok {
			e.SetLocalBounds(b)
		}
		sc.AddEntity(e, entity.InvalidHandle)
	}
	return sc, nil
}

// driver moves the demo scene between frames: it orbits the main camera, bobs
// a few entities and periodically spawns and despawns a small hierarchy.
type driver struct {
	sc      scene.Scene
	bobbers []entity.Handle
	spawned entity.Handle
	elapsed float32
}

func newDriver(sc scene.Scene, conf config) *driver {
	d := &driver{sc: sc, spawned: entity.InvalidHandle}
	for i := 0; i < min(conf.Entities, 64); i++ {
		if e, ok := sc.GetEntity(i * max(conf.Entities/64, 1)); ok {
			d.bobbers = append(d.bobbers, e.Handle())
		}
	}
	return d
}

func (d *driver) tick(frame uint64, dt float32) {
	d.elapsed += dt

	cam := d.sc.Camera()
	if ctrl := cam.Controller(); ctrl != nil {
		ctrl.Orbit(dt*0.25, 0)
	}
	cam.Update()

	y := 0.5 + math32.Abs(math32.Sin(d.elapsed*2))*2
	for _, h := range d.bobbers {
		e, ok := d.sc.Resolve(h)
		if !ok {
			continue
		}
		p := e.Position()
		e.SetPosition(mgl32.Vec3{p[0], y, p[2]})
		d.sc.UpdateEntityPosition(h)
	}

	switch {
	case frame%120 == 0 && !d.spawned.Valid():
		d.spawn()
	case frame%120 == 60 && d.spawned.Valid():
		if !d.sc.RemoveEntity(d.spawned) {
			logs.WithTag("frame", frame).Warn("despawn incomplete")
		}
		d.spawned = entity.InvalidHandle
	}
}

func (d *driver) spawn() {
	sig, _ := d.sc.Signature("cube", "checker")
	root := entity.NewEntity(
		entity.WithName("spawned"),
		entity.WithPosition(mgl32.Vec3{0, 2, 0}),
		entity.WithRenderable(entity.MeshRenderable{Sig: sig}),
	)
	h, ok := d.sc.AddEntity(root, entity.InvalidHandle)
	if !ok {
		return
	}
	for i := range 4 {
		child := entity.NewEntity(
			entity.WithName(fmt.Sprintf("spawned-child-%d", i)),
			entity.WithPosition(mgl32.Vec3{float32(i) - 1.5, 1, 0}),
			entity.WithScale(mgl32.Vec3{0.5, 0.5, 0.5}),
			entity.WithRenderable(entity.MeshRenderable{Sig: sig}),
		)
		d.sc.AddEntity(child, h)
	}
	d.spawned = h
}
