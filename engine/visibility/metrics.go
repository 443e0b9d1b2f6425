package visibility

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindLabel      = "kind"
	lightTypeLabel = "light_type"
)

var (
	visibleEntities = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cull_visible_entities",
		Help: "The number of entities found visible in the last frame, summed over cameras of a kind.",
	}, []string{kindLabel})

	culledCameras = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cull_cameras_total",
		Help: "The total number of camera culls.",
	}, []string{kindLabel})

	skippedLights = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cull_skipped_lights_total",
		Help: "The total number of lights rejected by the coarse bounds test.",
	}, []string{lightTypeLabel})

	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cull_frame_duration_seconds",
		Help:    "The time spent determining visibility for a frame.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})
)

func instrumentFrame(stats FrameStats) {
	for _, k := range Kinds() {
		visibleEntities.
			With(prometheus.Labels{kindLabel: k.String()}).
			Set(float64(stats.Visible[k]))
		if n := stats.Cameras[k]; n > 0 {
			culledCameras.
				With(prometheus.Labels{kindLabel: k.String()}).
				Add(float64(n))
		}
	}
	frameDuration.Observe(stats.Duration.Seconds())
}

func instrumentSkippedLight(lightType string) {
	skippedLights.
		With(prometheus.Labels{lightTypeLabel: lightType}).
		Inc()
}
