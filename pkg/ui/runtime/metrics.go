package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rapidgui",
		Name:      "frames_total",
		Help:      "Frames rendered by the render loop.",
	})
	metricFrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rapidgui",
		Name:      "frame_duration_seconds",
		Help:      "Time spent in one frame, input through present.",
		Buckets:   []float64{.0005, .001, .002, .004, .008, .015, .03, .06, .125},
	})
	metricCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rapidgui",
		Name:      "commands_total",
		Help:      "Commands applied by the render loop.",
	}, []string{"kind"})
	metricQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rapidgui",
		Name:      "command_queue_depth",
		Help:      "Commands waiting for the next frame.",
	})
	metricSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rapidgui",
		Name:      "signals_fired_total",
		Help:      "Signal events emitted by widgets.",
	}, []string{"signal"})
	metricCallbackPanics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rapidgui",
		Name:      "callback_panics_total",
		Help:      "Signal callbacks that panicked and were recovered.",
	})
	metricSceneClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rapidgui",
		Name:      "scene_closed_rejections_total",
		Help:      "Commands rejected because the scene had closed.",
	})
)
