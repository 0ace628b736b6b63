package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rapidgui",
		Subsystem: "relay",
		Name:      "published_total",
		Help:      "Signal events published to the message bus.",
	})

	metricFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rapidgui",
		Subsystem: "relay",
		Name:      "failed_total",
		Help:      "Signal events the message bus rejected.",
	})

	metricDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rapidgui",
		Subsystem: "relay",
		Name:      "dropped_total",
		Help:      "Signal events dropped because the backlog was full.",
	})

	metricControlRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rapidgui",
		Subsystem: "relay",
		Name:      "control_requests_total",
		Help:      "Remote control requests by outcome.",
	}, []string{"outcome"})
)
