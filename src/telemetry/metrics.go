package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glomers",
			Name:      "events_total",
			Help:      "Events dispatched to the state machine, by kind.",
		},
		[]string{"kind"},
	)

	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glomers",
			Name:      "messages_received_total",
			Help:      "Envelopes read from the input stream, by payload type.",
		},
		[]string{"type"},
	)

	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glomers",
			Name:      "messages_sent_total",
			Help:      "Envelopes written to the output stream, by payload type.",
		},
		[]string{"type"},
	)

	// GossipValues counts values put in outgoing gossip. "new" values were not
	// known to the neighbor, "redundant" ones were added by sampling.
	GossipValues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glomers",
			Name:      "gossip_values_total",
			Help:      "Values included in outgoing gossip, by class.",
		},
		[]string{"class"},
	)

	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "glomers",
			Name:      "step_duration_seconds",
			Help:      "Time spent by the state machine on one event.",
			// 10us .. ~80ms
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
		},
		[]string{"kind"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "glomers",
			Name:      "build_info",
			Help:      "Build info (constant 1, labeled by version and binary).",
		},
		[]string{"version", "binary"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "glomers",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(EventsTotal, MessagesReceived, MessagesSent, GossipValues, StepDuration, buildInfo, uptime)
}

// MetricsHandler exposes /metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// SetBuildInfo should be called once at startup.
func SetBuildInfo(version, binary string) {
	buildInfo.WithLabelValues(version, binary).Set(1)
}

// ObserveStep records the duration of one state machine step.
func ObserveStep(kind string, start time.Time) {
	StepDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
