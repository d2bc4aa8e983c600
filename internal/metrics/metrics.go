package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "roomchat"

// Label values for the result label of CommandsTotal.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "number of connected sessions",
		})

	SessionsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_dropped_total",
			Help:      "sessions removed by the server, by reason",
		}, []string{"reason"})

	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "commands handled by the hub",
		}, []string{"command", "result"})

	PushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "push frames queued for delivery",
		}, []string{"kind"})

	FramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "frames read from or written to sessions",
		}, []string{"direction"})

	RoomsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "rooms in the directory",
		})
)

// Register adds the chat collectors plus runtime collectors to r.
// It is safe to call with several distinct registries.
func Register(r prometheus.Registerer) {
	r.MustRegister(
		SessionsActive,
		SessionsDropped,
		CommandsTotal,
		PushesTotal,
		FramesTotal,
		RoomsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// NewRegistry returns a registry with every collector registered.
func NewRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	Register(r)
	return r
}
