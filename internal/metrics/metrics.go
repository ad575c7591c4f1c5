package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeup",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of successful service starts.",
		}, []string{"service"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeup",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of confirmed service stops (graceful or forced).",
		}, []string{"service"},
	)
	serviceStartFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeup",
			Subsystem: "service",
			Name:      "start_failures_total",
			Help:      "Number of starts that did not reach a live process.",
		}, []string{"service"},
	)
	serviceRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "edgeup",
			Subsystem: "service",
			Name:      "running",
			Help:      "Whether the service is currently running (1) or not (0).",
		}, []string{"service"},
	)
	deploys = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeup",
			Subsystem: "orchestrator",
			Name:      "deploys_total",
			Help:      "Number of deploy flows by outcome.",
		}, []string{"outcome"},
	)
	remoteCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeup",
			Subsystem: "remote",
			Name:      "commands_total",
			Help:      "Number of remote command executions by outcome.",
		}, []string{"outcome"},
	)
	remoteCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgeup",
			Subsystem: "remote",
			Name:      "command_duration_seconds",
			Help:      "Wall time of remote command executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		serviceStarts, serviceStops, serviceStartFailures, serviceRunning,
		deploys, remoteCommands, remoteCommandDuration,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the
// DefaultGatherer. The caller wires the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart(service string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(service).Inc()
	}
}

func IncStop(service string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(service).Inc()
	}
}

func IncStartFailure(service string) {
	if regOK.Load() {
		serviceStartFailures.WithLabelValues(service).Inc()
	}
}

func SetRunning(service string, running bool) {
	if regOK.Load() {
		v := 0.0
		if running {
			v = 1.0
		}
		serviceRunning.WithLabelValues(service).Set(v)
	}
}

func IncDeploy(outcome string) {
	if regOK.Load() {
		deploys.WithLabelValues(outcome).Inc()
	}
}

func IncRemoteCommand(outcome string) {
	if regOK.Load() {
		remoteCommands.WithLabelValues(outcome).Inc()
	}
}

func ObserveRemoteCommand(outcome string, seconds float64) {
	if regOK.Load() {
		remoteCommandDuration.WithLabelValues(outcome).Observe(seconds)
	}
}
