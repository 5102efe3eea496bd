// Package metrics exposes Prometheus collectors for supervised process
// lifecycle activity. Helpers no-op until Register is called so embedding
// callers that do not care about metrics pay nothing.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	regOK atomic.Bool

	processStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitcrew",
			Subsystem: "process",
			Name:      "starts_total",
			Help:      "Number of successful process launches.",
		}, []string{"name"},
	)
	processStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitcrew",
			Subsystem: "process",
			Name:      "stops_total",
			Help:      "Number of run terminations (requested stop or natural exit).",
		}, []string{"name"},
	)
	processFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitcrew",
			Subsystem: "process",
			Name:      "failures_total",
			Help:      "Number of launch failures and output stream failures.",
		}, []string{"name"},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitcrew",
			Subsystem: "process",
			Name:      "state_transitions_total",
			Help:      "Number of state transitions between process states.",
		}, []string{"name", "from", "to"},
	)
	currentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pitcrew",
			Subsystem: "process",
			Name:      "current_state",
			Help:      "Current state per process (1 = active state, 0 = inactive).",
		}, []string{"name", "state"},
	)
	runningProcesses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pitcrew",
			Subsystem: "registry",
			Name:      "running_processes",
			Help:      "Number of supervised processes currently running.",
		},
	)
)

var knownStates = []string{"stopped", "running", "paused", "error"}

// Register registers all collectors with r. Safe to call multiple times;
// AlreadyRegisteredError is tolerated so the default registry can be reused.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		processStarts, processStops, processFailures,
		stateTransitions, currentState, runningProcesses,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
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

// Handler serves the default gatherer; the caller wires the route.
func Handler() http.Handler { return promhttp.Handler() }

func IncStart(name string) {
	if regOK.Load() {
		processStarts.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		processStops.WithLabelValues(name).Inc()
	}
}

func IncFailure(name string) {
	if regOK.Load() {
		processFailures.WithLabelValues(name).Inc()
	}
}

func RecordStateTransition(name, from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(name, from, to).Inc()
	}
}

// SetCurrentState marks state active for name and clears the other states.
func SetCurrentState(name, state string) {
	if !regOK.Load() {
		return
	}
	for _, st := range knownStates {
		v := 0.0
		if st == state {
			v = 1
		}
		currentState.WithLabelValues(name, st).Set(v)
	}
}

func SetRunningProcesses(n int) {
	if regOK.Load() {
		runningProcesses.Set(float64(n))
	}
}
