// Package metrics records build metrics in a Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Metrics = (*Recorder)(nil)

const namespace = "kiln"

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	CacheLookups   *prometheus.CounterVec
	Modules        *prometheus.CounterVec
	ModuleDuration prometheus.Histogram
	LinkDuration   prometheus.Histogram
	LinkFailures   prometheus.Counter
}

// NewRecorder creates a Recorder with every collector registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result",
		}, []string{"result"}),
		Modules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modules_total",
			Help:      "Modules that reached a terminal state, by state",
		}, []string{"state"}),
		ModuleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "module_duration_seconds",
			Help:      "Time from dispatch to completion of a module",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		LinkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "link_duration_seconds",
			Help:      "Time spent in the native linker",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_failures_total",
			Help:      "Linker invocations that failed",
		}),
	}
	r.registry.MustRegister(r.CacheLookups, r.Modules, r.ModuleDuration, r.LinkDuration, r.LinkFailures)
	return r
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCacheLookup counts a cache hit or miss.
func (r *Recorder) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveModule counts a module by terminal state and records how long it took.
// Skipped modules never ran and have no duration.
func (r *Recorder) ObserveModule(state domain.JobState, elapsed time.Duration) {
	r.Modules.WithLabelValues(state.String()).Inc()
	if state != domain.JobSkipped {
		r.ModuleDuration.Observe(elapsed.Seconds())
	}
}

// ObserveLink records a linker run.
func (r *Recorder) ObserveLink(elapsed time.Duration, err error) {
	r.LinkDuration.Observe(elapsed.Seconds())
	if err != nil {
		r.LinkFailures.Inc()
	}
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics file"), "path", path)
	}
	return nil
}
