// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the batch pipeline.
//
// The package is intentionally minimal:
//
//   - It exposes a narrow interface (Backend) for counters and durations.
//   - It provides a global, pluggable backend defaulting to a no-op
//     implementation, so metric calls are always safe even when no real
//     backend is configured.
//   - Concrete metric systems (Prometheus Pushgateway, DogStatsD) are
//     isolated in subpackages; the executors depend only on this package.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style value in seconds.
	ObserveDuration(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)      {}
func (nopBackend) ObserveDuration(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                              { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordItem records the terminal state and duration of one work item.
// mode is "queries" or "plots"; status mirrors the executor's outcome
// statuses ("succeeded", "skipped", "failed").
func RecordItem(job, mode, status string, d time.Duration) {
	lbls := Labels{
		"job":    job,
		"mode":   mode,
		"status": status,
	}
	backend.IncCounter("batch_items_total", 1, lbls)
	backend.ObserveDuration("batch_item_duration_seconds", d.Seconds(), lbls)
}

// RecordRun increments the per-run counter for a whole batch invocation.
func RecordRun(job, mode string) {
	backend.IncCounter("batch_runs_total", 1, Labels{
		"job":  job,
		"mode": mode,
	})
}
