// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the batch labels (mode, status) onto Prometheus labels; the
//     job name becomes the Pushgateway grouping key.
//   - Pushing collected metrics to a Pushgateway instance instead of exposing
//     an HTTP scrape endpoint, which fits a short-lived batch process.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. DogStatsD) without changes to the executors.
package prompush

import (
	"fmt"

	"sqlbatch/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	itemCounter  *prometheus.CounterVec // "batch_items_total"
	itemDuration *prometheus.SummaryVec // "batch_item_duration_seconds"
	runCounter   *prometheus.CounterVec // "batch_runs_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (usually the batch job name).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "sqlbatch"
	}

	reg := prometheus.NewRegistry()

	itemCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_items_total",
			Help: "Work items reaching a terminal state, partitioned by mode and status.",
		},
		[]string{"mode", "status"},
	)
	itemDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "batch_item_duration_seconds",
			Help:       "Duration of work items in seconds, partitioned by mode and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"mode", "status"},
	)
	runCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_runs_total",
			Help: "Total batch invocations, partitioned by mode.",
		},
		[]string{"mode"},
	)

	if err := reg.Register(itemCounter); err != nil {
		return nil, fmt.Errorf("prompush: register item counter: %w", err)
	}
	if err := reg.Register(itemDuration); err != nil {
		return nil, fmt.Errorf("prompush: register item summary: %w", err)
	}
	if err := reg.Register(runCounter); err != nil {
		return nil, fmt.Errorf("prompush: register run counter: %w", err)
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		itemCounter:  itemCounter,
		itemDuration: itemDuration,
		runCounter:   runCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "batch_items_total":
		if b.itemCounter == nil {
			return
		}
		b.itemCounter.WithLabelValues(labels["mode"], labels["status"]).Add(delta)

	case "batch_runs_total":
		if b.runCounter == nil {
			return
		}
		b.runCounter.WithLabelValues(labels["mode"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveDuration(name string, value float64, labels metrics.Labels) {
	if name != "batch_item_duration_seconds" || b.itemDuration == nil {
		return
	}
	b.itemDuration.WithLabelValues(labels["mode"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
