// This file adds a lightweight linter/validator for Batch values. It performs
// static checks over a decoded Batch and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Batch.
//
// Path is a dotted path into the config (e.g. "engine.kind",
// "metrics.pushgateway_url"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Batch. It does not mutate the
// config; callers decide whether warnings are fatal.
func Validate(b Batch) []Issue {
	var issues []Issue

	if strings.TrimSpace(b.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics will be labeled with the default job name",
		})
	}

	issues = append(issues, validateEngine(b.Engine)...)

	queriesSet := b.Queries != (Queries{})
	plotsSet := b.Plots.OutputDir != "" || b.Plots.ResultsDir != "" || b.Plots.FunctionsDir != ""
	if !queriesSet && !plotsSet {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "queries",
			Message:  "neither queries nor plots is configured; nothing to run",
		})
	}
	if queriesSet {
		issues = append(issues, validateQueries(b.Queries)...)
	}
	if plotsSet {
		issues = append(issues, validatePlots(b.Plots)...)
	}
	issues = append(issues, validateMetrics(b.Metrics)...)

	return issues
}

func validateEngine(e Engine) []Issue {
	var issues []Issue

	if strings.TrimSpace(e.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "engine.kind",
			Message:  "engine.kind must not be empty",
		})
		return issues
	}

	// Known engine kinds. Unknown kinds are warnings (for forward compatibility).
	known := map[string]struct{}{
		"sqlite":   {},
		"postgres": {},
		"mssql":    {},
		"mysql":    {},
	}
	if _, ok := known[e.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "engine.kind",
			Message:  fmt.Sprintf("unknown engine kind %q; ensure a matching backend is registered", e.Kind),
		})
	}

	if strings.TrimSpace(e.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "engine.dsn",
			Message:  "engine.dsn must not be empty",
		})
	}

	return issues
}

func validateQueries(q Queries) []Issue {
	var issues []Issue

	if strings.TrimSpace(q.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "queries.dir",
			Message:  "queries.dir must not be empty",
		})
	}
	if strings.TrimSpace(q.OutputDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "queries.output_dir",
			Message:  "queries.output_dir must not be empty",
		})
	}

	return issues
}

func validatePlots(p Plots) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.ResultsDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "plots.results_dir",
			Message:  "plots.results_dir must not be empty",
		})
	}
	if strings.TrimSpace(p.OutputDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "plots.output_dir",
			Message:  "plots.output_dir must not be empty",
		})
	}
	for i, ext := range p.ArtifactExts {
		if !strings.HasPrefix(ext, ".") {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("plots.artifact_exts[%d]", i),
				Message:  fmt.Sprintf("extension %q has no leading dot and will never match", ext),
			})
		}
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires metrics.pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.statsd_addr",
				Message:  "statsd_addr is empty; the client default address will be used",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; expected pushgateway, datadog, or none", m.Backend),
		})
	}

	return issues
}
