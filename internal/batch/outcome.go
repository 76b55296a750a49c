// Package batch drives the scan → filter → bind → invoke sequence for both
// work item kinds: SQL query files mirrored into CSV results, and plot
// functions rendered into an artifact directory. Execution is strictly
// sequential; every per-item failure is isolated, logged, and recorded in the
// summary, so a batch never aborts because of a single bad item.
package batch

import (
	"time"
)

// Status is the terminal state of a work item.
type Status string

const (
	// StatusSucceeded means the item was selected, ran, and completed.
	StatusSucceeded Status = "succeeded"
	// StatusSkipped means the item was not attempted: its output already
	// existed, or its inputs could not be resolved.
	StatusSkipped Status = "skipped"
	// StatusFailed means the item was attempted and errored.
	StatusFailed Status = "failed"
)

// Outcome records the terminal state of one work item for one batch. It is
// never persisted; the summary exists for logging and the exit report.
type Outcome struct {
	ID       string
	Status   Status
	Err      error
	Duration time.Duration
}

// Summary collects the outcome of every discovered work item in a batch.
type Summary struct {
	Outcomes []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Count returns how many outcomes reached the given status.
func (s *Summary) Count(st Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == st {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that ended in StatusFailed.
func (s *Summary) Failed() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}
