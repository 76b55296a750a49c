package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sqlbatch/internal/dataset"
	"sqlbatch/internal/logging"
	"sqlbatch/internal/metrics"
	"sqlbatch/internal/plotfunc"
	"sqlbatch/internal/rerun"
)

// ReservedOutputDir is the one reserved input name: it binds to the artifact
// output directory instead of a dataset.
const ReservedOutputDir = "output_dir"

const (
	defaultMarkerPrefix = "plot_"
	defaultArtifactExt  = ".png"
)

// PlotOptions configures one function-mode batch.
type PlotOptions struct {
	// ResultsDir is scanned recursively for the CSV datasets plot functions
	// bind against.
	ResultsDir string

	// FunctionsDir optionally points at a directory of plot plugins (*.so)
	// to discover in addition to functions already registered on the
	// registry. Empty means plugin discovery is skipped.
	FunctionsDir string

	// OutputDir is the flat directory plot artifacts land in; also what the
	// reserved "output_dir" input binds to.
	OutputDir string

	// RerunAll forces every discovered function to run.
	RerunAll bool

	// Rerun lists function names that must run even when their artifact
	// exists.
	Rerun []string

	// MarkerPrefix is stripped from a function's name to derive its
	// artifact base name; defaults to "plot_".
	MarkerPrefix string

	// ArtifactExts are the artifact extensions recognized during the
	// staleness check; defaults to [".png"].
	ArtifactExts []string

	// Job names the batch for metrics; defaults to "sqlbatch".
	Job string

	// Logger receives per-item diagnostics; defaults to a discard logger.
	Logger *slog.Logger
}

// RunPlots loads datasets, discovers plot functions, and invokes every
// selected function whose inputs resolve. Binding failures are skips;
// invocation failures (including panics in user code) are recorded and do
// not abort the batch.
func RunPlots(ctx context.Context, reg *plotfunc.Registry, opts PlotOptions) (*Summary, error) {
	if reg == nil {
		return nil, fmt.Errorf("batch: function registry is required")
	}
	if err := checkDir("results dir", opts.ResultsDir); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, fmt.Errorf("batch: output dir is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	job := opts.Job
	if job == "" {
		job = "sqlbatch"
	}
	prefix := opts.MarkerPrefix
	if prefix == "" {
		prefix = defaultMarkerPrefix
	}
	exts := opts.ArtifactExts
	if len(exts) == 0 {
		exts = []string{defaultArtifactExt}
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("batch: create output dir: %w", err)
	}

	datasets, err := dataset.Load(opts.ResultsDir)
	if err != nil {
		return nil, err
	}
	if len(datasets) == 0 {
		logger.Warn("no CSV datasets found", "dir", opts.ResultsDir)
	} else {
		logger.Info("datasets loaded", "count", len(datasets))
	}

	if opts.FunctionsDir != "" {
		if err := reg.LoadDir(opts.FunctionsDir, logger); err != nil {
			return nil, err
		}
	}
	descriptors := reg.Descriptors()
	logger.Info("plot functions discovered", "count", len(descriptors))

	explicit := rerun.NewSet(opts.Rerun)
	summary := &Summary{}
	var selected []*plotfunc.Descriptor
	for _, d := range descriptors {
		exists := hasArtifact(opts.OutputDir, artifactBase(d.Name, prefix), exts)
		if rerun.ShouldRun(d.Name, exists, opts.RerunAll, explicit) {
			selected = append(selected, d)
			continue
		}
		logger.Info("plot skipped, artifact exists", "function", d.Name)
		summary.add(Outcome{ID: d.Name, Status: StatusSkipped})
		metrics.RecordItem(job, "plots", string(StatusSkipped), 0)
	}

	if len(selected) == 0 {
		logger.Info("no plot functions to run, all artifacts exist")
		return summary, nil
	}

	metrics.RecordRun(job, "plots")
	reserved := map[string]string{ReservedOutputDir: opts.OutputDir}
	prog := &Progress{}
	total := len(selected)

	for i, d := range selected {
		start := time.Now()
		st, err := runPlot(d, datasets, reserved, logger)
		dur := time.Since(start)
		prog.Observe(dur)

		summary.add(Outcome{ID: d.Name, Status: st, Err: err, Duration: dur})
		metrics.RecordItem(job, "plots", string(st), dur)

		logger.Info("progress",
			"done", i+1,
			"total", total,
			"last", dur.Truncate(time.Millisecond),
			"eta", prog.Estimate(total-i-1).Truncate(time.Millisecond),
		)
	}

	logger.Info("plot batch completed",
		"succeeded", summary.Count(StatusSucceeded),
		"skipped", summary.Count(StatusSkipped),
		"failed", summary.Count(StatusFailed),
	)
	return summary, nil
}

// runPlot binds and invokes one function. Unresolved inputs distinguish
// "could not attempt" (skip) from "attempted and errored" (fail).
func runPlot(d *plotfunc.Descriptor, datasets dataset.Registry, reserved map[string]string, logger *slog.Logger) (Status, error) {
	invoke, missing := plotfunc.Bind(d, datasets, reserved)
	if len(missing) > 0 {
		logger.Error("plot inputs unresolved", "function", d.Name, "missing", missing)
		return StatusSkipped, fmt.Errorf("unresolved inputs: %s", strings.Join(missing, ", "))
	}

	logger.Info("running plot function", "function", d.Name)
	if err := invoke(); err != nil {
		logger.Error("plot function failed", "function", d.Name, "err", err)
		return StatusFailed, err
	}
	return StatusSucceeded, nil
}

// artifactBase derives the artifact base name for a function: its name with
// the marker prefix stripped. A name without the prefix maps to itself.
func artifactBase(name, prefix string) string {
	return strings.TrimPrefix(name, prefix)
}

// hasArtifact reports whether the flat output directory already holds a file
// whose name starts with base and carries one of the recognized extensions.
// A missing output directory simply means no artifacts yet.
func hasArtifact(dir, base string, exts []string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		ext := filepath.Ext(name)
		for _, want := range exts {
			if strings.EqualFold(ext, want) {
				return true
			}
		}
	}
	return false
}
