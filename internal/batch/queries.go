package batch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sqlbatch/internal/engine"
	"sqlbatch/internal/logging"
	"sqlbatch/internal/metrics"
	"sqlbatch/internal/mirror"
	"sqlbatch/internal/rerun"
)

const (
	querySourceExt = ".sql"
	queryOutputExt = ".csv"
)

// QueryOptions configures one query-mode batch.
type QueryOptions struct {
	// QueryDir is the root of the query source tree; scanned recursively
	// for *.sql files.
	QueryDir string

	// OutputDir is the root of the mirrored result tree.
	OutputDir string

	// RerunAll forces every discovered query to run regardless of existing
	// output.
	RerunAll bool

	// Rerun lists query file names (base names, e.g. "q1.sql") that must
	// run even when their output exists.
	Rerun []string

	// Job names the batch for metrics; defaults to "sqlbatch".
	Job string

	// Logger receives per-item diagnostics; defaults to a discard logger.
	Logger *slog.Logger
}

// queryItem is one discovered query file together with its mirrored output
// path. Identity for the rerun policy is the file's base name.
type queryItem struct {
	src string
	rel string
	out string
}

// RunQueries executes every selected query file under opts.QueryDir against
// the single shared engine connection, writing each non-empty result to the
// mirrored CSV path under opts.OutputDir. Per-item failures are logged and
// recorded; only pre-flight validation errors abort the batch.
func RunQueries(ctx context.Context, conn *engine.Conn, opts QueryOptions) (*Summary, error) {
	if conn == nil {
		return nil, fmt.Errorf("batch: engine connection is required")
	}
	if err := checkDir("query dir", opts.QueryDir); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, fmt.Errorf("batch: output dir is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	job := opts.Job
	if job == "" {
		job = "sqlbatch"
	}

	items, err := discoverQueries(opts.QueryDir, opts.OutputDir)
	if err != nil {
		return nil, err
	}
	logger.Info("queries discovered", "count", len(items), "dir", opts.QueryDir)

	explicit := rerun.NewSet(opts.Rerun)
	summary := &Summary{}
	var selected []queryItem
	for _, it := range items {
		_, statErr := os.Stat(it.out)
		exists := statErr == nil
		if rerun.ShouldRun(filepath.Base(it.src), exists, opts.RerunAll, explicit) {
			selected = append(selected, it)
			continue
		}
		logger.Info("query skipped, output exists", "query", it.rel)
		summary.add(Outcome{ID: it.rel, Status: StatusSkipped})
		metrics.RecordItem(job, "queries", string(StatusSkipped), 0)
	}

	if len(selected) == 0 {
		logger.Info("no queries to execute")
		return summary, nil
	}

	metrics.RecordRun(job, "queries")
	prog := &Progress{}
	total := len(selected)

	for i, it := range selected {
		start := time.Now()
		err := runQuery(ctx, conn, it, logger)
		d := time.Since(start)
		prog.Observe(d)

		st := StatusSucceeded
		if err != nil {
			st = StatusFailed
			logger.Error("query failed", "query", it.rel, "err", err)
		}
		summary.add(Outcome{ID: it.rel, Status: st, Err: err, Duration: d})
		metrics.RecordItem(job, "queries", string(st), d)

		logger.Info("progress",
			"done", i+1,
			"total", total,
			"last", d.Truncate(time.Millisecond),
			"eta", prog.Estimate(total-i-1).Truncate(time.Millisecond),
		)
	}

	logger.Info("query batch completed",
		"succeeded", summary.Count(StatusSucceeded),
		"skipped", summary.Count(StatusSkipped),
		"failed", summary.Count(StatusFailed),
	)
	return summary, nil
}

// discoverQueries walks the query tree, creating each mirrored output
// directory as it goes so later writes only touch files.
func discoverQueries(queryDir, outputDir string) ([]queryItem, error) {
	var items []queryItem
	err := filepath.WalkDir(queryDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), querySourceExt) {
			return nil
		}
		rel, err := filepath.Rel(queryDir, path)
		if err != nil {
			return err
		}
		if _, err := mirror.Ensure(outputDir, filepath.Dir(rel)); err != nil {
			return err
		}
		out, err := mirror.OutputPath(queryDir, outputDir, path, queryOutputExt)
		if err != nil {
			return err
		}
		items = append(items, queryItem{src: path, rel: rel, out: out})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", queryDir, err)
	}
	return items, nil
}

// runQuery executes one query file. An empty result is logged as a warning
// and produces no output file, leaving the item eligible on the next run.
func runQuery(ctx context.Context, conn *engine.Conn, it queryItem, logger *slog.Logger) error {
	raw, err := os.ReadFile(it.src)
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}

	logger.Info("executing query", "query", it.rel)
	table, err := conn.Query(ctx, string(raw))
	if err != nil {
		return err
	}

	if table.Empty() {
		logger.Warn("query returned no rows, output not written", "query", it.rel)
		return nil
	}
	if err := table.WriteFile(it.out); err != nil {
		return err
	}
	logger.Info("query result written", "query", it.rel, "output", it.out, "rows", len(table.Rows))
	return nil
}

func checkDir(what, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("batch: %s is required", what)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("batch: %s: %w", what, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("batch: %s %s is not a directory", what, path)
	}
	return nil
}
