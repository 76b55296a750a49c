package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sqlbatch/internal/batch"
	"sqlbatch/internal/plotfunc"
	"sqlbatch/pkg/tabular"
)

func writeCSV(tb testing.TB, dir, name, content string) {
	tb.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		tb.Fatalf("write csv: %v", err)
	}
}

func mustRegister(tb testing.TB, r *plotfunc.Registry, name string, fn any) {
	tb.Helper()
	if err := r.Register(name, fn); err != nil {
		tb.Fatalf("register %s: %v", name, err)
	}
}

type peopleInputs struct {
	People    *tabular.Table
	OutputDir string
}

func TestRunPlots_RendersAndThenSkips(t *testing.T) {
	t.Parallel()
	results, out := t.TempDir(), t.TempDir()
	writeCSV(t, results, "people.csv", "id,name\n1,ana\n")

	calls := 0
	reg := plotfunc.NewRegistry()
	mustRegister(t, reg, "plot_people", func(in peopleInputs) error {
		calls++
		if in.People == nil || len(in.People.Rows) != 1 {
			t.Errorf("bound table = %+v", in.People)
		}
		return os.WriteFile(filepath.Join(in.OutputDir, "people.png"), []byte("png"), 0o644)
	})

	opts := batch.PlotOptions{ResultsDir: results, OutputDir: out}
	sum, err := batch.RunPlots(context.Background(), reg, opts)
	if err != nil {
		t.Fatalf("RunPlots: %v", err)
	}
	if got := sum.Count(batch.StatusSucceeded); got != 1 {
		t.Fatalf("succeeded = %d, want 1", got)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	// The artifact now exists under the prefix-stripped name, so a second
	// run selects nothing.
	sum, err = batch.RunPlots(context.Background(), reg, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := sum.Count(batch.StatusSkipped); got != 1 {
		t.Errorf("skipped = %d, want 1", got)
	}
	if calls != 1 {
		t.Errorf("calls after second run = %d, want 1", calls)
	}
}

func TestRunPlots_RerunAll(t *testing.T) {
	t.Parallel()
	results, out := t.TempDir(), t.TempDir()
	writeCSV(t, results, "people.csv", "id\n1\n")

	calls := 0
	reg := plotfunc.NewRegistry()
	mustRegister(t, reg, "plot_people", func(in peopleInputs) error {
		calls++
		return os.WriteFile(filepath.Join(in.OutputDir, "people.png"), nil, 0o644)
	})

	opts := batch.PlotOptions{ResultsDir: results, OutputDir: out}
	if _, err := batch.RunPlots(context.Background(), reg, opts); err != nil {
		t.Fatalf("first run: %v", err)
	}

	opts.RerunAll = true
	sum, err := batch.RunPlots(context.Background(), reg, opts)
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if got := sum.Count(batch.StatusSucceeded); got != 1 {
		t.Errorf("succeeded = %d, want 1", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRunPlots_UnresolvedInputsSkip(t *testing.T) {
	t.Parallel()
	results, out := t.TempDir(), t.TempDir()
	writeCSV(t, results, "people.csv", "id\n1\n")

	reg := plotfunc.NewRegistry()
	mustRegister(t, reg, "plot_revenue", func(in struct {
		Revenue   *tabular.Table `input:"revenue_table"`
		OutputDir string
	}) {
		t.Error("function with unresolved inputs was invoked")
	})

	sum, err := batch.RunPlots(context.Background(), reg, batch.PlotOptions{
		ResultsDir: results,
		OutputDir:  out,
	})
	if err != nil {
		t.Fatalf("RunPlots: %v", err)
	}
	if got := sum.Count(batch.StatusSkipped); got != 1 {
		t.Fatalf("skipped = %d, want 1", got)
	}
	o := sum.Outcomes[0]
	if o.Err == nil || !strings.Contains(o.Err.Error(), "revenue_table") {
		t.Fatalf("skip outcome err = %v, want the unresolved input named", o.Err)
	}
}

func TestRunPlots_PanicIsIsolated(t *testing.T) {
	t.Parallel()
	results, out := t.TempDir(), t.TempDir()
	writeCSV(t, results, "people.csv", "id\n1\n")

	reg := plotfunc.NewRegistry()
	mustRegister(t, reg, "plot_boom", func(in peopleInputs) {
		panic("bad slice math")
	})
	mustRegister(t, reg, "plot_people", func(in peopleInputs) error {
		return os.WriteFile(filepath.Join(in.OutputDir, "people.png"), nil, 0o644)
	})

	sum, err := batch.RunPlots(context.Background(), reg, batch.PlotOptions{
		ResultsDir: results,
		OutputDir:  out,
	})
	if err != nil {
		t.Fatalf("RunPlots: %v", err)
	}
	failed := sum.Failed()
	if len(failed) != 1 || failed[0].ID != "plot_boom" {
		t.Fatalf("failed = %+v, want exactly plot_boom", failed)
	}
	if got := sum.Count(batch.StatusSucceeded); got != 1 {
		t.Errorf("succeeded = %d, want 1", got)
	}
}

func TestRunPlots_ErrorReturnFails(t *testing.T) {
	t.Parallel()
	results, out := t.TempDir(), t.TempDir()
	writeCSV(t, results, "people.csv", "id\n1\n")

	wantErr := errors.New("render blew up")
	reg := plotfunc.NewRegistry()
	mustRegister(t, reg, "plot_people", func(in peopleInputs) error {
		return wantErr
	})

	sum, err := batch.RunPlots(context.Background(), reg, batch.PlotOptions{
		ResultsDir: results,
		OutputDir:  out,
	})
	if err != nil {
		t.Fatalf("RunPlots: %v", err)
	}
	failed := sum.Failed()
	if len(failed) != 1 || !errors.Is(failed[0].Err, wantErr) {
		t.Fatalf("failed = %+v, want wrapped %v", failed, wantErr)
	}
}

func TestRunPlots_NoDatasetsStillRuns(t *testing.T) {
	t.Parallel()
	results, out := t.TempDir(), t.TempDir()

	reg := plotfunc.NewRegistry()
	mustRegister(t, reg, "plot_static", func(in struct{ OutputDir string }) error {
		return os.WriteFile(filepath.Join(in.OutputDir, "static.png"), nil, 0o644)
	})

	sum, err := batch.RunPlots(context.Background(), reg, batch.PlotOptions{
		ResultsDir: results,
		OutputDir:  out,
	})
	if err != nil {
		t.Fatalf("RunPlots: %v", err)
	}
	if got := sum.Count(batch.StatusSucceeded); got != 1 {
		t.Errorf("succeeded = %d, want 1", got)
	}
}

func TestRunPlots_ArtifactExtensions(t *testing.T) {
	t.Parallel()
	results, out := t.TempDir(), t.TempDir()
	writeCSV(t, results, "people.csv", "id\n1\n")

	// An artifact with an unrecognized extension does not mark the
	// function as done.
	if err := os.WriteFile(filepath.Join(out, "people.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	calls := 0
	reg := plotfunc.NewRegistry()
	mustRegister(t, reg, "plot_people", func(in peopleInputs) {
		calls++
	})

	opts := batch.PlotOptions{ResultsDir: results, OutputDir: out}
	if _, err := batch.RunPlots(context.Background(), reg, opts); err != nil {
		t.Fatalf("RunPlots: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	// With SVG recognized and an SVG present, the function is skipped.
	if err := os.WriteFile(filepath.Join(out, "people.svg"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	opts.ArtifactExts = []string{".png", ".svg"}
	sum, err := batch.RunPlots(context.Background(), reg, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := sum.Count(batch.StatusSkipped); got != 1 {
		t.Errorf("skipped = %d, want 1", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRunPlots_PreflightErrors(t *testing.T) {
	t.Parallel()
	reg := plotfunc.NewRegistry()

	if _, err := batch.RunPlots(context.Background(), nil, batch.PlotOptions{ResultsDir: t.TempDir(), OutputDir: t.TempDir()}); err == nil {
		t.Error("nil registry accepted")
	}
	if _, err := batch.RunPlots(context.Background(), reg, batch.PlotOptions{ResultsDir: filepath.Join(t.TempDir(), "missing"), OutputDir: t.TempDir()}); err == nil {
		t.Error("missing results dir accepted")
	}
	if _, err := batch.RunPlots(context.Background(), reg, batch.PlotOptions{ResultsDir: t.TempDir(), OutputDir: ""}); err == nil {
		t.Error("blank output dir accepted")
	}
}
