package config

import (
	"strings"
	"testing"
)

func validBatch() Batch {
	return Batch{
		Job:     "retail",
		Engine:  Engine{Kind: "sqlite", DSN: "data/retail.db"},
		Queries: Queries{Dir: "sql", OutputDir: "results"},
		Plots:   Plots{ResultsDir: "results", OutputDir: "plots"},
		Metrics: Metrics{Backend: "none"},
	}
}

func findIssue(issues []Issue, path string) (Issue, bool) {
	for _, i := range issues {
		if i.Path == path {
			return i, true
		}
	}
	return Issue{}, false
}

func countSeverity(issues []Issue, sev IssueSeverity) int {
	n := 0
	for _, i := range issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

func TestValidate_CleanConfig(t *testing.T) {
	t.Parallel()
	issues := Validate(validBatch())
	if got := countSeverity(issues, SeverityError); got != 0 {
		t.Fatalf("errors = %d, issues = %+v", got, issues)
	}
}

func TestValidate_Engine(t *testing.T) {
	t.Parallel()

	b := validBatch()
	b.Engine.Kind = ""
	if _, ok := findIssue(Validate(b), "engine.kind"); !ok {
		t.Error("empty engine.kind not flagged")
	}

	b = validBatch()
	b.Engine.Kind = "oracle"
	iss, ok := findIssue(Validate(b), "engine.kind")
	if !ok || iss.Severity != SeverityWarning {
		t.Errorf("unknown engine kind: %+v, ok=%v", iss, ok)
	}

	b = validBatch()
	b.Engine.DSN = "  "
	iss, ok = findIssue(Validate(b), "engine.dsn")
	if !ok || iss.Severity != SeverityError {
		t.Errorf("blank dsn: %+v, ok=%v", iss, ok)
	}
}

func TestValidate_NothingToRun(t *testing.T) {
	t.Parallel()

	b := validBatch()
	b.Queries = Queries{}
	b.Plots = Plots{}
	iss, ok := findIssue(Validate(b), "queries")
	if !ok || iss.Severity != SeverityError {
		t.Fatalf("empty modes: %+v, ok=%v", iss, ok)
	}
}

func TestValidate_PartialSections(t *testing.T) {
	t.Parallel()

	b := validBatch()
	b.Queries.OutputDir = ""
	if _, ok := findIssue(Validate(b), "queries.output_dir"); !ok {
		t.Error("queries without output_dir not flagged")
	}

	b = validBatch()
	b.Plots.ResultsDir = ""
	if _, ok := findIssue(Validate(b), "plots.results_dir"); !ok {
		t.Error("plots without results_dir not flagged")
	}
}

func TestValidate_ArtifactExts(t *testing.T) {
	t.Parallel()

	b := validBatch()
	b.Plots.ArtifactExts = []string{".png", "svg"}
	iss, ok := findIssue(Validate(b), "plots.artifact_exts[1]")
	if !ok || iss.Severity != SeverityWarning {
		t.Fatalf("dotless extension: %+v, ok=%v", iss, ok)
	}
	if !strings.Contains(iss.Message, "svg") {
		t.Errorf("message = %q", iss.Message)
	}
}

func TestValidate_Metrics(t *testing.T) {
	t.Parallel()

	b := validBatch()
	b.Metrics = Metrics{Backend: "pushgateway"}
	iss, ok := findIssue(Validate(b), "metrics.pushgateway_url")
	if !ok || iss.Severity != SeverityError {
		t.Errorf("pushgateway without url: %+v, ok=%v", iss, ok)
	}

	b.Metrics = Metrics{Backend: "datadog"}
	iss, ok = findIssue(Validate(b), "metrics.statsd_addr")
	if !ok || iss.Severity != SeverityWarning {
		t.Errorf("datadog without addr: %+v, ok=%v", iss, ok)
	}

	b.Metrics = Metrics{Backend: "graphite"}
	iss, ok = findIssue(Validate(b), "metrics.backend")
	if !ok || iss.Severity != SeverityError {
		t.Errorf("unknown backend: %+v, ok=%v", iss, ok)
	}

	b.Metrics = Metrics{}
	if _, ok := findIssue(Validate(b), "metrics.backend"); ok {
		t.Error("empty backend flagged")
	}
}

func TestValidate_EmptyJobIsWarning(t *testing.T) {
	t.Parallel()

	b := validBatch()
	b.Job = ""
	iss, ok := findIssue(Validate(b), "job")
	if !ok || iss.Severity != SeverityWarning {
		t.Fatalf("empty job: %+v, ok=%v", iss, ok)
	}
}

func TestIssue_Error(t *testing.T) {
	t.Parallel()

	i := Issue{Severity: SeverityError, Path: "engine.dsn", Message: "must not be empty"}
	want := "error at engine.dsn: must not be empty"
	if got := i.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
