package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"sqlbatch/internal/batch"
	"sqlbatch/internal/config"
	"sqlbatch/internal/logging"
	"sqlbatch/internal/metrics"
	"sqlbatch/internal/metrics/datadog"
	"sqlbatch/internal/metrics/prompush"
	"sqlbatch/internal/plotfunc"
)

// main is the entry point for the function-mode binary. It loads the batch
// config, discovers plot plugins, and invokes every selected plot function
// against the CSV results tree.
func main() {
	var (
		cfgPath      string
		resultsDir   string
		functionsDir string
		outputDir    string
		rerunAll     bool
		rerunList    string
		validate     bool
	)

	flag.StringVar(&cfgPath, "config", "configs/batch.json", "batch config path (JSON or YAML)")
	flag.StringVar(&resultsDir, "results-dir", "", "CSV results tree (overrides config)")
	flag.StringVar(&functionsDir, "functions-dir", "", "plot plugin directory (overrides config)")
	flag.StringVar(&outputDir, "output-dir", "", "artifact directory (overrides config)")
	flag.BoolVar(&rerunAll, "rerun-all", false, "run every plot function regardless of existing artifacts")
	flag.StringVar(&rerunList, "rerun", "", "comma-separated function names to force (e.g. plot_sales)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	metricsBackendFlg := flag.String("metrics-backend", "", "metrics backend (pushgateway, datadog, none; overrides config)")
	pushGatewayURLFlg := flag.String("pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if resultsDir != "" {
		cfg.Plots.ResultsDir = resultsDir
	}
	if functionsDir != "" {
		cfg.Plots.FunctionsDir = functionsDir
	}
	if outputDir != "" {
		cfg.Plots.OutputDir = outputDir
	}

	if !reportIssues(cfgPath, config.Validate(*cfg)) {
		os.Exit(1)
	}
	if validate {
		fmt.Printf("configuration is valid: %s\n", cfgPath)
		os.Exit(0)
	}

	logger, closeLog, err := logging.New(cfg.Logging.Dir, "plot_functions")
	if err != nil {
		fatalf("logging: %v", err)
	}
	defer closeLog()

	setupMetrics(cfg, *metricsBackendFlg, *pushGatewayURLFlg)
	defer func() {
		if err := metrics.Flush(); err != nil {
			logger.Error("metrics flush", "err", err)
		}
	}()

	if *verbose {
		logger.Info("batch starting",
			"results", cfg.Plots.ResultsDir,
			"functions", cfg.Plots.FunctionsDir,
			"output", cfg.Plots.OutputDir,
		)
	}

	start := time.Now()
	sum, err := batch.RunPlots(context.Background(), plotfunc.NewRegistry(), batch.PlotOptions{
		ResultsDir:   cfg.Plots.ResultsDir,
		FunctionsDir: cfg.Plots.FunctionsDir,
		OutputDir:    cfg.Plots.OutputDir,
		RerunAll:     rerunAll,
		Rerun:        splitList(rerunList),
		MarkerPrefix: cfg.Plots.MarkerPrefix,
		ArtifactExts: cfg.Plots.ArtifactExts,
		Job:          cfg.Job,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("batch aborted", "err", err)
		os.Exit(1)
	}

	logger.Info("done",
		"elapsed", time.Since(start).Truncate(time.Millisecond),
		"succeeded", sum.Count(batch.StatusSucceeded),
		"skipped", sum.Count(batch.StatusSkipped),
		"failed", sum.Count(batch.StatusFailed),
	)
	if len(sum.Failed()) > 0 {
		os.Exit(1)
	}
}

// reportIssues prints validation findings and reports whether execution may
// proceed (no error-severity issues).
func reportIssues(cfgPath string, issues []config.Issue) bool {
	ok := true
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			ok = false
		}
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "configuration is invalid: %s\n", cfgPath)
	}
	return ok
}

// setupMetrics installs the metrics backend. Resolution order for the backend
// name and its settings: flag, then config, then env, then default (none).
func setupMetrics(cfg *config.Batch, backendFlg, gwURLFlg string) {
	name := backendFlg
	if name == "" {
		name = cfg.Metrics.Backend
	}
	if name == "" {
		name = os.Getenv("METRICS_BACKEND")
	}

	switch name {
	case "pushgateway":
		gwURL := gwURLFlg
		if gwURL == "" {
			gwURL = cfg.Metrics.PushgatewayURL
		}
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		job := cfg.Job
		if job == "" {
			job = "sqlbatch"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "metrics: failed to init pushgateway backend: %v; using nop\n", err)
			return
		}
		metrics.SetBackend(b)

	case "datadog":
		addr := cfg.Metrics.StatsdAddr
		if addr == "" {
			addr = os.Getenv("DD_DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: addr, Namespace: "sqlbatch."})
		if err != nil {
			fmt.Fprintf(os.Stderr, "metrics: failed to init datadog backend: %v; using nop\n", err)
			return
		}
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		fmt.Fprintf(os.Stderr, "metrics: unknown backend %q; metrics disabled\n", name)
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
