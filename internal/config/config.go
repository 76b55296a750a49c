// Package config defines the serializable configuration model for batch
// runs. A config file describes the database engine, the query and plot
// directories, and the ambient logging/metrics setup; per-run switches like
// forced reruns stay on the command line.
//
// Files are decoded from JSON or YAML by extension. Field names in Go mirror
// the file structure:
//
//	{
//	  "job":     "retail",
//	  "engine":  { "kind": "sqlite", "dsn": "data/retail.db" },
//	  "queries": { "dir": "sql", "output_dir": "results" },
//	  "plots":   { "results_dir": "results", "output_dir": "plots" },
//	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://localhost:9091" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Batch is the top-level object decoded from a config file.
type Batch struct {
	// Job names the run for metrics labeling and log identification.
	Job string `json:"job" yaml:"job"`

	// Engine selects the database backend and its connection string.
	Engine Engine `json:"engine" yaml:"engine"`

	// Queries configures query mode. May be left zero when only plots run.
	Queries Queries `json:"queries" yaml:"queries"`

	// Plots configures function mode. May be left zero when only queries run.
	Plots Plots `json:"plots" yaml:"plots"`

	Logging Logging `json:"logging" yaml:"logging"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
}

// Engine identifies the database backend.
type Engine struct {
	// Kind selects the registered backend: "sqlite", "postgres", "mssql",
	// or "mysql".
	Kind string `json:"kind" yaml:"kind"`

	// DSN is the driver connection string. For sqlite this is the database
	// file path (or ":memory:").
	DSN string `json:"dsn" yaml:"dsn"`

	// Options is a free-form bag interpreted by the selected backend.
	Options Options `json:"options" yaml:"options"`
}

// Queries configures the query-mode directories.
type Queries struct {
	// Dir is the root of the query source tree.
	Dir string `json:"dir" yaml:"dir"`

	// OutputDir is the root of the mirrored CSV result tree.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// Plots configures the function-mode directories and artifact recognition.
type Plots struct {
	// ResultsDir is scanned for CSV datasets; usually queries.output_dir.
	ResultsDir string `json:"results_dir" yaml:"results_dir"`

	// FunctionsDir optionally holds plot plugins to discover.
	FunctionsDir string `json:"functions_dir" yaml:"functions_dir"`

	// OutputDir is the flat artifact directory.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MarkerPrefix overrides the "plot_" function-name prefix.
	MarkerPrefix string `json:"marker_prefix" yaml:"marker_prefix"`

	// ArtifactExts overrides the recognized artifact extensions ([".png"]).
	ArtifactExts []string `json:"artifact_exts" yaml:"artifact_exts"`
}

// Logging configures the timestamped run log.
type Logging struct {
	// Dir is where log files are written; empty means the current directory.
	Dir string `json:"dir" yaml:"dir"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "pushgateway", "datadog", or "none" (the default).
	Backend string `json:"backend" yaml:"backend"`

	// PushgatewayURL is required when Backend is "pushgateway".
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`

	// StatsdAddr is the dogstatsd address for the "datadog" backend;
	// empty means the client default.
	StatsdAddr string `json:"statsd_addr" yaml:"statsd_addr"`
}

// Load reads and decodes a config file. Files ending in .yaml or .yml decode
// as YAML, everything else as JSON.
func Load(path string) (*Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var b Batch
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	return &b, nil
}

// Options is a small helper to fetch typed values from arbitrary decoded
// maps. It performs only minimal type coercion and returns provided defaults
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// YAML numbers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// UnmarshalJSON decodes a missing or null options object to a non-nil, empty
// map so call sites need no nil checks.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML config files.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	var tmp map[string]any
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
