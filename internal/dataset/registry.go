// Package dataset loads every CSV result file under a root directory into an
// in-memory registry keyed by logical name. Plot functions declare the
// datasets they need by these keys, so the key of a file is its base name
// normalized to a plain snake_case identifier.
package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"sqlbatch/pkg/tabular"
)

// Registry maps logical dataset names to loaded tables. Lifetime is one
// batch; it is built once before function selection and never mutated after.
type Registry map[string]*tabular.Table

// Load recursively scans resultsRoot for *.csv files and parses each into a
// table keyed by the normalized file stem. On duplicate keys the file seen
// later in walk order wins. A parse failure on any file aborts the load; a
// root with zero CSV files yields an empty registry without error.
func Load(resultsRoot string) (Registry, error) {
	reg := Registry{}
	err := filepath.WalkDir(resultsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		t, err := tabular.ReadFile(path)
		if err != nil {
			return err
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		reg[Key(stem)] = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: load %s: %w", resultsRoot, err)
	}
	return reg, nil
}

// Keys returns the registered dataset names, unordered.
func (r Registry) Keys() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	return out
}
