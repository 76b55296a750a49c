// Package tabular defines the in-memory table value exchanged between the
// batch pipeline stages: query results on the way out, loaded CSV datasets on
// the way in. A Table is rows of strings with a named, ordered header; the
// on-disk form is plain CSV with a header row and no index column.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// Table holds tabular data with named, ordered columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows. A header-only result is
// considered empty; callers use this to decide whether an output file is
// worth writing.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Read parses CSV from r into a Table. The first record is the header; a
// UTF-8 BOM on the first header cell is stripped. Rows with a field count
// different from the header are an error (encoding/csv default).
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("tabular: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("tabular: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	t := &Table{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: read row: %w", err)
		}
		row := make([]string, len(rec))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadFile parses the CSV file at path into a Table.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tabular: open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("tabular: %s: %w", path, err)
	}
	return t, nil
}

// Write emits the table as CSV: header row first, then data rows.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("tabular: write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("tabular: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path as CSV, creating or truncating the file.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tabular: create %s: %w", path, err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("tabular: close %s: %w", path, err)
	}
	return nil
}
