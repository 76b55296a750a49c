// Package schema applies a DDL script to an engine connection and bulk-loads
// tabular data into one of the tables it declares. The script is executed
// as-is, so re-applying it must be harmless; write CREATE TABLE IF NOT EXISTS
// when the target database may already exist.
package schema

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sqlbatch/internal/engine"
	"sqlbatch/pkg/tabular"
)

// LoadSpec names the DDL script and the table the data lands in.
type LoadSpec struct {
	// SchemaPath is the SQL file holding the DDL.
	SchemaPath string

	// Table is the destination table; the script must declare it.
	Table string
}

// Load applies the schema script and appends the table's rows to the
// destination table. Every column of the incoming data must exist in the
// destination table; extra destination columns are fine and receive NULL.
// Returns the number of rows inserted.
func Load(ctx context.Context, conn *engine.Conn, spec LoadSpec, table *tabular.Table) (int64, error) {
	if conn == nil {
		return 0, fmt.Errorf("schema: engine connection is required")
	}
	if strings.TrimSpace(spec.Table) == "" {
		return 0, fmt.Errorf("schema: table name is required")
	}
	if table == nil || len(table.Columns) == 0 {
		return 0, fmt.Errorf("schema: no data to load")
	}

	raw, err := os.ReadFile(spec.SchemaPath)
	if err != nil {
		return 0, fmt.Errorf("schema: read %s: %w", spec.SchemaPath, err)
	}
	script := string(raw)
	if !declaresTable(script, spec.Table) {
		return 0, fmt.Errorf("schema: table %q is not defined in %s", spec.Table, spec.SchemaPath)
	}

	if err := conn.Exec(ctx, script); err != nil {
		return 0, fmt.Errorf("schema: apply %s: %w", spec.SchemaPath, err)
	}

	cols, err := conn.TableColumns(ctx, spec.Table)
	if err != nil {
		return 0, fmt.Errorf("schema: table %q missing after applying schema: %w", spec.Table, err)
	}
	if missing := missingColumns(table.Columns, cols); len(missing) > 0 {
		return 0, fmt.Errorf("schema: table %q is missing columns: %s", spec.Table, strings.Join(missing, ", "))
	}

	rows := make([][]any, len(table.Rows))
	for i, r := range table.Rows {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v
		}
		rows[i] = row
	}
	return conn.Insert(ctx, spec.Table, table.Columns, rows)
}

// declaresTable reports whether the script mentions a CREATE TABLE statement
// for the named table, with or without IF NOT EXISTS.
func declaresTable(script, name string) bool {
	return strings.Contains(script, "CREATE TABLE "+name) ||
		strings.Contains(script, "CREATE TABLE IF NOT EXISTS "+name)
}

// missingColumns returns the incoming columns absent from the destination
// table. SQL identifiers compare case-insensitively.
func missingColumns(want, have []string) []string {
	var missing []string
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(w, h) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, w)
		}
	}
	return missing
}
