package engine

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"sqlbatch/pkg/tabular"
)

// scanTable drains rows into a Table, rendering every value as text suitable
// for CSV output.
func scanTable(rows *sql.Rows) (*tabular.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("engine: columns: %w", err)
	}

	t := &tabular.Table{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("engine: scan: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("engine: rows: %w", err)
	}
	return t, nil
}

// formatValue renders a driver value for CSV. NULL becomes the empty string;
// floats use the shortest representation that round-trips.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
