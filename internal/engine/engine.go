// Package engine provides the SQL engine handle used by the batch pipeline.
// Concrete drivers live in subpackages (sqlite, postgres, mssql, mysql) and
// register themselves with the factory in init; callers select a backend by
// kind without importing driver packages directly.
//
// A batch opens exactly one connection, reuses it sequentially for every
// query item, and closes it when the batch ends.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"sqlbatch/pkg/tabular"
)

// Opener opens a database handle for a DSN. Implementations should fail fast
// on unreachable targets (ping with a short timeout) so pre-flight errors
// surface before any work item is touched.
type Opener func(ctx context.Context, dsn string) (*sql.DB, error)

// PlaceholderFunc renders the i-th (1-based) statement parameter for the
// backend's SQL dialect: "?" for sqlite/mysql, "$1" for postgres, "@p1" for
// mssql.
type PlaceholderFunc func(i int) string

type backend struct {
	open        Opener
	placeholder PlaceholderFunc
}

var (
	mu       sync.RWMutex
	backends = map[string]backend{}
)

// Register installs (or replaces) a backend for the given kind. It is called
// from driver subpackages' init functions.
func Register(kind string, open Opener, placeholder PlaceholderFunc) {
	mu.Lock()
	defer mu.Unlock()
	backends[kind] = backend{open: open, placeholder: placeholder}
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Conn is a single, sequentially reused engine connection.
type Conn struct {
	db          *sql.DB
	kind        string
	placeholder PlaceholderFunc
}

// Open creates a connection of the given kind. The caller owns the returned
// Conn and must Close it on every exit path.
func Open(ctx context.Context, kind, dsn string) (*Conn, error) {
	mu.RLock()
	b, ok := backends[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine: unknown kind %q (registered: %s)",
			kind, strings.Join(Kinds(), ", "))
	}
	db, err := b.open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Conn{db: db, kind: kind, placeholder: b.placeholder}, nil
}

// Kind returns the backend kind this connection was opened with.
func (c *Conn) Kind() string { return c.kind }

// Close releases the underlying database handle.
func (c *Conn) Close() error { return c.db.Close() }

// Query runs sqlText and materializes the full result set as a table. NULLs
// become empty strings; []byte columns are decoded as UTF-8 text; everything
// else is rendered with its driver value's default formatting.
func (c *Conn) Query(ctx context.Context, sqlText string) (*tabular.Table, error) {
	rows, err := c.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("engine: query: %w", err)
	}
	defer rows.Close()
	return scanTable(rows)
}

// Exec executes an arbitrary statement or script (typically DDL).
func (c *Conn) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := c.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("engine: exec: %w", err)
	}
	return nil
}

// TableColumns returns the column names of table without reading any rows.
func (c *Conn) TableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1=0", table))
	if err != nil {
		return nil, fmt.Errorf("engine: describe %s: %w", table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("engine: columns of %s: %w", table, err)
	}
	return cols, nil
}

// Insert appends rows into table inside a single transaction using a prepared
// statement with backend-appropriate placeholders. It returns the number of
// rows inserted. len(row) must equal len(columns) for every row.
func (c *Conn) Insert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("engine: insert: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = c.placeholder(i + 1)
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("engine: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("engine: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("engine: insert: row length %d != columns length %d",
				len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("engine: insert: %w", err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("engine: commit: %w", err)
	}
	return inserted, nil
}

// PingDB applies a short ping so invalid DSNs fail at open rather than on the
// first query. Shared by the driver subpackages.
func PingDB(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(pingCtx)
}

// QuestionMark is the PlaceholderFunc for dialects using "?".
func QuestionMark(int) string { return "?" }
