// Package sqlite wires the SQLite driver into the engine factory. SQLite is
// the default backend: the original deployments of this pipeline run queries
// against a single .db file produced by the schema loader.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// SQLite driver; pure Go, no cgo.
	_ "modernc.org/sqlite"

	"sqlbatch/internal/engine"
)

func init() {
	engine.Register("sqlite", open, engine.QuestionMark)
}

// open opens a SQLite database. DSN is passed through to the driver, e.g.
// "file:data.db?cache=shared" or a plain file path; ":memory:" works for
// tests.
func open(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := engine.PingDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	// Enable foreign keys by default; ignore error if driver doesn't support it.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")
	return db, nil
}
