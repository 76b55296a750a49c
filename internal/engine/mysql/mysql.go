// Package mysql wires the MySQL driver into the engine factory.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"sqlbatch/internal/engine"
)

func init() {
	engine.Register("mysql", open, engine.QuestionMark)
}

// open opens a MySQL connection. DSN is a go-sql-driver DSN, e.g.
// "user:pass@tcp(host:3306)/db?parseTime=true".
func open(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	if err := engine.PingDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return db, nil
}
