package engine_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"sqlbatch/internal/engine"
	_ "sqlbatch/internal/engine/sqlite"
)

func newConn(tb testing.TB) *engine.Conn {
	tb.Helper()
	c, err := engine.Open(context.Background(), "sqlite", ":memory:")
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(func() { _ = c.Close() })
	return c
}

func mustExec(tb testing.TB, c *engine.Conn, sqlStmt string) {
	tb.Helper()
	if err := c.Exec(context.Background(), sqlStmt); err != nil {
		tb.Fatalf("exec %q: %v", sqlStmt, err)
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := engine.Open(context.Background(), "oracle", "dsn")
	if err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Fatalf("err = %v, want unknown kind error", err)
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := engine.Open(context.Background(), "sqlite", "  "); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestQuery_ScansTypes(t *testing.T) {
	t.Parallel()

	c := newConn(t)
	ctx := context.Background()
	mustExec(t, c, `CREATE TABLE t (id INTEGER, name TEXT, score REAL, note TEXT)`)
	mustExec(t, c, `INSERT INTO t VALUES (1, 'ana', 2.5, NULL)`)

	got, err := c.Query(ctx, `SELECT id, name, score, note FROM t`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !reflect.DeepEqual(got.Columns, []string{"id", "name", "score", "note"}) {
		t.Fatalf("columns = %v", got.Columns)
	}
	want := [][]string{{"1", "ana", "2.5", ""}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("rows = %#v, want %#v", got.Rows, want)
	}
}

func TestQuery_EmptyResult(t *testing.T) {
	t.Parallel()

	c := newConn(t)
	mustExec(t, c, `CREATE TABLE t (id INTEGER)`)

	got, err := c.Query(context.Background(), `SELECT * FROM t`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("expected empty result, got %d rows", len(got.Rows))
	}
}

func TestQuery_BadSQL(t *testing.T) {
	t.Parallel()

	c := newConn(t)
	if _, err := c.Query(context.Background(), `SELECT * FROM nope`); err == nil {
		t.Fatalf("expected error for missing table")
	}
}

func TestInsert_And_TableColumns(t *testing.T) {
	t.Parallel()

	c := newConn(t)
	ctx := context.Background()
	mustExec(t, c, `CREATE TABLE people (id INTEGER, name TEXT)`)

	n, err := c.Insert(ctx, "people", []string{"id", "name"}, [][]any{
		{int64(1), "ana"},
		{int64(2), "bob"},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	cols, err := c.TableColumns(ctx, "people")
	if err != nil {
		t.Fatalf("TableColumns: %v", err)
	}
	if !reflect.DeepEqual(cols, []string{"id", "name"}) {
		t.Fatalf("columns = %v", cols)
	}

	got, err := c.Query(ctx, `SELECT COUNT(*) AS n FROM people`)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if got.Rows[0][0] != "2" {
		t.Fatalf("count = %q, want 2", got.Rows[0][0])
	}
}

func TestInsert_RowWidthMismatch(t *testing.T) {
	t.Parallel()

	c := newConn(t)
	mustExec(t, c, `CREATE TABLE t (a INTEGER, b INTEGER)`)

	_, err := c.Insert(context.Background(), "t", []string{"a", "b"}, [][]any{{1}})
	if err == nil {
		t.Fatalf("expected row width error")
	}
}

func TestInsert_NoRows(t *testing.T) {
	t.Parallel()

	c := newConn(t)
	n, err := c.Insert(context.Background(), "t", []string{"a"}, nil)
	if err != nil || n != 0 {
		t.Fatalf("Insert(no rows) = (%d, %v), want (0, nil)", n, err)
	}
}
