package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sqlbatch/internal/engine"
	"sqlbatch/internal/logging"
	"sqlbatch/internal/schema"
	"sqlbatch/pkg/tabular"

	// register all engine backends with the factory.
	_ "sqlbatch/internal/engine/all"
)

// main is the entry point for the database loader. It applies a DDL script to
// the target database and appends the rows of a CSV file to one of its
// tables; handy for seeding the database the query batch later reads.
func main() {
	var (
		engineKind string
		dsn        string
		schemaPath string
		table      string
		csvPath    string
		logDir     string
	)

	flag.StringVar(&engineKind, "engine", "sqlite", "database engine kind (sqlite, postgres, mssql, mysql)")
	flag.StringVar(&dsn, "dsn", "", "driver connection string; for sqlite, the database file path")
	flag.StringVar(&schemaPath, "schema", "", "SQL file holding the DDL")
	flag.StringVar(&table, "table", "", "destination table name")
	flag.StringVar(&csvPath, "csv", "", "CSV file to load")
	flag.StringVar(&logDir, "log-dir", "", "log file directory (default current directory)")

	flag.Parse()

	if dsn == "" || schemaPath == "" || table == "" || csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: loaddb -dsn <dsn> -schema <file.sql> -table <name> -csv <file.csv>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger, closeLog, err := logging.New(logDir, "create_db")
	if err != nil {
		fatalf("logging: %v", err)
	}
	defer closeLog()

	data, err := tabular.ReadFile(csvPath)
	if err != nil {
		fatalf("read csv: %v", err)
	}
	logger.Info("csv loaded", "file", csvPath, "columns", len(data.Columns), "rows", len(data.Rows))

	ctx := context.Background()
	conn, err := engine.Open(ctx, engineKind, dsn)
	if err != nil {
		fatalf("engine: %v", err)
	}
	defer conn.Close()

	n, err := schema.Load(ctx, conn, schema.LoadSpec{SchemaPath: schemaPath, Table: table}, data)
	if err != nil {
		logger.Error("load failed", "err", err)
		os.Exit(1)
	}
	logger.Info("load complete", "table", table, "rows", n)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
