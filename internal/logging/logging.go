// Package logging builds the per-batch logger: a timestamped log file under a
// chosen directory plus a console sink, combined behind a single
// slog.Logger. The logger is created at batch entry, handed to components as
// an explicit parameter, and its file handle is released by the returned
// close function at batch exit — nothing stays attached across batches.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// timeLayout matches the historical log file naming of this pipeline, e.g.
// query_manager_2026_08_30-14_05_01.log.
const timeLayout = "2006_01_02-15_04_05"

// New creates a batch logger writing to both a fresh timestamped file under
// dir (created if absent, empty means the current directory) and stderr.
// prefix names the tool, e.g. "query_manager". The returned close function
// releases the file.
func New(dir, prefix string) (*slog.Logger, func(), error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: create %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s_%s.log", prefix, time.Now().Format(timeLayout))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, nil, fmt.Errorf("logging: create log file: %w", err)
	}

	h := slog.NewTextHandler(io.MultiWriter(f, os.Stderr), nil)
	closeFn := func() { _ = f.Close() }
	return slog.New(h), closeFn, nil
}

// Discard returns a logger that drops everything; used by tests that do not
// assert on log output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
