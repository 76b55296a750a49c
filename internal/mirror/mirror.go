// Package mirror maps files under a source tree to paths under a destination
// tree, preserving the relative directory structure. The query runner uses it
// to place each query's CSV next to its siblings, under the same subdirectory
// the .sql file came from.
package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ensure computes the destination directory for relDir under destRoot and
// creates it (including intermediate directories). Repeated calls with the
// same arguments are no-ops beyond the first creation. A path component that
// exists as a regular file surfaces as an *os.PathError from MkdirAll.
func Ensure(destRoot, relDir string) (string, error) {
	dest := filepath.Join(destRoot, relDir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("mirror: create %s: %w", dest, err)
	}
	return dest, nil
}

// OutputPath maps a source file under srcRoot to its mirrored path under
// destRoot, substituting the file extension with ext (e.g. ".csv"). It does
// not touch the filesystem.
func OutputPath(srcRoot, destRoot, srcFile, ext string) (string, error) {
	rel, err := filepath.Rel(srcRoot, srcFile)
	if err != nil {
		return "", fmt.Errorf("mirror: %s not under %s: %w", srcFile, srcRoot, err)
	}
	stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	return filepath.Join(destRoot, filepath.Dir(rel), stem+ext), nil
}
