package plotfunc

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"plugin"
	"strings"
)

// PluginSymbol is the function every plot plugin must export:
//
//	func RegisterPlots(r *plotfunc.Registry)
//
// The plugin calls r.Register for each plot function it defines. Only
// functions registered through that call are discovered, so helpers a plugin
// imports from shared packages are never registered twice.
const PluginSymbol = "RegisterPlots"

// LoadDir discovers plot plugins (*.so) under root and registers their
// functions. Each file is loaded in isolation: a file that cannot be opened,
// lacks the RegisterPlots symbol, or registers a malformed function is logged
// and skipped while discovery continues with the remaining files. Only a
// failure to walk root itself is returned as an error.
func (r *Registry) LoadDir(root string, logger *slog.Logger) error {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".so") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("plotfunc: scan %s: %w", root, err)
	}

	for _, path := range files {
		regErrs, err := r.loadFile(path)
		if err != nil {
			logger.Error("plot plugin skipped", "file", path, "err", err)
			continue
		}
		for _, re := range regErrs {
			logger.Error("plot function rejected", "file", path, "err", re)
		}
		logger.Info("plot plugin loaded", "file", path)
	}
	return nil
}

func (r *Registry) loadFile(path string) ([]error, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	sym, err := p.Lookup(PluginSymbol)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", PluginSymbol, err)
	}
	register, ok := sym.(func(*Registry))
	if !ok {
		return nil, fmt.Errorf("%s has type %T, want func(*Registry)", PluginSymbol, sym)
	}

	r.loading, r.loadErrs = path, nil
	defer func() { r.loading, r.loadErrs = "", nil }()
	register(r)
	return r.loadErrs, nil
}
