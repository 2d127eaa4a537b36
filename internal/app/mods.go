package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/modkernel/internal/kernel"
	"github.com/dshills/modkernel/internal/watch"
)

// loadFile loads or reloads the mod in path. Must run on the loop.
//
// A mod that is autoloaded stays autoloaded when its file is loaded again,
// whether the earlier copy came from this file or from the autoload store;
// otherwise mods.autoload_new decides. A file whose source matches the mod
// already loaded under its id is not run a second time.
func (app *Application) loadFile(ctx context.Context, path string) (*kernel.Mod, error) {
	path = modPath(path)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	prevID, known := app.files[path]
	if !known {
		for _, m := range app.kernel.Mods() {
			if m.Source == string(src) {
				app.files[path] = m.ID
				app.logger.Debug("mod file already loaded", "path", path, "id", m.ID)
				return m, nil
			}
		}
	}

	autoloaded := app.autoloadedMods(ctx)
	intent := app.cfg.Mods.AutoloadNew || (known && autoloaded[prevID])

	m, err := app.kernel.Load(ctx, string(src), intent)
	if m == nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	app.files[path] = m.ID

	// Replacing an autoloaded mod drops its entry; record the new source.
	if !intent && autoloaded[m.ID] {
		if aerr := app.kernel.SetAutoload(ctx, m.ID, true); aerr != nil {
			app.logger.Warn("keeping autoload", "id", m.ID, "err", aerr)
		}
	}

	// The file now declares a different id; drop the stale mod.
	if known && prevID != m.ID {
		if _, loaded := app.kernel.Find(prevID); loaded {
			if derr := app.kernel.Delete(ctx, prevID); derr != nil {
				app.logger.Warn("removing renamed mod", "id", prevID, "err", derr)
			}
		}
	}
	return m, err
}

// autoloadedMods returns the ids of loaded mods that are in the autoload set.
func (app *Application) autoloadedMods(ctx context.Context) map[string]bool {
	ids := make(map[string]bool)
	for _, m := range app.kernel.Mods() {
		ok, err := app.kernel.IsAutoloaded(ctx, m.ID)
		if err != nil {
			app.logger.Warn("reading autoload set", "id", m.ID, "err", err)
			continue
		}
		if ok {
			ids[m.ID] = true
		}
	}
	return ids
}

// modPath returns the absolute form of path, the form the watcher reports.
func modPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// handleFileEvent reacts to a change in the mods directory. Must run on
// the loop.
func (app *Application) handleFileEvent(ctx context.Context, ev watch.Event) error {
	switch ev.Op {
	case watch.OpChanged:
		m, err := app.loadFile(ctx, ev.Path)
		if m != nil {
			app.logger.Info("mod file reloaded", "path", ev.Path, "id", m.ID)
		}
		return err

	case watch.OpRemoved:
		path := modPath(ev.Path)
		id, ok := app.files[path]
		if !ok {
			return nil
		}
		delete(app.files, path)
		if _, loaded := app.kernel.Find(id); !loaded {
			return nil
		}
		app.logger.Info("mod file removed", "path", ev.Path, "id", id)
		return app.kernel.Delete(ctx, id)
	}
	return nil
}
