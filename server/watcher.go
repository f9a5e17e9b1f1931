package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
)

// DefaultDebounce is how long a module file must stay quiet after its last
// change before a reload fires. Editors and compilers tend to write in
// bursts; one settled burst is one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads modules when their local files change on disk. Parent
// directories are watched rather than the files themselves so rewrites
// that replace the file (rename-over) are still seen.
type Watcher struct {
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	reload   func(ctx context.Context, module string)
	targets  map[string]string // absolute file path -> module name
	debounce time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// WatchModules starts watching the server's local module files, reloading
// each module after its file settles. Remote and registry modules are
// skipped, as are local files that do not currently exist. Stop the
// returned watcher when done; it also stops when ctx is cancelled.
func (s *Server) WatchModules(ctx context.Context) (*Watcher, error) {
	targets := make(map[string]string)
	for _, desc := range s.descriptors {
		if desc.Source.Kind != entities.SourceLocal {
			continue
		}
		path, ok := s.manager.LocalPath(desc)
		if !ok {
			s.logger.Warn("module file not found, not watching",
				"module", desc.Name, "path", desc.Source.Path)
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			s.logger.Warn("module path not resolvable, not watching",
				"module", desc.Name, "path", path, "error", err)
			continue
		}
		targets[abs] = desc.Name
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no local module files to watch")
	}

	reload := func(ctx context.Context, module string) {
		if err := s.Reload(ctx, module); err != nil {
			s.logger.Error("module reload failed", "module", module, "error", err)
		}
	}
	return newWatcher(ctx, s.logger, targets, DefaultDebounce, reload)
}

func newWatcher(ctx context.Context, logger *slog.Logger, targets map[string]string, debounce time.Duration, reload func(context.Context, string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	dirs := make(map[string]bool)
	for path := range targets {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w := &Watcher{
		logger:   logger,
		watcher:  fsw,
		reload:   reload,
		targets:  targets,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.run(ctx)

	logger.Info("watching module files", "files", len(targets), "dirs", len(dirs))
	return w, nil
}

// run is the event loop. Raw events stamp their file in a pending map; a
// ticker pass reloads files whose last event is older than the debounce
// window. Chmod-only events are ignored.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			if _, watched := w.targets[path]; watched {
				pending[path] = time.Now()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		case now := <-ticker.C:
			for path, stamp := range pending {
				if now.Sub(stamp) < w.debounce {
					continue
				}
				delete(pending, path)
				module := w.targets[path]
				w.logger.Info("module file changed", "module", module, "path", path)
				w.reload(ctx, module)
			}
		}
	}
}

// Stop ends the watch loop and releases the underlying watcher. Stop must
// be called at most once.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}
