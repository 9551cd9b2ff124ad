package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDelay debounces bursts of filesystem events into a single reload.
const reloadDelay = 500 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	logger  zerolog.Logger
	path    string
	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timer   *time.Timer
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(path string, logger zerolog.Logger) *Watcher {
	return &Watcher{
		logger: logger.With().Str("component", "config-watcher").Logger(),
		path:   path,
	}
}

// Watch starts watching the config file and calls reloadFn with each
// successfully loaded new configuration. Invalid configs are logged and
// skipped. Watch returns immediately; watching stops when ctx is done.
func (w *Watcher) Watch(ctx context.Context, reloadFn func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.watcher = watcher

	// Watch the directory so editors that replace the file are caught.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.logger.Info().Str("path", w.path).Msg("Watching config for changes")

	go w.watchLoop(ctx, reloadFn)

	return nil
}

func (w *Watcher) watchLoop(ctx context.Context, reloadFn func(*Config)) {
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Config file changed")

			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(reloadDelay, func() {
				w.reload(reloadFn)
			})
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) reload(reloadFn func(*Config)) {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to reload config, keeping previous")
		return
	}

	w.logger.Info().Str("path", w.path).Msg("Config reloaded")
	reloadFn(cfg)
}

// Stop stops watching for file changes.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.watcher != nil {
		_ = w.watcher.Close()
		w.watcher = nil
	}
}
