package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"vanish/internal/loader/schema"
	"vanish/internal/logger"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk. The parent
// directory is watched so editors that replace the file are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	loader   Loader
	base     string
	debounce time.Duration
	log      logger.Logger
}

func NewWatcher(l Loader, log logger.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(l.Path())
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		watcher:  w,
		loader:   l,
		base:     filepath.Base(l.Path()),
		debounce: defaultDebounce,
		log:      logger.Component(log, "config-watcher"),
	}, nil
}

// Run blocks until ctx is cancelled, calling onReload with each config that
// loads cleanly. A broken edit is logged and the previous config stays live.
func (w *Watcher) Run(ctx context.Context, onReload func(schema.Config)) {
	defer func() { _ = w.watcher.Close() }()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fire = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", logger.F("error", err))
		case <-fire:
			fire = nil
			if err := w.loader.Load(); err != nil {
				w.log.Error("config reload failed, keeping previous config",
					logger.F("file", w.loader.Path()), logger.F("error", err))
				continue
			}
			w.log.Info("config reloaded", logger.F("file", w.loader.Path()))
			onReload(w.loader.Config())
		}
	}
}
