package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	log       *zap.Logger
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		fsWatcher: fsw,
		path:      path,
		debounce:  debounce,
		log:       log,
	}, nil
}

// Run watches until ctx is done, calling onReload with each successfully
// loaded config. A file that fails to load is logged and skipped; the caller
// keeps whatever config it had.
func (w *Watcher) Run(ctx context.Context, onReload func(*Config)) error {
	defer w.fsWatcher.Close()

	// Watch the directory so editors that replace the file are seen
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := load(w.path)
			if err != nil {
				w.log.Warn("config reload failed, keeping previous config", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.log.Info("config reloaded", zap.String("path", w.path))
			onReload(cfg)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watcher error", zap.Error(err))

		case <-ctx.Done():
			return nil
		}
	}
}

// isRelevantEvent checks if the event touches the config file.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.path)
}
