package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher holds a live, atomically-swappable Config loaded from a YAML file
// and re-validated on every change.
type Watcher struct {
	path    string
	log     *slog.Logger
	current atomic.Pointer[Config]

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// NewWatcher loads path once and returns a Watcher holding the result.
func NewWatcher(path string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: path, log: log}
	w.current.Store(cfg)
	return w, nil
}

// Config returns the most recently loaded, validated configuration.
func (w *Watcher) Config() *Config {
	return w.current.Load()
}

// Watch starts watching the config file for changes, reloading and
// atomically swapping Config() on each one. A reload that fails validation
// is logged and discarded; the previously loaded Config remains live.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fsw

	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	go w.loop(ctx, fsw, file)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, file string) {
	defer fsw.Close()

	var debounce *time.Timer
	const delay = 100 * time.Millisecond

	reload := func() {
		cfg, err := LoadConfig(w.path)
		if err != nil {
			w.log.Error("config reload failed, keeping previous config", "path", w.path, "error", err)
			return
		}
		w.current.Store(cfg)
		w.log.Info("config reloaded", "path", w.path)
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(delay, reload)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("config watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
