package am

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nerica/cen/errors"
	"github.com/nerica/cen/logger"
)

const defaultDebouncePeriod = 500 * time.Millisecond

// ReloadCallback is invoked after a watched path settles following a
// write, with the path that changed.
type ReloadCallback func(path string) error

// Watcher watches a file or directory (a config file, or a models
// directory) and triggers debounced reload callbacks. Editors often
// produce bursts of write events; the debounce collapses each burst to
// one callback run.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher

	mu            sync.Mutex
	callbacks     []ReloadCallback
	debounceTimer *time.Timer
	done          chan struct{}
}

// NewWatcher creates a watcher for the given path and starts its event
// loop.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", path)
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// OnReload registers a callback to run after changes settle.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.scheduleReload(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("file watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) scheduleReload(changed string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(defaultDebouncePeriod, func() {
		w.mu.Lock()
		callbacks := make([]ReloadCallback, len(w.callbacks))
		copy(callbacks, w.callbacks)
		w.mu.Unlock()
		for _, cb := range callbacks {
			if err := cb(changed); err != nil {
				logger.Warnw("reload callback failed", "path", changed, "error", err)
			}
		}
	})
}
