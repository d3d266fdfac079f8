package confloader

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher notifies registered callbacks when a watched configuration
// file changes.
type Watcher struct {
	fs     *fsnotify.Watcher
	logger *slog.Logger

	mu        sync.RWMutex
	callbacks []func(string)

	done chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the structured logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a file watcher.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:     fs,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch registers a file. The parent directory is watched so that
// editors replacing the file by rename are still observed.
func (w *Watcher) Watch(path string) error {
	dir := filepath.Dir(path)
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.logger.Debug("watching config directory", "dir", dir, "file", filepath.Base(path))
	return nil
}

// OnChange registers a callback invoked with the changed file's path.
func (w *Watcher) OnChange(callback func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start runs the event loop until Stop is called. Most callers want
// StartAsync.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.logger.Debug("config file changed", "file", event.Name, "op", event.Op.String())
				w.notify(event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// StartAsync runs the event loop in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop terminates the event loop and releases the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fs.Close()
}

func (w *Watcher) notify(path string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, cb := range w.callbacks {
		cb(path)
	}
}
