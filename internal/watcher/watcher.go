// Package watcher reloads the pane manifest when it changes on disk.
// Rapid successive writes (editors often write a file several times per
// save) are debounced into a single reload.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panekit/panekit/internal/logging"
)

// DefaultDebounce groups editor write bursts into one reload.
const DefaultDebounce = 100 * time.Millisecond

// ReloadHandler is invoked with the manifest path after a debounced change.
type ReloadHandler func(ctx context.Context, path string) error

// ManifestWatcher watches one manifest file for changes.
type ManifestWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	handler  ReloadHandler
	logger   logging.Logger
}

// New creates a watcher for the manifest at path. The handler runs on the
// watcher goroutine; it must not block indefinitely.
func New(path string, handler ReloadHandler, logger logging.Logger) (*ManifestWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ManifestWatcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		watcher:  fsw,
		handler:  handler,
		logger:   logger.WithComponent("watcher"),
	}, nil
}

// SetDebounce overrides the debounce interval. Only effective before Start.
func (w *ManifestWatcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Start begins watching until ctx is cancelled. Watching the parent
// directory instead of the file itself survives the rename-and-replace
// dance most editors do on save.
func (w *ManifestWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.run(ctx)
	return nil
}

func (w *ManifestWatcher) run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug(ctx, "manifest event", "op", event.Op.String(), "path", event.Name)
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
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, err, "watch error")

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *ManifestWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}

func (w *ManifestWatcher) reload(ctx context.Context) {
	start := time.Now()
	if err := w.handler(ctx, w.path); err != nil {
		w.logger.Error(ctx, err, "manifest reload failed", "path", w.path)
		return
	}
	w.logger.Info(ctx, "manifest reloaded",
		"path", w.path,
		"duration_ms", time.Since(start).Milliseconds())
}
