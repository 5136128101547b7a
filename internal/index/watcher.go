package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher triggers index rebuilds when the archive database changes on
// disk. Events are debounced so a burst of writes produces one rebuild.
type Watcher struct {
	path     string
	debounce time.Duration
	rebuild  func(ctx context.Context) error

	fsw    *fsnotify.Watcher
	stopCh chan struct{}

	mu      sync.Mutex
	stopped bool
}

// NewWatcher creates a watcher over the archive file at path. rebuild is
// invoked after the debounce window closes; its errors are logged, not
// propagated, so a bad rebuild never kills the watch loop.
func NewWatcher(path string, debounce time.Duration, rebuild func(ctx context.Context) error) (*Watcher, error) {
	if rebuild == nil {
		return nil, fmt.Errorf("rebuild callback is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     path,
		debounce: debounce,
		rebuild:  rebuild,
		fsw:      fsw,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It blocks until ctx is cancelled or Stop is
// called. SQLite writers replace or append to the database file, so the
// parent directory is watched and events are filtered by name.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	slog.Info("archive_watch_started",
		slog.String("path", w.path),
		slog.Duration("debounce", w.debounce))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()

		case <-w.stopCh:
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("archive_changed", slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.rebuild(ctx); err != nil {
				slog.Warn("index rebuild after archive change failed",
					slog.String("error", err.Error()))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("archive watch error", slog.String("error", err.Error()))
		}
	}
}

// relevant reports whether the event concerns the archive database file.
// SQLite sidecar files (-wal, -journal) count: they signal writes too.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(w.path)
	got := filepath.Base(event.Name)
	return got == base || got == base+"-wal" || got == base+"-journal"
}

// Stop terminates the watch loop and releases the fsnotify watcher.
// Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	return w.fsw.Close()
}
