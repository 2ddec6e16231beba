// Package filewatcher provides file system monitoring adapters.
package filewatcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 250 * time.Millisecond

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
// It watches a single file through its parent directory, so atomic
// replace-by-rename saves are still observed.
type FSNotifyWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewFSNotifyWatcher creates a new file watcher. A debounce of zero emits every event.
func NewFSNotifyWatcher(debounce time.Duration) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce < 0 {
		debounce = DefaultDebounce
	}

	return &FSNotifyWatcher{
		watcher:  w,
		debounce: debounce,
	}, nil
}

// Watch starts monitoring path and emits events for it only.
// Within one debounce window only the last event is emitted.
func (w *FSNotifyWatcher) Watch(ctx context.Context, path string) (<-chan ports.FileEvent, error) {
	path = filepath.Clean(path)
	if err := w.watcher.Add(filepath.Dir(path)); err != nil {
		return nil, err
	}
	name := filepath.Base(path)

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)

		var (
			pending ports.FileEvent
			timer   *time.Timer
			fire    <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		emit := func(ev ports.FileEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				op, ok := toOperation(event.Op)
				if !ok {
					continue
				}

				pending = ports.FileEvent{Path: path, Operation: op}
				if w.debounce == 0 {
					if !emit(pending) {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if !emit(pending) {
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("File watcher error", "path", path, "error", err)
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func toOperation(op fsnotify.Op) (ports.FileOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case op.Has(fsnotify.Write):
		return ports.FileModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ports.FileDeleted, true
	default:
		return 0, false
	}
}
