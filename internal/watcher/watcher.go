package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"jukebox/internal/logging"
)

// DefaultDebounce is how long the tree must stay quiet before a
// change triggers the callback.
const DefaultDebounce = 2 * time.Second

// Watcher follows a set of roots and fires a callback after changes
// settle.
type Watcher struct {
	roots    []string
	debounce time.Duration
	onChange func()

	fsw *fsnotify.Watcher
}

// New builds a Watcher over the given roots. onChange runs on the
// watcher's goroutine after each settled burst of events.
func New(roots []string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	w := &Watcher{roots: roots, debounce: debounce, onChange: onChange, fsw: fsw}
	for _, root := range roots {
		if err := w.watchTree(root); err != nil {
			logging.Warn("cannot watch root", "root", root, "error", err)
		}
	}
	return w, nil
}

// watchTree registers root and every directory below it.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			logging.Debug("cannot watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Run blocks until ctx is cancelled, invoking the callback after each
// debounced change burst.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	logging.Info("watching for library changes", "roots", len(w.roots), "debounce", w.debounce)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			logging.Debug("filesystem event", "op", event.Op.String(), "path", event.Name)

			// New directories need their own watches.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchTree(event.Name); err != nil {
						logging.Debug("cannot watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watch error", "error", err)

		case <-fire:
			timer = nil
			fire = nil
			logging.Info("library changed, refreshing index")
			w.onChange()
		}
	}
}
