package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when NewDocumentWatcher is given a zero window.
const DefaultDebounce = 300 * time.Millisecond

// DocumentWatcher watches artifact directories and reports batches of changed
// document paths.
type DocumentWatcher struct {
	watcher  *fsnotify.Watcher
	filter   Filter
	debounce time.Duration
	onChange func(paths []string)
}

// NewDocumentWatcher creates a watcher. A nil filter accepts every file.
func NewDocumentWatcher(debounce time.Duration, filter Filter, onChange func(paths []string)) (*DocumentWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if filter == nil {
		filter = GlobFilter(nil, nil)
	}
	return &DocumentWatcher{
		watcher:  w,
		filter:   filter,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Watch adds root and every directory below it.
func (w *DocumentWatcher) Watch(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// Close releases the watcher without running it.
func (w *DocumentWatcher) Close() error {
	return w.watcher.Close()
}

// Run delivers change batches until ctx is cancelled.
func (w *DocumentWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debouncer := NewDebouncer(w.debounce, func(paths []string) {
		if w.onChange != nil {
			w.onChange(paths)
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event.Op) {
				continue
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.Watch(event.Name)
					continue
				}
			}
			if !w.filter(event.Name) {
				continue
			}
			debouncer.Add(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
