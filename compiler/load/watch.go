package load

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for after the last
// change before reloading.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads the schema directory whenever one of its schema files
// changes and calls fn with the fresh registry, or with the load error.
// Bursts of events within the debounce window trigger one reload. Watch
// blocks until ctx is done.
func Watch(ctx context.Context, dir string, debounce time.Duration, fn func(*Registry, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("load: create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("load: watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(nil, fmt.Errorf("load: watch %s: %w", dir, err))
		case <-timer.C:
			fn(LoadDir(dir))
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !IsSchemaFile(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
