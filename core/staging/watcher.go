package staging

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"Tracksmith/logger"
)

// settleDelay is how long a file must go unmodified before it is handed on.
const settleDelay = 200 * time.Millisecond

// Watcher reports .wav files dropped into an inbox directory.
type Watcher struct {
	dir     string
	handler func(path string)
	settle  time.Duration
}

// NewWatcher creates a watcher for dir. handler is called from the watcher
// goroutine once per settled file.
func NewWatcher(dir string, handler func(path string)) *Watcher {
	return &Watcher{dir: dir, handler: handler, settle: settleDelay}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create inbox %s: %w", w.dir, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	logger.Info("watching inbox", logger.String("dir", w.dir))

	pending := make(map[string]time.Time)
	seen := make(map[string]bool)
	tick := time.NewTicker(w.settle / 4)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && Supported(event.Name) {
				pending[event.Name] = time.Now()
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(pending, event.Name)
				delete(seen, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("inbox watcher error", logger.ErrorField(err))

		case <-tick.C:
			now := time.Now()
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				if seen[path] {
					continue
				}
				if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
					continue
				}
				seen[path] = true
				w.handler(path)
			}
		}
	}
}
