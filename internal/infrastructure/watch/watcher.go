// Package watch re-scans spec coverage when the file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debouncer coalesces rapid events into a single callback invocation.
// Editors save via write-temp-and-rename, which fires several events per
// logical save.
type Debouncer struct {
	window   time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer(window time.Duration, callback func()) *Debouncer {
	return &Debouncer{window: window, callback: callback}
}

// Trigger resets the debounce timer. The callback fires after the window
// elapses with no further triggers.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.callback)
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}

// SpecWatcher watches a single spec file and invokes onChange after each
// debounced modification. The containing directory is watched rather than the
// file itself so atomic replace-on-write (rename over the file) is observed.
type SpecWatcher struct {
	specPath string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	logger   *slog.Logger
}

func NewSpecWatcher(specPath string, debounce time.Duration, onChange func(), logger *slog.Logger) (*SpecWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SpecWatcher{
		specPath: filepath.Clean(specPath),
		watcher:  w,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *SpecWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close() //nolint:errcheck // shutdown path

	if err := w.watcher.Add(filepath.Dir(w.specPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.specPath), err)
	}

	debouncer := NewDebouncer(w.debounce, func() {
		w.logger.Debug("spec changed", slog.String("path", w.specPath))
		if w.onChange != nil {
			w.onChange()
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
			if filepath.Clean(event.Name) != w.specPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debouncer.Trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}
