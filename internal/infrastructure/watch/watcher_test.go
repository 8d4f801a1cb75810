package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	var calls int32
	d := NewDebouncer(30*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 coalesced callback, got %d", n)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var calls int32
	d := NewDebouncer(30*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})
	d.Trigger()
	d.Stop()
	time.Sleep(100 * time.Millisecond)

	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("expected no callback after stop, got %d", n)
	}
}

func TestSpecWatcher_FiresOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "spec.md")
	if err := os.WriteFile(specPath, []byte("# Feature\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 1)
	w, err := NewSpecWatcher(specPath, 20*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before mutating the file.
	time.Sleep(50 * time.Millisecond)

	// Save the way the repository does: temp file renamed over the spec.
	tmp := filepath.Join(dir, ".spec.md.tmp")
	if err := os.WriteFile(tmp, []byte("# Feature v2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, specPath); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("change callback never fired")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("unexpected run error: %v", err)
	}
}

func TestSpecWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "spec.md")
	if err := os.WriteFile(specPath, []byte("# Feature\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var calls int32
	w, err := NewSpecWatcher(specPath, 20*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx) //nolint:errcheck // cancelled at test end

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "plan.md"), []byte("notes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("sibling file change must not fire callback, got %d", n)
	}
}
