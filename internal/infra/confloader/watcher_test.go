package confloader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherNotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokenward.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := NewWatcher(WithWatcherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	changed := make(chan string, 4)
	w.OnChange(func(p string) { changed <- p })

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	w.StartAsync()

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case got := <-changed:
		if filepath.Base(got) != "tokenward.yaml" {
			t.Errorf("changed file = %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no change notification")
	}
}

func TestWatcherStop(t *testing.T) {
	w, err := NewWatcher(WithWatcherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.StartAsync()

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
