package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsSettledWavFiles(t *testing.T) {
	dir := t.TempDir()
	found := make(chan string, 4)
	w := NewWatcher(dir, func(p string) { found <- p })
	w.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644)
	wav := filepath.Join(dir, "drop.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-found:
		if got != wav {
			t.Errorf("reported %q, want %q", got, wav)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the dropped file")
	}

	select {
	case extra := <-found:
		t.Errorf("unexpected report %q", extra)
	case <-time.After(200 * time.Millisecond):
	}
}
