package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher(t *testing.T) {
	t.Run("creates watcher for existing file", func(t *testing.T) {
		dir := t.TempDir()
		filePath := filepath.Join(dir, "prompt.txt")
		if err := os.WriteFile(filePath, []byte("hello"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}

		w, err := NewWatcher(filePath, DefaultConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer w.Close()

		if w.Path() != filePath {
			t.Errorf("expected path %q, got %q", filePath, w.Path())
		}
	})

	t.Run("rejects missing file", func(t *testing.T) {
		if _, err := NewWatcher("/non/existent/prompt.txt", DefaultConfig()); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestDefaultWatchConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DebounceDuration != 200*time.Millisecond {
		t.Errorf("expected DebounceDuration 200ms, got %v", cfg.DebounceDuration)
	}
	if cfg.BufferSize != 16 {
		t.Errorf("expected BufferSize 16, got %d", cfg.BufferSize)
	}
}

func TestWatcherDetectsWrite(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(filePath, []byte("v1"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	w, err := NewWatcher(filePath, Config{
		DebounceDuration: 50 * time.Millisecond,
		BufferSize:       10,
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filePath, []byte("v2"), 0644); err != nil {
		t.Fatalf("failed to modify file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case event := <-w.Events():
		if event.Path != filePath {
			t.Errorf("expected path %q, got %q", filePath, event.Path)
		}
		if event.Type != EventWrite && event.Type != EventCreate {
			t.Errorf("expected write or create event, got %q", event.Type)
		}
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(filePath, []byte("v1"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	w, err := NewWatcher(filePath, Config{
		DebounceDuration: 50 * time.Millisecond,
		BufferSize:       10,
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	// Write a sibling file in the same directory.
	sibling := filepath.Join(dir, "other.txt")
	if err := os.WriteFile(sibling, []byte("noise"), 0644); err != nil {
		t.Fatalf("failed to create sibling: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	select {
	case event := <-w.Events():
		t.Errorf("unexpected event for sibling file: %+v", event)
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-ctx.Done():
		// Expected - no event should be received
	}
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(filePath, []byte("v0"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	w, err := NewWatcher(filePath, Config{
		DebounceDuration: 100 * time.Millisecond,
		BufferSize:       10,
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filePath, []byte("v"+string(rune('0'+i))), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		time.Sleep(10 * time.Millisecond) // Rapid writes
	}

	eventCount := 0
	timeout := time.After(400 * time.Millisecond)
	for {
		select {
		case <-w.Events():
			eventCount++
		case err := <-w.Errors():
			t.Fatalf("unexpected error: %v", err)
		case <-timeout:
			// Allow 1-2 events due to timing variability
			if eventCount == 0 {
				t.Error("expected at least one event")
			}
			if eventCount > 2 {
				t.Errorf("expected 1-2 debounced events, got %d", eventCount)
			}
			return
		}
	}
}

func TestWatcherClose(t *testing.T) {
	t.Run("close stops watching", func(t *testing.T) {
		dir := t.TempDir()
		filePath := filepath.Join(dir, "prompt.txt")
		if err := os.WriteFile(filePath, []byte("v1"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}

		w, err := NewWatcher(filePath, DefaultConfig())
		if err != nil {
			t.Fatalf("failed to create watcher: %v", err)
		}

		if err := w.Start(); err != nil {
			t.Fatalf("failed to start watcher: %v", err)
		}

		if err := w.Close(); err != nil {
			t.Errorf("expected no error from Close, got %v", err)
		}
	})

	t.Run("close can be called multiple times", func(t *testing.T) {
		dir := t.TempDir()
		filePath := filepath.Join(dir, "prompt.txt")
		if err := os.WriteFile(filePath, []byte("v1"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}

		w, err := NewWatcher(filePath, DefaultConfig())
		if err != nil {
			t.Fatalf("failed to create watcher: %v", err)
		}

		_ = w.Close()
		_ = w.Close()
	})
}
