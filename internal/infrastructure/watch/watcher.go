// Package watch provides a debounced single-file watcher for live re-estimation.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event.
type EventType string

// Event types.
const (
	EventWrite  EventType = "write"
	EventCreate EventType = "create"
	EventRemove EventType = "remove"
)

// Event represents a change to the watched file.
type Event struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// Config holds configuration for the file watcher.
type Config struct {
	DebounceDuration time.Duration
	BufferSize       int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		DebounceDuration: 200 * time.Millisecond,
		BufferSize:       16,
	}
}

// Watcher monitors a single file for changes. The parent directory is
// watched rather than the file itself: editors that save via rename-and-
// replace would otherwise silently detach the watch.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    Config
	target    string
	events    chan Event
	errors    chan error

	// Debouncing state
	pending   *pendingEvent
	pendingMu sync.Mutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

// pendingEvent tracks the latest file event for debouncing.
type pendingEvent struct {
	eventType EventType
	timestamp time.Time
}

// NewWatcher creates a watcher for the given file.
func NewWatcher(path string, cfg Config) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = 200 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		target:    abs,
		events:    make(chan Event, cfg.BufferSize),
		errors:    make(chan error, cfg.BufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	return w, nil
}

// Start begins watching. Events arrive on Events() until Close.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if err := w.fsWatcher.Add(filepath.Dir(w.target)); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.processEvents()

	w.wg.Add(1)
	go w.debounceProcessor()

	return nil
}

// Events returns the channel for receiving watch events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.target
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)

	return err
}

// processEvents reads from fsnotify and queues events for debouncing.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			// Only the target file matters.
			abs, err := filepath.Abs(event.Name)
			if err != nil || abs != w.target {
				continue
			}

			eventType := convertEventType(event.Op)
			if eventType == "" {
				continue
			}

			w.pendingMu.Lock()
			w.pending = &pendingEvent{
				eventType: eventType,
				timestamp: time.Now(),
			}
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Drop error if channel is full
			}
		}
	}
}

// debounceProcessor periodically checks for a stable event and emits it.
func (w *Watcher) debounceProcessor() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.emitStableEvent()
		}
	}
}

// emitStableEvent emits the pending event once it has been stable long enough.
func (w *Watcher) emitStableEvent() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if w.pending == nil {
		return
	}
	if time.Since(w.pending.timestamp) < w.config.DebounceDuration {
		return
	}

	event := Event{
		Path:      w.target,
		Type:      w.pending.eventType,
		Timestamp: w.pending.timestamp,
	}
	w.pending = nil

	select {
	case w.events <- event:
	default:
		// Drop event if channel is full
	}
}

// convertEventType converts fsnotify event operation to EventType.
func convertEventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Write == fsnotify.Write:
		return EventWrite
	case op&fsnotify.Create == fsnotify.Create:
		return EventCreate
	case op&fsnotify.Remove == fsnotify.Remove:
		return EventRemove
	default:
		return ""
	}
}
