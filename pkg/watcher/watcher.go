// Package watcher monitors the Claude data directories for transcript
// changes so watch mode can re-render the statusline as usage accrues.
//
// Events are debounced per path: rapid appends to the same transcript
// coalesce into one notification.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, dirs); err != nil {
//	    log.Fatal(err)
//	}
//	for range w.Events() {
//	    // re-render
//	}
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/avidel/ccstatusline/pkg/logger"
)

// Event is a debounced transcript change notification.
type Event struct {
	Path      string
	Timestamp time.Time
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval coalesces rapid changes to the same transcript.
	// Default: 250ms.
	DebounceInterval time.Duration
}

// Watcher monitors transcript directories.
type Watcher interface {
	// Start begins watching the given base directories and their
	// project subdirectories. Non-existent directories are skipped;
	// Start fails only when nothing can be watched.
	Start(ctx context.Context, dirs []string) error

	// Events returns the debounced change notifications. Closed when
	// the watcher closes.
	Events() <-chan Event

	// Close stops watching and releases resources.
	Close() error
}

// watcher implements Watcher over fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event

	mu     sync.Mutex
	closed bool
	timers map[string]*time.Timer
}

// New creates a transcript watcher.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 250 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &watcher{
		fsw:    fsw,
		logger: log,
		config: cfg,
		events: make(chan Event, 16),
		timers: make(map[string]*time.Timer),
	}, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, dirs []string) error {
	watched := 0
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			w.logger.Debug("watch directory missing, skipping", "path", dir)
			continue
		}
		if err := w.addRecursive(dir); err != nil {
			return err
		}
		watched++
	}

	if watched == 0 {
		return ErrNothingToWatch
	}

	go w.loop(ctx)
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = nil
	close(w.events)
	w.mu.Unlock()

	return w.fsw.Close()
}

// loop drains fsnotify until the context ends or the watcher closes.
func (w *watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// handle routes one fsnotify event: new project directories get added
// to the watch set, transcript changes get debounced.
func (w *watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Debug("failed to watch new directory",
					"path", event.Name,
					"error", err)
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".jsonl") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	w.debounce(event.Name)
}

// debounce schedules a notification for path, replacing any pending
// one.
func (w *watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}

	w.timers[path] = time.AfterFunc(w.config.DebounceInterval, func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if w.closed {
			return
		}
		delete(w.timers, path)

		select {
		case w.events <- Event{Path: path, Timestamp: time.Now()}:
		default:
			// A pending notification already forces a re-render.
		}
	})
}

// addRecursive watches dir and every subdirectory beneath it.
func (w *watcher) addRecursive(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() || path == dir {
			return nil
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Debug("failed to watch subdirectory",
				"path", path,
				"error", addErr)
		}
		return nil
	})
}
