package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HybridWatcher implements the Watcher interface using fsnotify as the primary
// watching mechanism with polling as a fallback.
type HybridWatcher struct {
	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	useFsnotify bool
	events      chan FileEvent
	errors      chan error
	ready       chan struct{}
	readyOnce   sync.Once
	stopCh      chan struct{}
	dir         string
	opts        Options
	mu          sync.RWMutex
	stopped     bool
	dropped     atomic.Uint64
}

var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a new hybrid watcher with the given options.
// Attempts to use fsnotify first, falls back to polling if it fails.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		events: make(chan FileEvent, opts.EventBufferSize),
		errors: make(chan error, 10),
		ready:  make(chan struct{}),
		stopCh: make(chan struct{}),
		opts:   opts,
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			h.fsWatcher = fsw
			h.useFsnotify = true
			return h, nil
		}
		slog.Warn("fsnotify unavailable, polling instead", slog.String("error", err.Error()))
	}
	h.pollWatcher = NewPollingWatcher(opts.PollInterval)
	return h, nil
}

// Start begins watching dir and blocks until the watcher stops.
func (h *HybridWatcher) Start(ctx context.Context, dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat watched directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watched path %s is not a directory", absPath)
	}

	h.mu.Lock()
	h.dir = absPath
	if h.useFsnotify {
		if err := h.fsWatcher.Add(absPath); err != nil {
			// inotify watch limits and some network mounts end up here
			slog.Warn("fsnotify watch failed, polling instead",
				slog.String("dir", absPath),
				slog.String("error", err.Error()))
			_ = h.fsWatcher.Close()
			h.useFsnotify = false
			h.pollWatcher = NewPollingWatcher(h.opts.PollInterval)
		}
	}
	useFsnotify := h.useFsnotify
	h.mu.Unlock()

	if useFsnotify {
		return h.startFsnotify(ctx)
	}
	return h.startPolling(ctx)
}

// startFsnotify runs the fsnotify event loop.
func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	h.markReady()
	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

// startPolling runs the polling watcher and forwards its events.
func (h *HybridWatcher) startPolling(ctx context.Context) error {
	pw := h.pollWatcher
	go func() {
		select {
		case <-pw.Ready():
			h.markReady()
		case <-h.stopCh:
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case event, ok := <-pw.Events():
				if !ok {
					return
				}
				h.emitEvent(event)
			case err, ok := <-pw.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	err := pw.Start(ctx, h.dir)
	if ctx.Err() != nil {
		_ = h.Stop()
	}
	return err
}

// handleFsnotifyEvent converts an fsnotify event. Attribute changes count as
// writes: a consumer re-reading on any change must see them too.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	case event.Op&fsnotify.Chmod != 0:
		op = OpModify
	default:
		return
	}

	h.emitEvent(FileEvent{
		Path:      event.Name,
		Operation: op,
		Timestamp: time.Now(),
	})
}

func (h *HybridWatcher) markReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}

// emitEvent sends an event to the output channel. The read lock is held
// across the send so Stop cannot close the channel underneath it.
func (h *HybridWatcher) emitEvent(event FileEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}

	select {
	case h.events <- event:
	default:
		count := h.dropped.Add(1)
		slog.Warn("event buffer full, dropping event",
			slog.String("path", event.Path),
			slog.Uint64("total_dropped_events", count),
		)
	}
}

// DroppedEvents returns the number of events dropped due to buffer overflow.
func (h *HybridWatcher) DroppedEvents() uint64 {
	return h.dropped.Load()
}

// emitError sends an error to the error channel.
func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}

	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}

	h.stopped = true
	close(h.stopCh)

	if h.useFsnotify && h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.events)
	close(h.errors)
	return nil
}

// Ready is closed once the directory is being watched. Changes made before
// that may not be reported.
func (h *HybridWatcher) Ready() <-chan struct{} {
	return h.ready
}

// Events returns the channel of file events.
func (h *HybridWatcher) Events() <-chan FileEvent {
	return h.events
}

// Errors returns the channel of errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// WatcherType returns the type of watcher being used ("fsnotify" or "polling").
func (h *HybridWatcher) WatcherType() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// Dir returns the directory being watched.
func (h *HybridWatcher) Dir() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dir
}
