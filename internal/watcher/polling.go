package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher watches for changes by periodically listing the directory.
// Used as a fallback when fsnotify is not available or fails.
type PollingWatcher struct {
	interval  time.Duration
	fileState map[string]fileSnapshot
	events    chan FileEvent
	errors    chan error
	ready     chan struct{}
	stopCh    chan struct{}
	mu        sync.RWMutex
	stopped   bool
	dir       string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a new polling watcher with the given interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval:  interval,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan FileEvent, 100),
		errors:    make(chan error, 10),
		ready:     make(chan struct{}),
		stopCh:    make(chan struct{}),
	}
}

// Start begins watching dir by polling. It returns an error if the
// initial listing fails.
func (p *PollingWatcher) Start(ctx context.Context, dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	p.dir = absPath

	// Initial scan to establish baseline
	current, err := p.list()
	if err != nil {
		return fmt.Errorf("perform initial scan: %w", err)
	}
	p.mu.Lock()
	p.fileState = current
	p.mu.Unlock()
	close(p.ready)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.detectChanges(); err != nil {
				// Non-fatal error, send to error channel
				p.mu.RLock()
				if !p.stopped {
					select {
					case p.errors <- err:
					default:
					}
				}
				p.mu.RUnlock()
			}
		}
	}
}

// Ready is closed once the baseline listing has been taken.
func (p *PollingWatcher) Ready() <-chan struct{} {
	return p.ready
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// list records the state of every entry directly under the directory.
func (p *PollingWatcher) list() (map[string]fileSnapshot, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, err
	}

	state := make(map[string]fileSnapshot, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // removed between listing and stat
		}
		state[entry.Name()] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return state, nil
}

// detectChanges compares current state with previous state and emits events.
func (p *PollingWatcher) detectChanges() error {
	current, err := p.list()
	if err != nil {
		return fmt.Errorf("list directory for changes: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for name, snapshot := range current {
		prev, exists := p.fileState[name]
		switch {
		case !exists:
			p.emitEvent(FileEvent{Path: filepath.Join(p.dir, name), Operation: OpCreate, Timestamp: now})
		case prev != snapshot:
			p.emitEvent(FileEvent{Path: filepath.Join(p.dir, name), Operation: OpModify, Timestamp: now})
		}
	}

	for name := range p.fileState {
		if _, exists := current[name]; !exists {
			p.emitEvent(FileEvent{Path: filepath.Join(p.dir, name), Operation: OpDelete, Timestamp: now})
		}
	}

	p.fileState = current
	return nil
}

// emitEvent sends an event to the events channel.
// Must be called with lock held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}

	select {
	case p.events <- event:
	default:
		slog.Warn("polling watcher buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()),
		)
	}
}
