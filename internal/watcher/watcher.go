package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new entry appeared in the directory.
	OpCreate Operation = iota
	// OpModify indicates an existing file was written.
	OpModify
	// OpDelete indicates an entry was removed.
	OpDelete
	// OpRename indicates an entry was renamed away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a change to one entry of the watched directory.
type FileEvent struct {
	// Path is the absolute path of the entry.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Name returns the entry's base name.
func (e FileEvent) Name() string {
	return filepath.Base(e.Path)
}

// Watcher defines the interface for directory watching.
type Watcher interface {
	// Start watches the entries of dir (not its subdirectories) and blocks
	// until Stop is called or ctx is cancelled.
	Start(ctx context.Context, dir string) error

	// Stop stops the watcher and releases resources.
	// Safe to call multiple times.
	Stop() error

	// Events returns a channel of file events.
	// The channel is closed when the watcher stops.
	Events() <-chan FileEvent

	// Errors returns a channel of watcher errors.
	// Non-fatal errors are sent here; the watcher continues running.
	// The channel is closed when the watcher stops.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// PollInterval is the interval for polling mode (fallback).
	// Default: 1s
	PollInterval time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 256
	EventBufferSize int

	// ForcePolling skips fsnotify entirely.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		PollInterval:    time.Second,
		EventBufferSize: 256,
	}
}

// Validate validates the options and returns an error if invalid.
func (o Options) Validate() error {
	if o.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative, got %s", o.PollInterval)
	}
	if o.EventBufferSize < 0 {
		return fmt.Errorf("event buffer size must not be negative, got %d", o.EventBufferSize)
	}
	return nil
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
