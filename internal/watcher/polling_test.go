package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPolling(t *testing.T, dir string) *PollingWatcher {
	t.Helper()
	w := NewPollingWatcher(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = w.Start(ctx, dir)
	}()

	select {
	case <-w.Ready():
	case <-time.After(time.Second):
		t.Fatal("polling watcher never took its baseline")
	}
	return w
}

func waitEvent(t *testing.T, events <-chan FileEvent, errs <-chan error, want Operation, name string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			require.True(t, ok, "events channel closed")
			if event.Operation == want && event.Name() == name {
				return
			}
		case err := <-errs:
			t.Fatalf("unexpected error: %v", err)
		case <-deadline:
			t.Fatalf("timeout waiting for %s %s", want, name)
		}
	}
}

func TestPollingWatcher_DetectsFileCreation(t *testing.T) {
	// Given: an empty directory being polled
	dir := t.TempDir()
	w := startPolling(t, dir)

	// When: a new file is created
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v0"), []byte("{}"), 0o644))

	// Then: a CREATE event is detected
	waitEvent(t, w.Events(), w.Errors(), OpCreate, "v0")
	require.NoError(t, w.Stop())
}

func TestPollingWatcher_DetectsFileModification(t *testing.T) {
	// Given: a directory with an existing file
	dir := t.TempDir()
	path := filepath.Join(dir, "v0")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	w := startPolling(t, dir)

	// When: the file grows
	require.NoError(t, os.WriteFile(path, []byte(`{"Query":{}}`), 0o644))

	// Then: a MODIFY event is detected
	waitEvent(t, w.Events(), w.Errors(), OpModify, "v0")
	require.NoError(t, w.Stop())
}

func TestPollingWatcher_DetectsFileDeletion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v0")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	w := startPolling(t, dir)

	require.NoError(t, os.Remove(path))

	waitEvent(t, w.Events(), w.Errors(), OpDelete, "v0")
	require.NoError(t, w.Stop())
}

func TestPollingWatcher_IgnoresSubdirectoryContents(t *testing.T) {
	// Given: a directory with a subdirectory
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	w := startPolling(t, dir)

	// When: a file appears inside the subdirectory
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)

	// Then: no event names the nested file
	for len(w.Events()) > 0 {
		event := <-w.Events()
		assert.NotEqual(t, "deep", event.Name())
	}
	require.NoError(t, w.Stop())
}

func TestPollingWatcher_Start_MissingDirectory(t *testing.T) {
	w := NewPollingWatcher(20 * time.Millisecond)

	err := w.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestPollingWatcher_Stop_ClosesChannels(t *testing.T) {
	w := startPolling(t, t.TempDir())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "second stop is a no-op")

	_, ok := <-w.Events()
	assert.False(t, ok, "events channel should be closed")
	_, ok = <-w.Errors()
	assert.False(t, ok, "errors channel should be closed")
}

func TestPollingWatcher_ContextCancellation(t *testing.T) {
	w := NewPollingWatcher(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, t.TempDir()) }()
	<-w.Ready()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for Start to return after context cancel")
	}
}
