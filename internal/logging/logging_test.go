package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".voicesurf", "logs"), DefaultLogDir())
	assert.Equal(t, filepath.Join(home, ".voicesurf", "logs", "host.log"), DefaultLogPath())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, DefaultLogPath(), cfg.FilePath)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 5, cfg.MaxFiles)
	assert.True(t, cfg.WriteToStderr)
	assert.Equal(t, "debug", DebugConfig().Level)
}

func TestSetup_WritesJSONToFileAndStderr(t *testing.T) {
	// Given: a log file and a captured stderr
	logPath := filepath.Join(t.TempDir(), "nested", "host.log")
	var stderr bytes.Buffer

	logger, cleanup, err := Setup(Config{
		Level:         "info",
		FilePath:      logPath,
		WriteToStderr: true,
		Stderr:        &stderr,
	})
	require.NoError(t, err)

	// When: entries below and at the level are logged
	logger.Debug("hidden")
	logger.Info("tab spawned", slog.Uint64("tab_id", 3))
	cleanup()

	// Then: both sinks carry the same JSON line and debug was filtered
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, string(data), stderr.String())

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "tab spawned", entry["msg"])
	assert.Equal(t, float64(3), entry["tab_id"])
}

func TestSetup_FileOnly(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "host.log")
	var stderr bytes.Buffer

	logger, cleanup, err := Setup(Config{FilePath: logPath, Stderr: &stderr})
	require.NoError(t, err)
	logger.Info("only in file")
	cleanup()

	assert.Empty(t, stderr.String())
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "only in file")
}

func TestSetup_UnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, _, err := Setup(Config{FilePath: filepath.Join(blocker, "host.log")})

	assert.Error(t, err)
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.input))
		})
	}
}

func TestFindLogFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	_, err := FindLogFile("")
	assert.Error(t, err)

	_, err = FindLogFile(filepath.Join(home, "missing.log"))
	assert.Error(t, err)

	require.NoError(t, os.MkdirAll(DefaultLogDir(), 0o755))
	require.NoError(t, os.WriteFile(DefaultLogPath(), nil, 0o644))
	path, err := FindLogFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLogPath(), path)
}

func TestRotatingWriter_Rotation(t *testing.T) {
	// Given: a writer whose size limit is tiny
	logPath := filepath.Join(t.TempDir(), "rotate.log")
	w, err := NewRotatingWriter(logPath, 0, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// When: four writes each exceed the limit
	for i := 1; i <= 4; i++ {
		_, err := fmt.Fprintf(w, "write %d\n", i)
		require.NoError(t, err)
	}

	// Then: the newest write is current and only maxFiles old files remain
	current, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "write 4\n", string(current))
	first, err := os.ReadFile(logPath + ".1")
	require.NoError(t, err)
	assert.Equal(t, "write 3\n", string(first))
	second, err := os.ReadFile(logPath + ".2")
	require.NoError(t, err)
	assert.Equal(t, "write 2\n", string(second))
	_, err = os.Stat(logPath + ".3")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "host.log")
	require.NoError(t, os.WriteFile(logPath, []byte("earlier\n"), 0o644))

	w, err := NewRotatingWriter(logPath, 1, 2)
	require.NoError(t, err)
	_, err = w.Write([]byte("later\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second close is a no-op")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "earlier\nlater\n", string(data))
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")
	w, err := NewRotatingWriter(logPath, 1, 2)
	require.NoError(t, err)
	w.SetImmediateSync(false)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				_, _ = fmt.Fprintf(w, "g%d-%d\n", g, i)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 400, strings.Count(string(data), "\n"))
}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "host.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestViewer_Tail(t *testing.T) {
	path := writeLog(t,
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"one"}`,
		`{"time":"2026-01-02T10:00:01Z","level":"DEBUG","msg":"two"}`,
		`not json`,
		`{"time":"2026-01-02T10:00:03Z","level":"ERROR","msg":"four","tab_id":3}`,
	)
	v := NewViewer(ViewerConfig{NoColor: true}, nil)

	entries, err := v.Tail(path, 3)

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "two", entries[0].Msg)
	assert.False(t, entries[1].IsValid)
	assert.Equal(t, "four", entries[2].Msg)
	assert.Equal(t, map[string]any{"tab_id": float64(3)}, entries[2].Attrs)
}

func TestViewer_Tail_Filters(t *testing.T) {
	path := writeLog(t,
		`{"level":"DEBUG","msg":"frame read"}`,
		`{"level":"WARN","msg":"dropping Talon query"}`,
		`{"level":"ERROR","msg":"Talon writer stopped"}`,
	)

	byLevel, err := NewViewer(ViewerConfig{Level: "warn"}, nil).Tail(path, 10)
	require.NoError(t, err)
	assert.Len(t, byLevel, 2)

	byPattern, err := NewViewer(ViewerConfig{Pattern: regexp.MustCompile("writer")}, nil).Tail(path, 10)
	require.NoError(t, err)
	require.Len(t, byPattern, 1)
	assert.Equal(t, "Talon writer stopped", byPattern[0].Msg)
}

func TestViewer_Tail_MissingFile(t *testing.T) {
	_, err := NewViewer(ViewerConfig{}, nil).Tail(filepath.Join(t.TempDir(), "nope"), 10)

	assert.Error(t, err)
}

func TestViewer_PrintFormatsEntries(t *testing.T) {
	var out bytes.Buffer
	v := NewViewer(ViewerConfig{NoColor: true}, &out)

	v.Print([]LogEntry{
		parseLine(`{"time":"2026-01-02T10:00:00.5Z","level":"INFO","msg":"spawned","tab_id":3,"docs":2}`),
		parseLine(`plain text`),
	})

	assert.Equal(t, "10:00:00.500 INFO  spawned docs=2 tab_id=3\nplain text\n", out.String())
}

func TestViewer_Follow(t *testing.T) {
	// Given: an existing log being followed
	path := writeLog(t, `{"level":"INFO","msg":"before"}`)
	v := NewViewer(ViewerConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	entries := make(chan LogEntry, 4)
	go func() { _ = v.Follow(ctx, path, entries) }()
	time.Sleep(150 * time.Millisecond)

	// When: a line is appended
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"level":"INFO","msg":"after"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Then: only the new line is delivered
	select {
	case entry := <-entries:
		assert.Equal(t, "after", entry.Msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no entry followed")
	}
}
