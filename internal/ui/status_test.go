package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatus() StatusInfo {
	return StatusInfo{
		Version:    "1.0.0",
		RuntimeDir: "/run/user/1000/voicesurf",
		ConfigPath: "/home/me/.config/voicesurf/config.yaml",
		LogPath:    "/home/me/.voicesurf/logs/host.log",
		Input: FileStatus{
			Path:     "/run/user/1000/voicesurf/input/v0",
			Exists:   true,
			Size:     2048,
			Modified: time.Now(),
		},
		Preinput: FileStatus{Path: "/run/user/1000/voicesurf/preinput/v0"},
		Output:   FileStatus{Path: "/run/user/1000/voicesurf/output/v0"},
	}
}

func TestStatusInfo_HostState(t *testing.T) {
	tests := []struct {
		name   string
		locked bool
		pid    int
		want   string
	}{
		{"no host", false, 0, "stopped"},
		{"lock held", true, 42, "running"},
		{"leftover pid file", false, 42, "stale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := StatusInfo{HostLocked: tt.locked, HostPID: tt.pid}
			assert.Equal(t, tt.want, info.HostState())
		})
	}
}

func TestStatusRenderer_Render(t *testing.T) {
	// Given: a plain renderer and a host that is running
	buf := &bytes.Buffer{}
	info := sampleStatus()
	info.HostLocked, info.HostPID, info.HostRunning = true, 4242, true

	// When: rendering
	require.NoError(t, NewStatusRenderer(buf, true).Render(info))

	// Then: every location and the host state are shown
	out := buf.String()
	assert.Contains(t, out, "voicesurf 1.0.0")
	assert.Contains(t, out, "running (pid 4242)")
	assert.Contains(t, out, info.RuntimeDir)
	assert.Contains(t, out, "(not present, using defaults)")
	assert.Contains(t, out, "input/v0 (2.0 KB, just now)")
	assert.Contains(t, out, "output/v0 (missing)")
	assert.NotContains(t, out, "\x1b[", "plain output must not contain escape codes")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, NewStatusRenderer(buf, true).RenderJSON(sampleStatus()))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "/run/user/1000/voicesurf", parsed["runtime_dir"])
	assert.Equal(t, false, parsed["host_locked"])
	input := parsed["input"].(map[string]any)
	assert.Equal(t, true, input["exists"])
	output := parsed["output"].(map[string]any)
	assert.NotContains(t, output, "modified")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.bytes))
		})
	}
}
