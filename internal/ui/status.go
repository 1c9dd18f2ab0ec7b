package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// FileStatus describes one Talon exchange file.
type FileStatus struct {
	Path     string    `json:"path"`
	Exists   bool      `json:"exists"`
	Size     int64     `json:"size,omitempty"`
	Modified time.Time `json:"modified,omitzero"`
}

// StatusInfo is what 'voicesurf status' reports.
type StatusInfo struct {
	Version    string `json:"version"`
	RuntimeDir string `json:"runtime_dir"`
	ConfigPath string `json:"config_path"`
	ConfigUsed bool   `json:"config_used"`
	LogPath    string `json:"log_path"`

	// Host holds the instance lock state.
	HostLocked  bool `json:"host_locked"`
	HostPID     int  `json:"host_pid,omitempty"`
	HostRunning bool `json:"host_running"`

	Input    FileStatus `json:"input"`
	Preinput FileStatus `json:"preinput"`
	Output   FileStatus `json:"output"`
}

// HostState summarizes the lock and pid file as running, stale or stopped.
// A pid file without a lock holder is stale.
func (s StatusInfo) HostState() string {
	switch {
	case s.HostLocked:
		return "running"
	case s.HostPID != 0:
		return "stale"
	default:
		return "stopped"
	}
}

// StatusRenderer displays host status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render writes status info for a terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	w := &errWriter{w: r.out}

	w.printf("%s\n\n", r.styles.Header.Render("voicesurf "+info.Version))

	host := r.renderState(info.HostState())
	if info.HostPID != 0 {
		host += fmt.Sprintf(" (pid %d)", info.HostPID)
	}
	w.printf("  %s %s\n", r.styles.Label.Render("Host:       "), host)
	w.printf("  %s %s\n", r.styles.Label.Render("Runtime dir:"), info.RuntimeDir)
	config := info.ConfigPath
	if !info.ConfigUsed {
		config += r.styles.Dim.Render(" (not present, using defaults)")
	}
	w.printf("  %s %s\n", r.styles.Label.Render("Config:     "), config)
	w.printf("  %s %s\n\n", r.styles.Label.Render("Log file:   "), info.LogPath)

	w.printf("  Talon files:\n")
	r.renderFile(w, "input   ", info.Input)
	r.renderFile(w, "preinput", info.Preinput)
	r.renderFile(w, "output  ", info.Output)

	return w.err
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) renderFile(w *errWriter, label string, f FileStatus) {
	if !f.Exists {
		w.printf("    %s %s %s\n", r.styles.Label.Render(label), f.Path, r.styles.Dim.Render("(missing)"))
		return
	}
	w.printf("    %s %s %s\n", r.styles.Label.Render(label), f.Path,
		r.styles.Dim.Render(fmt.Sprintf("(%s, %s)", FormatBytes(f.Size), formatTime(f.Modified))))
}

func (r *StatusRenderer) renderState(state string) string {
	switch state {
	case "running":
		return r.styles.Success.Render(state)
	case "stale":
		return r.styles.Warning.Render(state)
	default:
		return r.styles.Dim.Render(state)
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// formatTime formats a time relative to now.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
