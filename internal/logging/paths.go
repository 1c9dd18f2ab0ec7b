package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.voicesurf/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".voicesurf", "logs")
	}
	return filepath.Join(home, ".voicesurf", "logs")
}

// DefaultLogPath returns the default host log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "host.log")
}

// FindLogFile returns explicit if it exists, else the default log path if
// that exists.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("no log file found; the host has not run yet.\nExpected at: %s", path)
}
