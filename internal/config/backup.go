package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
)

const (
	// MaxBackups is how many user config backups are kept.
	MaxBackups = 3

	// BackupSuffix precedes the timestamp in backup file names:
	// config.yaml.bak.20260102-150405.000000.
	BackupSuffix = ".bak"

	backupStamp = "20060102-150405.000000"
)

// BackupUserConfig copies the user config next to itself under a
// timestamped name and prunes the oldest backups beyond MaxBackups. It
// returns the new backup's path, or "" when there is no user config.
func BackupUserConfig() (string, error) {
	return backupUserConfig("")
}

// backupUserConfig is BackupUserConfig with one backup exempt from pruning.
func backupUserConfig(keep string) (string, error) {
	if !UserConfigExists() {
		return "", nil
	}

	configPath := GetUserConfigPath()
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", herrors.New(herrors.ErrCodeConfigParse, "read user config for backup", err).
			WithDetail("path", configPath)
	}

	backupPath := configPath + BackupSuffix + "." + time.Now().Format(backupStamp)
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", writeError("write config backup", backupPath, err)
	}

	if err := pruneBackups(keep); err != nil {
		slog.Warn("prune config backups", slog.String("error", err.Error()))
	}
	return backupPath, nil
}

// ListUserConfigBackups returns the user config backups, newest first.
// Backup names embed a fixed-width timestamp, so name order is age order.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	dir := filepath.Dir(configPath)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, herrors.New(herrors.ErrCodeConfigParse, "list config directory", err).
			WithDetail("path", dir)
	}

	prefix := filepath.Base(configPath) + BackupSuffix + "."
	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(backups)
	slices.Reverse(backups)
	return backups, nil
}

// pruneBackups deletes backups beyond the newest MaxBackups, except keep.
func pruneBackups(keep string) error {
	backups, err := ListUserConfigBackups()
	if err != nil || len(backups) <= MaxBackups {
		return err
	}

	var errs []error
	for _, b := range backups[MaxBackups:] {
		if b == keep {
			continue
		}
		if err := os.Remove(b); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return herrors.New(herrors.ErrCodeConfigWrite, "remove old config backups", errors.Join(errs...))
	}
	return nil
}

// RestoreUserConfig replaces the user config with the contents of
// backupPath. The current config is backed up first; the backup being
// restored is read beforehand and never pruned.
func RestoreUserConfig(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return herrors.New(herrors.ErrCodeConfigParse, "read config backup", err).
			WithDetail("path", backupPath).
			WithSuggestion("Run 'voicesurf config --backups' to list available backups")
	}

	if _, err := backupUserConfig(backupPath); err != nil {
		return err
	}

	configPath := GetUserConfigPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return writeError("create config directory", filepath.Dir(configPath), err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return writeError("write restored config", configPath, err)
	}
	return nil
}

func writeError(step, path string, err error) error {
	return herrors.New(herrors.ErrCodeConfigWrite, step, err).WithDetail("path", path)
}
