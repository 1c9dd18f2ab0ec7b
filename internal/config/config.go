// Package config loads the host configuration: built-in defaults, then the
// user's YAML file, then VOICESURF_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
)

// AppName names the host's directories under the XDG locations.
const AppName = "voicesurf"

// Config represents the complete host configuration.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime" json:"runtime"`
	Browser BrowserConfig `yaml:"browser" json:"browser"`
	Talon   TalonConfig   `yaml:"talon" json:"talon"`
	Router  RouterConfig  `yaml:"router" json:"router"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// RuntimeConfig locates the directory shared with Talon.
type RuntimeConfig struct {
	// Dir overrides the runtime directory. Empty resolves to
	// $XDG_RUNTIME_DIR/voicesurf, else ~/.run/voicesurf.
	Dir             string `yaml:"dir" json:"dir"`
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`
}

// BrowserConfig configures the native-messaging channel.
type BrowserConfig struct {
	MaxFrameBytes uint32 `yaml:"max_frame_bytes" json:"max_frame_bytes"`
	MaxResults    int    `yaml:"max_results" json:"max_results"`
}

// TalonConfig configures the file exchange with Talon.
type TalonConfig struct {
	// PublishMode is "rename" (atomic) or "copy".
	PublishMode string `yaml:"publish_mode" json:"publish_mode"`
	// PollInterval applies only when the output directory cannot be
	// watched with fsnotify.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// RouterConfig configures tab bookkeeping.
type RouterConfig struct {
	// ClosedTabMemory is how many closed tab ids are remembered so late
	// events for them are dropped. Zero disables it.
	ClosedTabMemory int `yaml:"closed_tab_memory" json:"closed_tab_memory"`
}

// LoggingConfig configures the log file and stderr output.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
	Stderr    bool   `yaml:"stderr" json:"stderr"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address, e.g. 127.0.0.1:9464. Empty disables it.
	Addr string `yaml:"addr" json:"addr"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			ProtocolVersion: "v0",
		},
		Browser: BrowserConfig{
			MaxFrameBytes: 64 << 20,
			MaxResults:    10,
		},
		Talon: TalonConfig{
			PublishMode:  "rename",
			PollInterval: time.Second,
		},
		Router: RouterConfig{
			ClosedTabMemory: 1024,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
			Stderr:    true,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/voicesurf/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/voicesurf/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", AppName, "config.yaml")
	}
	return filepath.Join(home, ".config", AppName, "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// DefaultRuntimeDir returns the directory shared with Talon when none is
// configured: $XDG_RUNTIME_DIR/voicesurf, falling back to ~/.run/voicesurf
// where the Talon side looks when XDG_RUNTIME_DIR is unset.
func DefaultRuntimeDir() string {
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".run", AppName)
}

// RuntimeDir returns the effective runtime directory.
func (c *Config) RuntimeDir() string {
	if c.Runtime.Dir != "" {
		return c.Runtime.Dir
	}
	return DefaultRuntimeDir()
}

// Load loads configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. The YAML file at path, or the user config if path is empty
//  3. Environment variables (VOICESURF_*)
//
// An explicit path must exist; a missing user config is fine.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = GetUserConfigPath()
		if !fileExists(path) {
			path = ""
		}
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadYAML decodes path over the current values. Keys absent from the
// file keep their defaults, so explicit zeros (closed_tab_memory: 0,
// stderr: false) are honored.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return herrors.New(herrors.ErrCodeConfigParse, "read config file", err).
			WithDetail("path", path)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return herrors.New(herrors.ErrCodeConfigParse, "parse config file", err).
			WithDetail("path", path).
			WithSuggestion("Run 'voicesurf config' to see the expected layout")
	}
	return nil
}

// applyEnvOverrides applies VOICESURF_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("VOICESURF_RUNTIME_DIR"); v != "" {
		c.Runtime.Dir = v
	}
	if v := os.Getenv("VOICESURF_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VOICESURF_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("VOICESURF_PUBLISH_MODE"); v != "" {
		c.Talon.PublishMode = v
	}
	if v := os.Getenv("VOICESURF_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("VOICESURF_CLOSED_TAB_MEMORY"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return envError("VOICESURF_CLOSED_TAB_MEMORY", v, err)
		}
		c.Router.ClosedTabMemory = n
	}
	if v := os.Getenv("VOICESURF_MAX_RESULTS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return envError("VOICESURF_MAX_RESULTS", v, err)
		}
		c.Browser.MaxResults = n
	}
	return nil
}

func envError(name, value string, err error) error {
	return herrors.New(herrors.ErrCodeConfigInvalid,
		fmt.Sprintf("%s=%q is not an integer", name, value), err)
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	v := c.Runtime.ProtocolVersion
	if v == "" || strings.ContainsAny(v, `/\`) || v == "." || v == ".." {
		return invalid("runtime.protocol_version must be a plain file name, got %q", v)
	}

	if c.Browser.MaxFrameBytes == 0 {
		return invalid("browser.max_frame_bytes must be positive")
	}
	if c.Browser.MaxResults <= 0 {
		return invalid("browser.max_results must be positive, got %d", c.Browser.MaxResults)
	}

	switch c.Talon.PublishMode {
	case "rename", "copy":
	default:
		return invalid("talon.publish_mode must be 'rename' or 'copy', got %q", c.Talon.PublishMode)
	}
	if c.Talon.PollInterval <= 0 {
		return invalid("talon.poll_interval must be positive, got %s", c.Talon.PollInterval)
	}

	if c.Router.ClosedTabMemory < 0 {
		return invalid("router.closed_tab_memory must be non-negative, got %d", c.Router.ClosedTabMemory)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB <= 0 {
		return invalid("logging.max_size_mb must be positive, got %d", c.Logging.MaxSizeMB)
	}
	if c.Logging.MaxFiles <= 0 {
		return invalid("logging.max_files must be positive, got %d", c.Logging.MaxFiles)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return herrors.ConfigError(fmt.Sprintf(format, args...), nil)
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<unprintable config: %v>", err)
	}
	return string(data)
}

// WriteYAML writes the configuration to a YAML file, creating its
// directory if needed.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return herrors.InternalError("marshal config", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return writeError("create config directory", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return writeError("write config file", path, err)
	}

	return nil
}

// WriteUserConfig writes c as the user config, backing up any existing
// file first. It returns the backup path, empty when there was nothing to
// back up.
func (c *Config) WriteUserConfig() (string, error) {
	backup, err := BackupUserConfig()
	if err != nil {
		return "", err
	}
	return backup, c.WriteYAML(GetUserConfigPath())
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
