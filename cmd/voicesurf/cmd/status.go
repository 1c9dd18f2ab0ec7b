package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/voicesurf/voicesurf/internal/config"
	"github.com/voicesurf/voicesurf/internal/logging"
	"github.com/voicesurf/voicesurf/internal/rundir"
	"github.com/voicesurf/voicesurf/internal/talon"
	"github.com/voicesurf/voicesurf/internal/ui"
	"github.com/voicesurf/voicesurf/pkg/version"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a host is running and the Talon file locations",
		Long: `Display:
  - Whether a host holds the runtime directory's instance lock, and its pid
  - The runtime, config and log file locations
  - Whether each Talon exchange file exists, its size and age`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			info := collectStatus(cfg, opts.configPath)

			out := cmd.OutOrStdout()
			renderer := ui.NewStatusRenderer(out, !ui.UseColor(out))
			if jsonOutput {
				return renderer.RenderJSON(info)
			}
			return renderer.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func collectStatus(cfg *config.Config, configPath string) ui.StatusInfo {
	paths := talon.NewPaths(cfg.RuntimeDir(), cfg.Runtime.ProtocolVersion)
	instance := rundir.Inspect(paths.Root)

	if configPath == "" {
		configPath = config.GetUserConfigPath()
	}
	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = logging.DefaultLogPath()
	}

	return ui.StatusInfo{
		Version:     version.Version,
		RuntimeDir:  paths.Root,
		ConfigPath:  configPath,
		ConfigUsed:  statFile(configPath).Exists,
		LogPath:     logPath,
		HostLocked:  instance.Locked,
		HostPID:     instance.PID,
		HostRunning: instance.Running,
		Input:       statFile(paths.Input),
		Preinput:    statFile(paths.Preinput),
		Output:      statFile(paths.Output),
	}
}

func statFile(path string) ui.FileStatus {
	fs := ui.FileStatus{Path: path}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fs
	}
	fs.Exists = true
	fs.Size = info.Size()
	fs.Modified = info.ModTime()
	return fs
}
