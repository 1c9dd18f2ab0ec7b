// Package cmd provides the voicesurf CLI commands.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voicesurf/voicesurf/internal/config"
	"github.com/voicesurf/voicesurf/internal/host"
	"github.com/voicesurf/voicesurf/internal/logging"
	"github.com/voicesurf/voicesurf/internal/metrics"
	"github.com/voicesurf/voicesurf/pkg/version"
)

type rootOptions struct {
	debug      bool
	configPath string
}

// NewRootCmd creates the root command. Run without a subcommand it serves
// the browser on stdin/stdout.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "voicesurf [browser args...]",
		Short: "Native-messaging host linking browser tabs to Talon voice commands",
		Long: `voicesurf indexes the text of each browser tab and answers Talon
queries with the best-matching elements.

The browser starts it and talks to it over stdin/stdout. Talon talks to it
through files in the runtime directory (see 'voicesurf status').

Arguments and unknown flags passed by the browser are ignored.`,
		Version: version.Version,
		// Chrome passes the caller origin (and --parent-window on Windows),
		// Firefox the manifest path and extension id.
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		SilenceErrors:      true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHost(cmd.Context(), opts)
		},
	}
	cmd.SetVersionTemplate("voicesurf version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default: user config)")

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newLogsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads the configuration and installs a stderr logger for
// commands that are not the host.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.debug {
		cfg.Logging.Level = "debug"
	}
	logging.StderrOnly(cfg.Logging.Level)
	return cfg, nil
}

func runHost(ctx context.Context, opts *rootOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.File,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxFiles:      cfg.Logging.MaxFiles,
		WriteToStderr: cfg.Logging.Stderr,
	}
	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		// Still serve the browser; only the log file is lost.
		logging.StderrOnly(cfg.Logging.Level)
		slog.Warn("file logging unavailable", slog.String("error", err.Error()))
	} else {
		defer cleanup()
	}

	slog.Info("voicesurf starting",
		slog.String("version", version.Version),
		slog.Int("pid", os.Getpid()))

	h, err := host.New(host.Options{Config: cfg, Metrics: metrics.New()})
	if err != nil {
		return err
	}
	return h.Run(ctx)
}
