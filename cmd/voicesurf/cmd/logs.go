package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voicesurf/voicesurf/internal/logging"
	"github.com/voicesurf/voicesurf/internal/ui"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	grep    string
	noColor bool
	file    string
}

func newLogsCmd(opts *rootOptions) *cobra.Command {
	lo := &logsOptions{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View host logs",
		Long: `Show the last lines of the host log, optionally following new entries
like 'tail -f'. JSON entries are printed as "time LEVEL message key=value".`,
		Example: `  voicesurf logs -n 100
  voicesurf logs -f --level warn
  voicesurf logs --grep 'tab_id=3'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if lo.file == "" {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				lo.file = cfg.Logging.File
			}
			return runLogs(cmd.Context(), cmd, lo)
		},
	}

	cmd.Flags().BoolVarP(&lo.follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lo.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&lo.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&lo.grep, "grep", "", "Only show lines matching this regular expression")
	cmd.Flags().BoolVar(&lo.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&lo.file, "file", "", "Log file (default: the configured log file)")

	return cmd
}

func runLogs(ctx context.Context, cmd *cobra.Command, lo *logsOptions) error {
	path, err := logging.FindLogFile(lo.file)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if lo.grep != "" {
		pattern, err = regexp.Compile(lo.grep)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   lo.level,
		Pattern: pattern,
		NoColor: lo.noColor || !ui.UseColor(out),
	}, out)

	entries, err := viewer.Tail(path, lo.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !lo.follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)
	go func() {
		errCh <- viewer.Follow(ctx, path, ch)
	}()

	for {
		select {
		case entry := <-ch:
			viewer.Print([]logging.LogEntry{entry})
		case err := <-errCh:
			return err
		}
	}
}
