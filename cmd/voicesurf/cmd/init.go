package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicesurf/voicesurf/internal/talon"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the runtime directories shared with Talon",
		Long: `Create the runtime directory and its input, preinput and output
subdirectories, then print the file paths Talon should use.

The host does this itself on startup; init is useful to set up the Talon
side before the browser has launched the host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			paths := talon.NewPaths(cfg.RuntimeDir(), cfg.Runtime.ProtocolVersion)
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Runtime directory: %s\n", paths.Root)
			_, _ = fmt.Fprintf(out, "  vocabulary (host writes): %s\n", paths.Input)
			_, _ = fmt.Fprintf(out, "  staging:                  %s\n", paths.Preinput)
			_, err = fmt.Fprintf(out, "  queries (Talon writes):   %s\n", paths.Output)
			return err
		},
	}
}
