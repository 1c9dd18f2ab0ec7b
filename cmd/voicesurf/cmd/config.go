package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicesurf/voicesurf/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var (
		write       bool
		listBackups bool
		restore     string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or save the effective configuration",
		Long: `Print the effective configuration as YAML.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config ($XDG_CONFIG_HOME/voicesurf/config.yaml, or --config)
  3. Environment variables (VOICESURF_*)

--write saves the effective configuration as the user config, keeping a
backup of the previous file.`,
		Example: `  # Show effective configuration
  voicesurf config

  # Save it, e.g. after exporting VOICESURF_PUBLISH_MODE=copy
  voicesurf config --write

  # Undo the last write
  voicesurf config --backups
  voicesurf config --restore ~/.config/voicesurf/config.yaml.bak.20260101-120000.000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			switch {
			case listBackups:
				backups, err := config.ListUserConfigBackups()
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					_, err = fmt.Fprintln(out, "No backups found.")
					return err
				}
				for _, b := range backups {
					if _, err := fmt.Fprintln(out, b); err != nil {
						return err
					}
				}
				return nil

			case restore != "":
				if err := config.RestoreUserConfig(restore); err != nil {
					return err
				}
				_, err := fmt.Fprintf(out, "Restored %s from %s\n", config.GetUserConfigPath(), restore)
				return err
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			if write {
				backup, err := cfg.WriteUserConfig()
				if err != nil {
					return err
				}
				if backup != "" {
					_, _ = fmt.Fprintf(out, "Backed up previous config to %s\n", backup)
				}
				_, err = fmt.Fprintf(out, "Wrote %s\n", config.GetUserConfigPath())
				return err
			}

			_, err = fmt.Fprint(out, cfg.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Save the effective configuration as the user config")
	cmd.Flags().BoolVar(&listBackups, "backups", false, "List user config backups, newest first")
	cmd.Flags().StringVar(&restore, "restore", "", "Restore the user config from a backup file")
	cmd.MarkFlagsMutuallyExclusive("write", "backups", "restore")

	return cmd
}
