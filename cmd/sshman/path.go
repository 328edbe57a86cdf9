package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the files sshman reads and writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := a.settingsPath
			if settings == "" {
				settings = "(none, using defaults)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "settings:   %s\n", settings)
			fmt.Fprintf(out, "store:      %s\n", a.settings.StorePath)
			fmt.Fprintf(out, "ssh config: %s\n", a.settings.SSHConfigPath)
			fmt.Fprintf(out, "log file:   %s\n", a.settings.LogFile)
			return nil
		},
	}
}
