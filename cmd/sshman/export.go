package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sshman/pkg/logging"
	"sshman/pkg/manager"
)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export [name...]",
		Short: "Print saved connections as ssh_config Host blocks",
		Long: `Render saved connections as OpenSSH Host blocks. Output goes to stdout
unless --out is given; an existing --out file is kept as <file>.bak.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			records := store.List()
			if len(args) > 0 {
				records = records[:0]
				for _, n := range args {
					c, err := store.Get(n)
					if err != nil {
						return err
					}
					records = append(records, c)
				}
			}

			if strings.TrimSpace(out) == "" {
				fmt.Fprint(cmd.OutOrStdout(), strings.Join(manager.RenderSSHConfig(records), "\n"))
				return nil
			}
			if err := manager.WriteSSHConfigExport(out, records); err != nil {
				return err
			}
			logging.Info("exported connections", "path", out, "count", len(records))
			logging.UserSuccess("Wrote %d connection(s) to %s", len(records), manager.ExpandPath(out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}
