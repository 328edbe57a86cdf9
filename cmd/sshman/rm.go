package main

import (
	"github.com/spf13/cobra"

	"sshman/pkg/logging"
)

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a saved connection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			logging.Info("connection deleted", "name", args[0])
			logging.UserSuccess("Deleted %s", args[0])
			return nil
		},
	}
}
