package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"sshman/pkg/logging"
	"sshman/pkg/manager"
)

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Maintain the connection store file",
	}

	var force bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Move an unreadable store aside and start empty",
		Long: `Move the connection store to <file>.corrupt-<timestamp> and start with
an empty list. Without --force this only happens when the file cannot be
loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.settings.StorePath
			_, err := manager.OpenStore(path)
			switch {
			case err == nil && !force:
				logging.UserInfo("%s loads fine; nothing to do (use --force to reset anyway)", path)
				return nil
			case err != nil && !errors.Is(err, manager.ErrCorruptStore):
				return err
			}
			if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
				logging.UserInfo("%s does not exist; nothing to do", path)
				return nil
			}
			backup, err := manager.BackupCorrupt(path)
			if err != nil {
				return err
			}
			logging.Warn("store moved aside", "path", path, "backup", backup)
			logging.UserSuccess("Moved %s to %s; the store is now empty", path, backup)
			return nil
		},
	}
	reset.Flags().BoolVar(&force, "force", false, "Reset even if the store loads")

	cmd.AddCommand(reset)
	return cmd
}
