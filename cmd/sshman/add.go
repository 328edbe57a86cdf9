package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sshman/pkg/logging"
	"sshman/pkg/manager"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		port     string
		user     string
		identity string
	)
	cmd := &cobra.Command{
		Use:   "add <name> <host> [-- <extra ssh args...>]",
		Short: "Save a new connection",
		Example: `  sshman add web 10.0.0.1 -u deploy -p 2222
  sshman add edge edge.internal -- -J bastion -A`,
		Args: func(cmd *cobra.Command, args []string) error {
			if dash := cmd.ArgsLenAtDash(); dash >= 0 && dash != 2 {
				return fmt.Errorf("expected <name> <host> before --, got %d argument(s)", dash)
			}
			if cmd.ArgsLenAtDash() < 0 {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := manager.ParsePort(port)
			if err != nil {
				return &manager.InvalidRecordError{Cause: err}
			}
			rec := manager.Connection{
				Name:         args[0],
				Host:         args[1],
				Port:         p,
				User:         user,
				IdentityFile: identity,
				ExtraArgs:    args[2:],
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.Add(rec); err != nil {
				return err
			}
			logging.Info("connection added", "name", rec.Name, "store", store.Path())
			logging.UserSuccess("Added %s (%s)", rec.Name, rec.Normalize().DisplayTarget())
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Port (default 22)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "Remote user")
	cmd.Flags().StringVarP(&identity, "identity", "i", "", "Identity file passed to ssh -i")
	return cmd
}
