package main

import (
	"errors"
	"fmt"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"sshman/pkg/logging"
	"sshman/pkg/manager"
)

func newEditCmd(a *app) *cobra.Command {
	var (
		newName  string
		host     string
		port     string
		user     string
		identity string
		extra    string
	)
	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Change fields of a saved connection",
		Long: `Change fields of a saved connection. Only the flags you pass are
changed; pass an empty value to clear an optional field.`,
		Example: `  sshman edit web --port 2200
  sshman edit web --name web-prod
  sshman edit web --args "-J bastion -o 'ServerAliveInterval 30'"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			name := args[0]
			rec, err := store.Get(name)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if !f.Changed("name") && !f.Changed("host") && !f.Changed("port") &&
				!f.Changed("user") && !f.Changed("identity") && !f.Changed("args") {
				return errors.New("nothing to change; pass at least one of --name --host --port --user --identity --args")
			}
			if f.Changed("name") {
				rec.Name = newName
			}
			if f.Changed("host") {
				rec.Host = host
			}
			if f.Changed("port") {
				p, err := manager.ParsePort(port)
				if err != nil {
					return &manager.InvalidRecordError{Cause: err}
				}
				rec.Port = p
			}
			if f.Changed("user") {
				rec.User = user
			}
			if f.Changed("identity") {
				rec.IdentityFile = identity
			}
			if f.Changed("args") {
				parsed, err := shlex.Split(extra)
				if err != nil {
					return fmt.Errorf("--args: %w", err)
				}
				rec.ExtraArgs = parsed
			}

			if err := store.Update(name, rec); err != nil {
				return err
			}
			rec = rec.Normalize()
			logging.Info("connection updated", "name", name, "new_name", rec.Name)
			logging.UserSuccess("Updated %s (%s)", rec.Name, rec.DisplayTarget())
			return nil
		},
	}
	cmd.Flags().StringVar(&newName, "name", "", "Rename the connection")
	cmd.Flags().StringVar(&host, "host", "", "Hostname or address")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Port (empty resets to 22)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "Remote user")
	cmd.Flags().StringVarP(&identity, "identity", "i", "", "Identity file")
	cmd.Flags().StringVar(&extra, "args", "", "Extra ssh arguments, shell-quoted")
	return cmd
}
