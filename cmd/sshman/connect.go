package main

import (
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"sshman/pkg/logging"
)

func newConnectCmd(a *app) *cobra.Command {
	var (
		dryRun bool
		execIt bool
	)
	cmd := &cobra.Command{
		Use:     "connect <name>",
		Aliases: []string{"c", "ssh"},
		Short:   "Open ssh to a saved connection",
		Long: `Open ssh to a saved connection, attached to this terminal. sshman
exits with ssh's own exit status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			rec, err := store.Get(args[0])
			if err != nil {
				return err
			}
			l := a.launcher()
			log := logging.With("name", rec.Name)
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), shellquote.Join(l.Argv(rec)...))
				return nil
			}
			if execIt || a.settings.ExitAfterConnect {
				log.Info("replacing process with ssh")
				return l.Exec(rec)
			}

			l.Stdin = cmd.InOrStdin()
			l.Stdout = cmd.OutOrStdout()
			l.Stderr = cmd.ErrOrStderr()
			log.Info("launching ssh", "argv", shellquote.Join(l.Argv(rec)...))
			res, err := l.Launch(rec)
			if err != nil {
				return err
			}
			log.Info("ssh session ended", "exit_code", res.ExitCode)
			if res.ExitCode != 0 {
				return sshExitStatus(res.ExitCode)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the ssh command instead of running it")
	cmd.Flags().BoolVar(&execIt, "exec", false, "Replace sshman with ssh instead of waiting for it")
	return cmd
}
