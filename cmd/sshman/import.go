package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sshman/pkg/logging"
	"sshman/pkg/manager"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		sshConfig string
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "import [name...]",
		Short: "Import Host entries from ~/.ssh/config",
		Long: `Import Host entries from an OpenSSH client config. Wildcard patterns
are skipped, Include directives are followed, and saved connections always
win over imported ones with the same name. The config file is only read.

With names, only those Host aliases are imported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := sshConfig
			if strings.TrimSpace(src) == "" {
				src = a.settings.SSHConfigPath
			}
			res, err := manager.LoadSSHConfig(src)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				logging.Warn("ssh config import warning", "source", w.Source, "line", w.Line, "block", w.Block, "message", w.Message)
				logging.UserWarning("%s", w.String())
			}

			candidates := res.Candidates
			if len(args) > 0 {
				candidates, err = pickCandidates(candidates, args)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				logging.UserInfo("No importable Host entries in %s", manager.ExpandPath(src))
				return nil
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			if dryRun {
				for _, c := range candidates {
					mark := "+"
					note := ""
					if _, err := store.Get(c.Name); err == nil {
						mark, note = "=", " (already saved, would skip)"
					}
					fmt.Fprintf(out, "  %s %s  %s%s\n", mark, c.Name, c.DisplayTarget(), note)
				}
				return nil
			}

			rep, err := store.Merge(candidates)
			if err != nil {
				return err
			}
			logging.Info("import merged", "source", src, "inserted", len(rep.Inserted), "skipped", len(rep.Skipped), "rejected", len(rep.Rejected))
			for _, n := range rep.Inserted {
				fmt.Fprintf(out, "  + %s\n", n)
			}
			for _, n := range rep.Skipped {
				fmt.Fprintf(out, "  = %s (already saved)\n", n)
			}
			for _, n := range rep.Rejected {
				logging.UserWarning("rejected invalid entry %q", n)
			}
			logging.UserSuccess("Imported %d, skipped %d", len(rep.Inserted), len(rep.Skipped))
			return nil
		},
	}
	cmd.Flags().StringVar(&sshConfig, "ssh-config", "", "OpenSSH config to read (default from settings, ~/.ssh/config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be imported without saving")
	return cmd
}

// pickCandidates keeps the named candidates, in the order given.
func pickCandidates(candidates []manager.Connection, names []string) ([]manager.Connection, error) {
	byName := make(map[string]manager.Connection, len(candidates))
	for _, c := range candidates {
		byName[c.Name] = c
	}
	out := make([]manager.Connection, 0, len(names))
	for _, n := range names {
		c, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("ssh config: %w", &manager.NotFoundError{Name: n})
		}
		out = append(out, c)
	}
	return out, nil
}
