package main

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"sshman/pkg/manager"
)

func newListCmd(a *app) *cobra.Command {
	var (
		sortBy    string
		query     string
		namesOnly bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved connections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			records := store.List()
			switch strings.ToLower(strings.TrimSpace(sortBy)) {
			case "":
				if a.settings.SortByName() {
					manager.SortByName(records)
				}
			case manager.SortName:
				manager.SortByName(records)
			case manager.SortInsertion:
			default:
				return fmt.Errorf("invalid --sort %q (expected: insertion|name)", sortBy)
			}
			records = manager.Filter(query, records)

			out := cmd.OutOrStdout()
			if namesOnly {
				for _, c := range records {
					fmt.Fprintln(out, c.Name)
				}
				return nil
			}
			if len(records) == 0 {
				if store.Len() == 0 {
					fmt.Fprintln(out, "No connections. Add one with `sshman add` or run `sshman import`.")
				} else {
					fmt.Fprintln(out, "No matches.")
				}
				return nil
			}
			width := len("NAME")
			for _, c := range records {
				width = max(width, runewidth.StringWidth(c.Name))
			}
			fmt.Fprintf(out, "%s  %s\n", runewidth.FillRight("NAME", width), "TARGET")
			for _, c := range records {
				line := runewidth.FillRight(c.Name, width) + "  " + c.DisplayTarget()
				if c.IdentityFile != "" {
					line += "  [" + c.IdentityFile + "]"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "Display order: insertion|name (default from settings)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only show connections whose name or host contains this text")
	cmd.Flags().BoolVar(&namesOnly, "names", false, "Print names only, one per line")
	return cmd
}
