package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sshman/pkg/logging"
	"sshman/pkg/manager"
	"sshman/pkg/tui"
)

// app carries persistent flag values and lazily loaded settings for one
// invocation of the command tree.
type app struct {
	configPath string
	verbose    bool
	jsonLogs   bool
	noColor    bool

	settings     *manager.Settings
	settingsPath string
}

// sshExitStatus carries a finished ssh session's non-zero exit status out
// of `sshman connect` so main can exit with it unchanged.
type sshExitStatus int

func (s sshExitStatus) Error() string { return fmt.Sprintf("ssh exited with status %d", int(s)) }

func newRootCmd() *cobra.Command {
	a := &app{}
	var query string

	root := &cobra.Command{
		Use:   "sshman",
		Short: "Keep a list of SSH connections and launch them",
		Long: `sshman keeps a named list of SSH connections in
~/.config/sshman/connections.json and opens ssh to them.

Run without arguments for the interactive list. Entries can be imported
from ~/.ssh/config; the file itself is never modified.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Stdout = cmd.OutOrStdout()
			logging.Stderr = cmd.ErrOrStderr()
			logging.Setup(a.verbose, a.jsonLogs, cmd.ErrOrStderr())
			if a.noColor || os.Getenv("NO_COLOR") != "" {
				a.noColor = true
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			return a.loadSettings()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(query)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to settings YAML (default: $SSHMAN_CONFIG or ~/.config/sshman/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().BoolVar(&a.jsonLogs, "json", false, "Output logs in JSON format")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colour output")
	root.Flags().StringVarP(&query, "query", "q", "", "Initial search query for the interactive list")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newRmCmd(a),
		newImportCmd(a),
		newConnectCmd(a),
		newExportCmd(a),
		newStoreCmd(a),
		newPathCmd(a),
	)
	return root
}

func (a *app) loadSettings() error {
	if a.settings != nil {
		return nil
	}
	st, path, err := manager.LoadSettings(a.configPath)
	if err != nil {
		return err
	}
	a.settings, a.settingsPath = st, path
	logging.Debug("settings loaded", "path", path, "store", st.StorePath)
	return nil
}

// openStore loads the connection store named by the settings. A corrupt
// store is returned as an error with a recovery hint; it is never reset
// implicitly.
func (a *app) openStore() (*manager.Store, error) {
	s, err := manager.OpenStore(a.settings.StorePath)
	if err != nil {
		if errors.Is(err, manager.ErrCorruptStore) {
			return nil, fmt.Errorf("%w (run `sshman store reset` to move it aside and start empty)", err)
		}
		return nil, err
	}
	return s, nil
}

func (a *app) launcher() *manager.Launcher {
	return manager.NewLauncher(a.settings.SSHBinary)
}

func (a *app) runTUI(query string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interactive list needs a terminal; use `sshman list` or `sshman connect NAME`")
	}

	// The UI owns stdout/stderr; logs go to the log file.
	if f, err := logging.OpenFile(a.settings.LogFile); err == nil {
		defer f.Close()
		logging.Setup(a.verbose, a.jsonLogs, f)
	} else {
		logging.Setup(a.verbose, a.jsonLogs, io.Discard)
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	logging.Info("tui started", "store", store.Path(), "connections", store.Len())

	theme := tui.ThemeByName(a.settings.Theme)
	if a.noColor {
		theme = tui.NoTheme()
	}
	return tui.Run(store, tui.Options{
		Launcher:         a.launcher(),
		SSHConfigPath:    a.settings.SSHConfigPath,
		SortByName:       a.settings.SortByName(),
		ExitAfterConnect: a.settings.ExitAfterConnect,
		InitialQuery:     strings.TrimSpace(query),
		Theme:            theme,
	})
}
