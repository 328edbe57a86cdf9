// Package tui is the interactive front end of sshman. It holds a
// *manager.Store by reference, renders the connection list, and hands the
// terminal to ssh when the user connects.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kballard/go-shellquote"

	"sshman/pkg/logging"
	"sshman/pkg/manager"
)

// Options configures Run.
type Options struct {
	// Launcher starts ssh. Nil means manager.NewLauncher("").
	Launcher *manager.Launcher

	// SSHConfigPath is read by the import screen. Empty means ~/.ssh/config.
	SSHConfigPath string

	SortByName bool

	// ExitAfterConnect quits the UI and replaces the process with ssh
	// instead of returning to the list when the session ends.
	ExitAfterConnect bool

	InitialQuery string
	Theme        Theme
}

type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
	modeConfirmDelete
	modeImport
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusError
)

// sessionEndedMsg is delivered when an ssh session started from the list
// returns control to the UI.
type sessionEndedMsg struct {
	name     string
	exitCode int
	err      error
}

type model struct {
	store    *manager.Store
	launcher *manager.Launcher
	opts     Options
	theme    Theme
	keys     keyMap
	impKeys  importKeyMap
	help     help.Model

	search textinput.Model
	mode   mode

	// records is the display-ordered snapshot; filtered indexes into it.
	records  []manager.Connection
	filtered []int
	selected int
	// selectedName keeps the cursor on the same record across re-filtering.
	selectedName string
	sortByName   bool

	form          connForm
	imp           importScreen
	pendingDelete string

	status      string
	statusKind  statusKind
	statusUntil time.Time

	width    int
	height   int
	ready    bool
	quitting bool

	// execTarget is set when the UI quits to replace itself with ssh.
	execTarget *manager.Connection
}

// Run starts the TUI and blocks until the user quits.
func Run(store *manager.Store, opts Options) error {
	if store == nil {
		return errors.New("tui: nil store")
	}
	m := newModel(store, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if fm, ok := final.(model); ok && fm.execTarget != nil {
		logging.Info("replacing process with ssh", "name", fm.execTarget.Name)
		return m.launcher.Exec(*fm.execTarget)
	}
	return nil
}

func newModel(store *manager.Store, opts Options) model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search name or host..."
	ti.CharLimit = 256
	ti.PromptStyle = ti.PromptStyle.Bold(true)
	ti.SetValue(strings.TrimSpace(opts.InitialQuery))

	l := opts.Launcher
	if l == nil {
		l = manager.NewLauncher("")
	}

	m := model{
		store:      store,
		launcher:   l,
		opts:       opts,
		theme:      opts.Theme,
		keys:       defaultKeyMap(),
		impKeys:    defaultImportKeyMap(),
		help:       help.New(),
		search:     ti,
		sortByName: opts.SortByName,
	}
	m.help.Styles.ShortKey = m.theme.Help
	m.help.Styles.FullKey = m.theme.Help
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case sessionEndedMsg:
		switch {
		case msg.err != nil:
			logging.Error("ssh launch failed", "name", msg.name, "error", msg.err)
			m.setStatus(statusError, msg.err.Error())
		case msg.exitCode != 0:
			logging.Info("ssh session ended", "name", msg.name, "exit_code", msg.exitCode)
			m.setStatus(statusError, fmt.Sprintf("ssh %s exited with status %d", msg.name, msg.exitCode))
		default:
			logging.Info("ssh session ended", "name", msg.name, "exit_code", 0)
			m.setStatus(statusInfo, "disconnected from "+msg.name)
		}
		return m, nil

	case importLoadedMsg:
		m.imp.loaded(msg, m.store.List())
		if msg.err != nil {
			logging.Error("ssh config import failed", "source", m.imp.source, "error", msg.err)
		}
		for _, w := range m.imp.warnings {
			logging.Warn("ssh config import warning", "source", w.Source, "line", w.Line, "block", w.Block, "message", w.Message)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeImport:
			return m.updateImport(msg)
		default:
			return m.updateList(msg)
		}
	}

	if m.mode == modeSearch {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case msg.String() == "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.recomputeFilter()
		}
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Top):
		m.move(-len(m.filtered))
	case key.Matches(msg, m.keys.Bottom):
		m.move(len(m.filtered))
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Connect):
		if c := m.current(); c != nil {
			return m.connect(*c)
		}
	case key.Matches(msg, m.keys.Add):
		m.form = newConnForm()
		m.mode = modeForm
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Edit):
		if c := m.current(); c != nil {
			m.form = editConnForm(*c)
			m.mode = modeForm
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.Delete):
		if c := m.current(); c != nil {
			m.pendingDelete = c.Name
			m.mode = modeConfirmDelete
		}
	case key.Matches(msg, m.keys.Import):
		src := m.opts.SSHConfigPath
		if strings.TrimSpace(src) == "" {
			if p, err := manager.DefaultSSHConfigPath(); err == nil {
				src = p
			}
		}
		m.imp = newImportScreen(src)
		m.mode = modeImport
		return m, loadImportCmd(src)
	case key.Matches(msg, m.keys.Sort):
		m.sortByName = !m.sortByName
		m.refresh()
		if m.sortByName {
			m.setStatus(statusInfo, "sorted by name")
		} else {
			m.setStatus(statusInfo, "insertion order")
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.search.Blur()
		m.mode = modeList
		m.recomputeFilter()
		return m, nil
	case "enter":
		m.search.Blur()
		m.mode = modeList
		return m, nil
	case "up", "ctrl+p":
		m.move(-1)
		return m, nil
	case "down", "ctrl+n":
		m.move(1)
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.recomputeFilter()
	return m, cmd
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f, cmd, act := m.form.update(msg)
	m.form = f
	switch act {
	case formCancel:
		m.mode = modeList
		return m, nil
	case formSubmit:
		rec, err := m.form.record()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		if m.form.editing() {
			err = m.store.Update(m.form.original, rec)
		} else {
			err = m.store.Add(rec)
		}
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		name := strings.TrimSpace(rec.Name)
		if m.form.editing() {
			logging.Info("connection updated", "name", m.form.original, "new_name", name)
			m.setStatus(statusSuccess, "saved "+name)
		} else {
			logging.Info("connection added", "name", name)
			m.setStatus(statusSuccess, "added "+name)
		}
		m.mode = modeList
		m.selectedName = name
		m.refresh()
		return m, nil
	}
	return m, cmd
}

func (m model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		name := m.pendingDelete
		m.pendingDelete = ""
		m.mode = modeList
		if err := m.store.Delete(name); err != nil {
			m.setStatus(statusError, err.Error())
			return m, nil
		}
		logging.Info("connection deleted", "name", name)
		m.setStatus(statusSuccess, "deleted "+name)
		m.refresh()
	case "n", "N", "esc", "q":
		m.pendingDelete = ""
		m.mode = modeList
	}
	return m, nil
}

func (m model) updateImport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.impKeys.Cancel):
		m.mode = modeList
	case m.imp.loading || m.imp.err != nil:
	case key.Matches(msg, m.impKeys.Up):
		m.imp.move(-1)
	case key.Matches(msg, m.impKeys.Down):
		m.imp.move(1)
	case key.Matches(msg, m.impKeys.Toggle):
		m.imp.toggle()
	case key.Matches(msg, m.impKeys.SelectAll):
		m.imp.toggleAll()
	case key.Matches(msg, m.impKeys.Merge):
		sel := m.imp.selection()
		rep, err := m.store.Merge(sel)
		if err != nil {
			logging.Error("import merge failed", "error", err)
			m.setStatus(statusError, "import failed: "+err.Error())
			return m, nil
		}
		logging.Info("import merged", "inserted", len(rep.Inserted), "skipped", len(rep.Skipped), "rejected", len(rep.Rejected))
		m.setStatus(statusSuccess, mergeSummary(rep))
		m.mode = modeList
		m.refresh()
	}
	return m, nil
}

func (m model) connect(c manager.Connection) (tea.Model, tea.Cmd) {
	if m.opts.ExitAfterConnect {
		if _, err := m.launcher.Resolve(); err != nil {
			logging.Error("ssh launch failed", "name", c.Name, "error", err)
			m.setStatus(statusError, err.Error())
			return m, nil
		}
		m.execTarget = &c
		m.quitting = true
		return m, tea.Quit
	}
	sess, err := m.launcher.Session(c)
	if err != nil {
		logging.Error("ssh launch failed", "name", c.Name, "error", err)
		m.setStatus(statusError, err.Error())
		return m, nil
	}
	logging.Info("launching ssh", "name", c.Name, "argv", shellquote.Join(sess.Argv()...))
	name, program := c.Name, sess.Program
	return m, tea.Exec(sess, func(err error) tea.Msg {
		code, lerr := manager.Outcome(program, err)
		return sessionEndedMsg{name: name, exitCode: code, err: lerr}
	})
}

// refresh re-reads the store and re-applies the current query.
func (m *model) refresh() {
	if m.sortByName {
		m.records = m.store.Sorted()
	} else {
		m.records = m.store.List()
	}
	m.recomputeFilter()
}

func (m *model) recomputeFilter() {
	m.filtered = manager.FilterIndices(m.search.Value(), m.records)
	m.selected = 0
	if m.selectedName != "" {
		for i, idx := range m.filtered {
			if m.records[idx].Name == m.selectedName {
				m.selected = i
				break
			}
		}
	}
	m.syncSelectedName()
}

func (m *model) current() *manager.Connection {
	if len(m.filtered) == 0 || m.selected < 0 || m.selected >= len(m.filtered) {
		return nil
	}
	return &m.records[m.filtered[m.selected]]
}

func (m *model) move(delta int) {
	if len(m.filtered) == 0 {
		return
	}
	m.selected = clamp(m.selected+delta, 0, len(m.filtered)-1)
	m.syncSelectedName()
}

func (m *model) syncSelectedName() {
	if c := m.current(); c != nil {
		m.selectedName = c.Name
	}
}

func (m *model) setStatus(kind statusKind, s string) {
	m.status = s
	m.statusKind = kind
	m.statusUntil = time.Now().Add(4 * time.Second)
}

func mergeSummary(rep manager.MergeReport) string {
	s := fmt.Sprintf("imported %d, skipped %d existing", len(rep.Inserted), len(rep.Skipped))
	if n := len(rep.Rejected); n > 0 {
		s += fmt.Sprintf(", rejected %d invalid", n)
	}
	return s
}
