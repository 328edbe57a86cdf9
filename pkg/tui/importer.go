package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"sshman/pkg/manager"
)

type importLoadedMsg struct {
	res *manager.ImportResult
	err error
}

func loadImportCmd(path string) tea.Cmd {
	return func() tea.Msg {
		res, err := manager.LoadSSHConfig(path)
		return importLoadedMsg{res: res, err: err}
	}
}

// importScreen lists import candidates with checkboxes. Candidates whose
// name already exists are shown but start unchecked; the merge would skip
// them anyway.
type importScreen struct {
	source     string
	loading    bool
	err        error
	candidates []manager.Connection
	exists     map[string]bool
	checked    map[int]bool
	cursor     int
	warnings   []manager.ImportParseWarning
	files      []string
}

func newImportScreen(source string) importScreen {
	return importScreen{source: source, loading: true}
}

func (s *importScreen) loaded(msg importLoadedMsg, existing []manager.Connection) {
	s.loading = false
	s.err = msg.err
	if msg.err != nil || msg.res == nil {
		return
	}
	s.candidates = msg.res.Candidates
	s.warnings = msg.res.Warnings
	s.files = msg.res.Files
	s.exists = make(map[string]bool, len(existing))
	for _, c := range existing {
		s.exists[c.Name] = true
	}
	s.checked = make(map[int]bool, len(s.candidates))
	for i, c := range s.candidates {
		if !s.exists[c.Name] {
			s.checked[i] = true
		}
	}
	s.cursor = 0
}

func (s *importScreen) move(delta int) {
	if len(s.candidates) == 0 {
		return
	}
	s.cursor = clamp(s.cursor+delta, 0, len(s.candidates)-1)
}

func (s *importScreen) toggle() {
	if len(s.candidates) == 0 {
		return
	}
	s.checked[s.cursor] = !s.checked[s.cursor]
}

// toggleAll checks every candidate, or clears them all when all are checked.
func (s *importScreen) toggleAll() {
	all := true
	for i := range s.candidates {
		if !s.checked[i] {
			all = false
			break
		}
	}
	for i := range s.candidates {
		s.checked[i] = !all
	}
}

// selection returns the checked candidates in source order.
func (s importScreen) selection() []manager.Connection {
	out := make([]manager.Connection, 0, len(s.candidates))
	for i, c := range s.candidates {
		if s.checked[i] {
			out = append(out, c)
		}
	}
	return out
}

func (s importScreen) view(t Theme, width, rows int) string {
	var b strings.Builder
	b.WriteString(t.Header.Render("Import from "+s.source) + "\n\n")

	switch {
	case s.loading:
		b.WriteString("reading ssh config...\n")
		return b.String()
	case s.err != nil:
		b.WriteString(t.Error.Render("import failed: "+s.err.Error()) + "\n\n")
		b.WriteString(t.Help.Render("esc back") + "\n")
		return b.String()
	case len(s.candidates) == 0:
		b.WriteString(t.Dim.Render("No importable Host entries found.") + "\n")
	}

	start := 0
	if rows > 0 && s.cursor >= rows {
		start = s.cursor - rows + 1
	}
	for i := start; i < len(s.candidates) && (rows <= 0 || i < start+rows); i++ {
		c := s.candidates[i]
		line := fmt.Sprintf("%s %s", t.CheckboxMark(s.checked[i]), formatRow(c, width-8))
		if s.exists[c.Name] {
			line += t.Dim.Render("  (exists)")
		}
		b.WriteString(t.SelectedPrefix(i == s.cursor) + line + "\n")
	}

	if n := len(s.warnings); n > 0 {
		b.WriteString("\n" + t.Warn.Render(fmt.Sprintf("%d warning(s):", n)) + "\n")
		for i, w := range s.warnings {
			if i == 3 {
				b.WriteString(t.Dim.Render(fmt.Sprintf("  ... %d more in the log", n-3)) + "\n")
				break
			}
			b.WriteString(t.Dim.Render("  "+w.String()) + "\n")
		}
	}
	b.WriteString("\n" + t.Dim.Render(fmt.Sprintf("%d selected of %d", len(s.selection()), len(s.candidates))) + "\n")
	return b.String()
}
