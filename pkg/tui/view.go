package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"sshman/pkg/manager"
)

const (
	maxNameColumn = 32
	// header, separator, search, blank, status, help
	chromeRows = 6
)

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "sshman: loading...\n"
	}

	var b strings.Builder
	header := "sshman · connections"
	b.WriteString(m.theme.Header.Render(header) + "  " + m.theme.Dim.Render(m.countLine()) + "\n")
	b.WriteString(m.theme.Separator.Render(strings.Repeat("-", clamp(m.width, 3, 80))) + "\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.form.view(m.theme))
		return b.String()
	case modeImport:
		b.WriteString(m.imp.view(m.theme, m.width, m.listRows()))
		b.WriteString(m.help.View(m.impKeys) + "\n")
		return b.String()
	}

	b.WriteString(m.search.View() + "\n\n")
	b.WriteString(m.listView())

	switch {
	case m.mode == modeConfirmDelete:
		b.WriteString("\n" + m.theme.Warn.Render(fmt.Sprintf("Delete %q? (y/n)", m.pendingDelete)) + "\n")
	case m.status != "" && time.Now().Before(m.statusUntil):
		b.WriteString("\n" + m.statusLine() + "\n")
	default:
		b.WriteString("\n\n")
	}
	b.WriteString(m.help.View(m.keys) + "\n")
	return b.String()
}

func (m model) countLine() string {
	order := "insertion order"
	if m.sortByName {
		order = "by name"
	}
	return fmt.Sprintf("%d/%d · %s", len(m.filtered), len(m.records), order)
}

func (m model) listRows() int {
	if m.height <= 0 {
		return 0
	}
	return max(1, m.height-chromeRows-2)
}

func (m model) listView() string {
	if len(m.records) == 0 {
		return m.theme.Dim.Render("No connections yet. Press a to add one or i to import from ~/.ssh/config.") + "\n"
	}
	if len(m.filtered) == 0 {
		return m.theme.Dim.Render("No matches.") + "\n"
	}

	rows := m.listRows()
	start := 0
	if rows > 0 && m.selected >= rows {
		start = m.selected - rows + 1
	}
	var b strings.Builder
	for i := start; i < len(m.filtered) && (rows <= 0 || i < start+rows); i++ {
		c := m.records[m.filtered[i]]
		line := formatRow(c, m.width-4)
		if i == m.selected {
			line = m.theme.Selected.Render(line)
		}
		b.WriteString(m.theme.SelectedPrefix(i == m.selected) + line + "\n")
	}
	return b.String()
}

func (m model) statusLine() string {
	switch m.statusKind {
	case statusError:
		return m.theme.Error.Render(m.status)
	case statusSuccess:
		return m.theme.Success.Render(m.status)
	default:
		return m.theme.Accent.Render(m.status)
	}
}

// formatRow renders "name  user@host:port" fitted to width display cells.
func formatRow(c manager.Connection, width int) string {
	name := runewidth.Truncate(c.Name, maxNameColumn, "…")
	row := runewidth.FillRight(name, maxNameColumn) + "  " + c.DisplayTarget()
	if width > 0 {
		row = runewidth.Truncate(row, width, "…")
	}
	return row
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
