package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles used by the TUI. The zero value renders plain text.
//
// Palettes (settings key "theme", or $SSHMAN_THEME):
//
//	auto        dark palette unless NO_COLOR is set or TERM is dumb
//	dark        default for dark terminals
//	light       default for light terminals
//	catppuccin  Catppuccin Mocha approximation
//	none        no styling
type Theme struct {
	Header    lipgloss.Style
	Accent    lipgloss.Style
	Selected  lipgloss.Style
	Checkbox  lipgloss.Style
	Dim       lipgloss.Style
	Separator lipgloss.Style
	Help      lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warn      lipgloss.Style
}

// ThemeByName resolves a palette name. Unknown names fall back to auto.
func ThemeByName(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off", "disabled":
		return NoTheme()
	case "catppuccin", "catppuccin-mocha", "mocha":
		return CatppuccinMochaTheme()
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	default:
		return AutoTheme()
	}
}

func NoTheme() Theme { return Theme{} }

// AutoTheme enables colour whenever the terminal likely supports it.
func AutoTheme() Theme {
	if !terminalSupportsColor() {
		return NoTheme()
	}
	return DarkTheme()
}

func DarkTheme() Theme {
	return Theme{
		Header:    lipgloss.NewStyle().Bold(true),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		Checkbox:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Dim:       lipgloss.NewStyle().Faint(true),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

func LightTheme() Theme {
	t := DarkTheme()
	t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	t.Selected = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0"))
	t.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	return t
}

// CatppuccinMochaTheme approximates Catppuccin Mocha with 256-colour codes.
func CatppuccinMochaTheme() Theme {
	// mauve 183, lavender 147, peach 216, teal 44, subtext 245
	return Theme{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("183")),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("44")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("216")),
		Checkbox:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("44")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		Warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
	}
}

// SelectedPrefix returns " > " for the cursor row and blanks otherwise.
func (t Theme) SelectedPrefix(selected bool) string {
	if !selected {
		return "   "
	}
	return t.Selected.Render(" > ")
}

// CheckboxMark renders a checkbox for the import screen.
func (t Theme) CheckboxMark(on bool) string {
	if on {
		return t.Checkbox.Render("[x]")
	}
	return t.Dim.Render("[ ]")
}

func terminalSupportsColor() bool {
	// https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return term != "" && term != "dumb"
}
