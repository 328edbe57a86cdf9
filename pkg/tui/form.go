package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/shlex"
	"github.com/kballard/go-shellquote"

	"sshman/pkg/manager"
)

const (
	fieldName = iota
	fieldHost
	fieldPort
	fieldUser
	fieldIdentity
	fieldArgs
	fieldCount
)

type formAction int

const (
	formNone formAction = iota
	formSubmit
	formCancel
)

// connForm is the add/edit overlay. original is the name being edited, or
// empty when adding.
type connForm struct {
	inputs   []textinput.Model
	focus    int
	original string
	err      string
}

func newConnForm() connForm {
	labels := []struct{ prompt, placeholder string }{
		{"Name:         ", "e.g. web-prod"},
		{"Host:         ", "hostname or IP"},
		{"Port:         ", "22"},
		{"User:         ", "optional"},
		{"IdentityFile: ", "optional, e.g. ~/.ssh/id_ed25519"},
		{"Extra args:   ", `optional, e.g. -J bastion -o "ServerAliveInterval 30"`},
	}
	f := connForm{inputs: make([]textinput.Model, fieldCount)}
	for i, l := range labels {
		ti := textinput.New()
		ti.Prompt = l.prompt
		ti.Placeholder = l.placeholder
		ti.CharLimit = 512
		ti.PromptStyle = ti.PromptStyle.Bold(true)
		f.inputs[i] = ti
	}
	f.inputs[fieldName].Focus()
	return f
}

// editConnForm returns a form prefilled from c.
func editConnForm(c manager.Connection) connForm {
	f := newConnForm()
	f.original = c.Name
	f.inputs[fieldName].SetValue(c.Name)
	f.inputs[fieldHost].SetValue(c.Host)
	if c.Port != 0 && c.Port != manager.DefaultPort {
		f.inputs[fieldPort].SetValue(fmt.Sprintf("%d", c.Port))
	}
	f.inputs[fieldUser].SetValue(c.User)
	f.inputs[fieldIdentity].SetValue(c.IdentityFile)
	f.inputs[fieldArgs].SetValue(shellquote.Join(c.ExtraArgs...))
	return f
}

func (f connForm) editing() bool { return f.original != "" }

// record builds a Connection from the inputs. Store-level validation
// (required fields, uniqueness) happens in the store.
func (f connForm) record() (manager.Connection, error) {
	port, err := manager.ParsePort(f.inputs[fieldPort].Value())
	if err != nil {
		return manager.Connection{}, err
	}
	var args []string
	if raw := strings.TrimSpace(f.inputs[fieldArgs].Value()); raw != "" {
		args, err = shlex.Split(raw)
		if err != nil {
			return manager.Connection{}, fmt.Errorf("extra args: %w", err)
		}
	}
	return manager.Connection{
		Name:         f.inputs[fieldName].Value(),
		Host:         f.inputs[fieldHost].Value(),
		Port:         port,
		User:         f.inputs[fieldUser].Value(),
		IdentityFile: f.inputs[fieldIdentity].Value(),
		ExtraArgs:    args,
	}, nil
}

func (f *connForm) setFocus(i int) {
	if i < 0 {
		i = fieldCount - 1
	}
	if i >= fieldCount {
		i = 0
	}
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

func (f connForm) update(msg tea.KeyMsg) (connForm, tea.Cmd, formAction) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return f, nil, formCancel
	case "ctrl+s":
		return f, nil, formSubmit
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return f, nil, formNone
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return f, nil, formNone
	case "enter":
		if f.focus == fieldCount-1 {
			return f, nil, formSubmit
		}
		f.setFocus(f.focus + 1)
		return f, nil, formNone
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, formNone
}

func (f connForm) view(t Theme) string {
	var b strings.Builder
	title := "Add connection"
	if f.editing() {
		title = "Edit connection: " + f.original
	}
	b.WriteString(t.Header.Render(title) + "\n\n")
	for i := range f.inputs {
		b.WriteString(f.inputs[i].View() + "\n")
	}
	b.WriteString("\n")
	if f.err != "" {
		b.WriteString(t.Error.Render(f.err) + "\n")
	}
	b.WriteString(t.Help.Render("tab/shift+tab move  enter next/save  ctrl+s save  esc cancel") + "\n")
	return b.String()
}
