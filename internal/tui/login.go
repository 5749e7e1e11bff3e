package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// loginForm is the two-field credentials form of the login screen
type loginForm struct {
	email      textinput.Model
	password   textinput.Model
	focused    int
	submitting bool
	err        string
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = ""
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = ""
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginForm{email: email, password: password}
}

// ready reports whether both fields have a value
func (f loginForm) ready() bool {
	return strings.TrimSpace(f.email.Value()) != "" && f.password.Value() != ""
}

func (f *loginForm) reset() {
	f.email.SetValue("")
	f.password.SetValue("")
	f.focused = 0
	f.err = ""
}

func (f *loginForm) focus() tea.Cmd {
	if f.focused == 1 {
		f.email.Blur()
		return f.password.Focus()
	}
	f.password.Blur()
	return f.email.Focus()
}

func (f loginForm) update(msg tea.Msg) (loginForm, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "tab", "down", "shift+tab", "up", "enter":
			// enter on an incomplete form moves to the next field
			f.focused = 1 - f.focused
			cmd := f.focus()
			return f, cmd
		}
	}

	var cmd tea.Cmd
	if f.focused == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}
