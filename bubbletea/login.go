package bubbletea

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatrelay"
)

// loginForm is the email/password modal.
type loginForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int // 0 email, 1 password
	err      string
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "email"
	email.Prompt = "Email    "
	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	return loginForm{email: email, password: password}
}

// reset clears the fields and focuses the email input.
func (f loginForm) reset() (loginForm, tea.Cmd) {
	f.email.SetValue("")
	f.password.SetValue("")
	f.err = ""
	f.focus = 0
	f.password.Blur()
	return f, f.email.Focus()
}

// next moves focus to the other field.
func (f loginForm) next() (loginForm, tea.Cmd) {
	f.focus = 1 - f.focus
	if f.focus == 0 {
		f.password.Blur()
		return f, f.email.Focus()
	}
	f.email.Blur()
	return f, f.password.Focus()
}

func (f loginForm) update(msg tea.Msg) (loginForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

func (f loginForm) view(state chatrelay.AuthState, styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.Accent.Render("Sign in"))
	b.WriteString("\n\n")
	b.WriteString(f.email.View())
	b.WriteString("\n")
	b.WriteString(f.password.View())
	b.WriteString("\n\n")
	switch {
	case state == chatrelay.AuthAuthenticating:
		b.WriteString(styles.Muted.Render("Signing in…"))
	case f.err != "":
		b.WriteString(styles.Error.Render(f.err))
	default:
		b.WriteString(styles.Muted.Render("enter submit · tab switch field · esc cancel"))
	}
	return styles.Modal.Render(b.String())
}

// place centers the modal in a width x height area.
func place(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
