// Package login provides the sign-in and sign-up form.
package login

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

// ResultMsg is returned after a login or signup call.
type ResultMsg struct {
	Resp *client.LoginResponse
	Err  error
}

// KeyMap holds the login-specific key bindings.
type KeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Toggle key.Binding
}

// DefaultKeyMap returns the default login key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "login/signup"),
		),
	}
}

const (
	fieldUsername = iota
	fieldPassword
	fieldEmail
	fieldName
)

// Model is the login form model.
type Model struct {
	http *client.HTTPClient
	keys KeyMap

	inputs []textinput.Model
	focus  int
	signup bool
	busy   bool
	errMsg string
	width  int
	height int
}

// New creates a login model with the username field focused.
func New(http *client.HTTPClient) Model {
	m := Model{
		http:   http,
		keys:   DefaultKeyMap(),
		inputs: make([]textinput.Model, 4),
	}
	for i := range m.inputs {
		in := textinput.New()
		in.CharLimit = 128
		switch i {
		case fieldUsername:
			in.Placeholder = "username"
			in.Focus()
		case fieldPassword:
			in.Placeholder = "password"
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		case fieldEmail:
			in.Placeholder = "email"
		case fieldName:
			in.Placeholder = "display name"
		}
		m.inputs[i] = in
	}
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize updates the available rendering area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetError surfaces a failure from the parent (e.g. a forced logout).
func (m *Model) SetError(msg string) {
	m.errMsg = msg
	m.busy = false
}

// fieldCount is how many inputs are active in the current mode.
func (m Model) fieldCount() int {
	if m.signup {
		return 4
	}
	return 2
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultMsg:
		m.busy = false
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		// Parent consumes the session; clear the password for re-entry.
		m.inputs[fieldPassword].SetValue("")
		m.errMsg = ""
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Toggle):
			m.signup = !m.signup
			m.errMsg = ""
			if m.focus >= m.fieldCount() {
				m.setFocus(0)
			}
			return m, nil

		case key.Matches(msg, m.keys.Next):
			m.setFocus((m.focus + 1) % m.fieldCount())
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Prev):
			m.setFocus((m.focus - 1 + m.fieldCount()) % m.fieldCount())
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m Model) submit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	password := m.inputs[fieldPassword].Value()
	if username == "" || password == "" {
		m.errMsg = "username and password are required"
		return m, nil
	}
	m.busy = true
	m.errMsg = ""

	if m.signup {
		email := strings.TrimSpace(m.inputs[fieldEmail].Value())
		name := strings.TrimSpace(m.inputs[fieldName].Value())
		return m, doSignup(m.http, username, email, password, name)
	}
	return m, doLogin(m.http, username, password)
}

// View renders the login form.
func (m Model) View() string {
	title := " INVESTERM "
	mode := "Sign in"
	if m.signup {
		mode = "Create account"
	}

	var rows []string
	rows = append(rows,
		theme.StyleHeader.Render(title),
		theme.StyleDimmed.Render(mode),
		"",
	)
	for i := 0; i < m.fieldCount(); i++ {
		rows = append(rows, m.inputs[i].View())
	}
	rows = append(rows, "")

	if m.busy {
		rows = append(rows, theme.StyleDimmed.Render("Signing in..."))
	} else if m.errMsg != "" {
		rows = append(rows, theme.StyleError.Render(m.errMsg))
	}
	rows = append(rows, "",
		theme.StyleDimmed.Render("enter: submit  tab: next field  ctrl+s: login/signup"))

	form := theme.StyleBorder.Padding(1, 3).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...))

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
	}
	return form
}

func doLogin(h *client.HTTPClient, username, password string) tea.Cmd {
	return func() tea.Msg {
		resp, err := h.Login(username, password)
		return ResultMsg{Resp: resp, Err: err}
	}
}

func doSignup(h *client.HTTPClient, username, email, password, name string) tea.Cmd {
	return func() tea.Msg {
		resp, err := h.Signup(username, email, password, name)
		return ResultMsg{Resp: resp, Err: err}
	}
}
