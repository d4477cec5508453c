// Package simulate provides the create-simulation form.
package simulate

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

// CreatedMsg is returned after the create-simulation call.
type CreatedMsg struct {
	Sim *client.Simulation
	Err error
}

// KeyMap holds the form key bindings.
type KeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
}

// DefaultKeyMap returns the default form key bindings.
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
			key.WithHelp("enter", "run"),
		),
	}
}

const (
	fieldSymbol = iota
	fieldDays
	fieldStartCash
	fieldCount
)

// Model is the create-simulation form model.
type Model struct {
	http *client.HTTPClient
	keys KeyMap

	inputs [fieldCount]textinput.Model
	focus  int

	busy    bool
	errMsg  string
	lastSim *client.Simulation
	width   int
	height  int
}

// New creates the form with sensible defaults filled in.
func New(http *client.HTTPClient) Model {
	m := Model{http: http, keys: DefaultKeyMap()}
	for i := range m.inputs {
		in := textinput.New()
		in.CharLimit = 16
		switch i {
		case fieldSymbol:
			in.Placeholder = "symbol (e.g. BTC)"
			in.Focus()
		case fieldDays:
			in.Placeholder = "days"
			in.SetValue("30")
		case fieldStartCash:
			in.Placeholder = "starting cash"
			in.SetValue("10000")
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

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case CreatedMsg:
		m.busy = false
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.lastSim = msg.Sim
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Next):
			m.setFocus((m.focus + 1) % fieldCount)
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Prev):
			m.setFocus((m.focus - 1 + fieldCount) % fieldCount)
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
	symbol := strings.ToUpper(strings.TrimSpace(m.inputs[fieldSymbol].Value()))
	if symbol == "" {
		m.errMsg = "symbol is required"
		return m, nil
	}
	days, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldDays].Value()))
	if err != nil || days <= 0 {
		m.errMsg = "days must be a positive number"
		return m, nil
	}
	cash, err := strconv.ParseFloat(strings.TrimSpace(m.inputs[fieldStartCash].Value()), 64)
	if err != nil || cash <= 0 {
		m.errMsg = "starting cash must be a positive number"
		return m, nil
	}

	m.busy = true
	m.errMsg = ""
	return m, doCreate(m.http, symbol, days, cash)
}

// View renders the form.
func (m Model) View() string {
	var rows []string
	rows = append(rows, theme.StyleHeader.Render(" NEW SIMULATION "), "")
	for i := range m.inputs {
		rows = append(rows, m.inputs[i].View())
	}
	rows = append(rows, "")

	switch {
	case m.busy:
		rows = append(rows, theme.StyleDimmed.Render("Running simulation..."))
	case m.errMsg != "":
		rows = append(rows, theme.StyleError.Render(m.errMsg))
	case m.lastSim != nil:
		pnl := m.lastSim.FinalCash - m.lastSim.StartCash
		rows = append(rows,
			"Done: "+m.lastSim.Symbol+" finished at "+
				lipgloss.NewStyle().Foreground(theme.PnLColor(pnl)).Render(
					strconv.FormatFloat(m.lastSim.FinalCash, 'f', 2, 64)))
	}

	rows = append(rows, "", theme.StyleDimmed.Render("enter: run  tab: next field"))
	return theme.StyleBorder.Padding(1, 3).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func doCreate(h *client.HTTPClient, symbol string, days int, cash float64) tea.Cmd {
	return func() tea.Msg {
		sim, err := h.CreateSimulation(symbol, days, cash)
		return CreatedMsg{Sim: sim, Err: err}
	}
}
