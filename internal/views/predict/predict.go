// Package predict drives the price-prediction flow: check data
// requirements, ingest history when it falls short, then predict.
package predict

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

// RequirementsMsg is returned after the requirements check.
type RequirementsMsg struct {
	Reqs *client.Requirements
	Err  error
}

// IngestedMsg is returned after an ingest call.
type IngestedMsg struct {
	Symbol string
	Err    error
}

// PredictedMsg is returned after the prediction call.
type PredictedMsg struct {
	Pred *client.Prediction
	Err  error
}

// KeyMap holds the predict key bindings.
type KeyMap struct {
	Next   key.Binding
	Submit key.Binding
	Ingest key.Binding
}

// DefaultKeyMap returns the default predict key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "predict"),
		),
		Ingest: key.NewBinding(
			key.WithKeys("ctrl+i"),
			key.WithHelp("ctrl+i", "ingest history"),
		),
	}
}

const (
	fieldSymbol = iota
	fieldHorizon
	fieldCount
)

// Model is the prediction flow model.
type Model struct {
	http *client.HTTPClient
	keys KeyMap

	inputs [fieldCount]textinput.Model
	focus  int

	reqs     *client.Requirements
	rendered string // glamour-rendered prediction result

	busy   string // "", "requirements", "ingest", "predict"
	errMsg string
	width  int
	height int
}

// New creates the prediction model.
func New(http *client.HTTPClient) Model {
	m := Model{http: http, keys: DefaultKeyMap()}
	for i := range m.inputs {
		in := textinput.New()
		in.CharLimit = 16
		switch i {
		case fieldSymbol:
			in.Placeholder = "symbol (e.g. BTC)"
			in.Focus()
		case fieldHorizon:
			in.Placeholder = "horizon days"
			in.SetValue("7")
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

// Update handles messages for the prediction flow.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RequirementsMsg:
		m.busy = ""
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.reqs = msg.Reqs
		if !msg.Reqs.Satisfied {
			m.errMsg = fmt.Sprintf("not enough history: %d of %d days available (ctrl+i to ingest)",
				msg.Reqs.AvailableDays, msg.Reqs.RequiredDays)
			return m, nil
		}
		// Enough data on hand, go straight to the prediction.
		m.busy = "predict"
		symbol, horizon, _ := m.params()
		return m, doPredict(m.http, symbol, horizon)

	case IngestedMsg:
		m.busy = ""
		if msg.Err != nil {
			m.errMsg = "ingest failed: " + msg.Err.Error()
			return m, nil
		}
		// Re-check requirements now that history was loaded.
		m.errMsg = ""
		m.busy = "requirements"
		symbol, horizon, _ := m.params()
		return m, fetchRequirements(m.http, symbol, horizon)

	case PredictedMsg:
		m.busy = ""
		if msg.Err != nil {
			if errors.Is(msg.Err, client.ErrNotEnoughHistory) {
				m.errMsg = "not enough history for this horizon (ctrl+i to ingest)"
			} else {
				m.errMsg = msg.Err.Error()
			}
			return m, nil
		}
		m.errMsg = ""
		m.rendered = renderPrediction(msg.Pred, m.width)
		return m, nil

	case tea.KeyMsg:
		if m.busy != "" {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Next):
			m.setFocus((m.focus + 1) % fieldCount)
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Submit):
			symbol, horizon, err := m.params()
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.errMsg = ""
			m.rendered = ""
			m.busy = "requirements"
			return m, fetchRequirements(m.http, symbol, horizon)

		case key.Matches(msg, m.keys.Ingest):
			symbol, _, err := m.params()
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			days := 90
			if m.reqs != nil && m.reqs.RequiredDays > days {
				days = m.reqs.RequiredDays
			}
			m.busy = "ingest"
			return m, doIngest(m.http, symbol, days)
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

func (m Model) params() (string, int, error) {
	symbol := strings.ToUpper(strings.TrimSpace(m.inputs[fieldSymbol].Value()))
	if symbol == "" {
		return "", 0, errors.New("symbol is required")
	}
	horizon, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldHorizon].Value()))
	if err != nil || horizon <= 0 {
		return "", 0, errors.New("horizon must be a positive number of days")
	}
	return symbol, horizon, nil
}

// View renders the prediction flow.
func (m Model) View() string {
	var rows []string
	rows = append(rows, theme.StyleHeader.Render(" PREDICT "), "")
	for i := range m.inputs {
		rows = append(rows, m.inputs[i].View())
	}
	rows = append(rows, "")

	switch m.busy {
	case "requirements":
		rows = append(rows, theme.StyleDimmed.Render("Checking data requirements..."))
	case "ingest":
		rows = append(rows, theme.StyleDimmed.Render("Ingesting price history..."))
	case "predict":
		rows = append(rows, theme.StyleDimmed.Render("Running prediction..."))
	default:
		if m.errMsg != "" {
			rows = append(rows, theme.StyleError.Render(m.errMsg))
		}
		if m.rendered != "" {
			rows = append(rows, m.rendered)
		}
	}

	rows = append(rows, "", theme.StyleDimmed.Render("enter: predict  ctrl+i: ingest  tab: next field"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderPrediction formats the result as markdown and styles it with
// glamour, falling back to plain text if rendering fails.
func renderPrediction(p *client.Prediction, width int) string {
	md := fmt.Sprintf(`# %s in %d days

| | |
|---|---|
| Predicted price | $%.2f |
| Confidence | %.0f%% |
| Model | %s |
| As of | %s |
`, p.Symbol, p.Horizon, p.Predicted, p.Confidence*100, p.Model,
		p.AsOf.Format("2006-01-02 15:04"))

	if width < 40 {
		width = 40
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func fetchRequirements(h *client.HTTPClient, symbol string, horizon int) tea.Cmd {
	return func() tea.Msg {
		reqs, err := h.MLRequirements(symbol, horizon)
		return RequirementsMsg{Reqs: reqs, Err: err}
	}
}

func doIngest(h *client.HTTPClient, symbol string, days int) tea.Cmd {
	return func() tea.Msg {
		err := h.MLIngest(symbol, days)
		return IngestedMsg{Symbol: symbol, Err: err}
	}
}

func doPredict(h *client.HTTPClient, symbol string, horizon int) tea.Cmd {
	return func() tea.Msg {
		pred, err := h.MLPredict(symbol, horizon)
		return PredictedMsg{Pred: pred, Err: err}
	}
}
