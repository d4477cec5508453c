// Package portfolio lists investment simulations and renders their
// value charts.
package portfolio

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

// LoadedMsg is returned after fetching the simulation list.
type LoadedMsg struct {
	Sims []client.Simulation
	Err  error
}

// ChartLoadedMsg is returned after fetching one simulation's chart.
type ChartLoadedMsg struct {
	SimID  int64
	Points []client.ChartPoint
	Err    error
}

// DeletedMsg is returned after deleting a simulation.
type DeletedMsg struct {
	SimID int64
	Err   error
}

// KeyMap holds the portfolio key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Delete  key.Binding
	Confirm key.Binding
	Refresh key.Binding
}

// DefaultKeyMap returns the default portfolio key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "chart"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
	}
}

// Model is the portfolio model.
type Model struct {
	http *client.HTTPClient
	keys KeyMap

	sims   []client.Simulation
	cursor int

	chartSim int64
	chart    []client.ChartPoint

	confirming int64 // simulation armed for deletion, zero when none

	loading bool
	errMsg  string
	width   int
	height  int
}

// New creates a portfolio model in the loading state.
func New(http *client.HTTPClient) Model {
	return Model{http: http, keys: DefaultKeyMap(), loading: true}
}

// Init fetches the simulation list.
func (m Model) Init() tea.Cmd {
	return fetchSims(m.http)
}

// SetSize updates the available rendering area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the portfolio.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.sims = msg.Sims
		if m.cursor >= len(m.sims) {
			m.cursor = len(m.sims) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case ChartLoadedMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.chartSim = msg.SimID
		m.chart = msg.Points
		return m, nil

	case DeletedMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		if msg.SimID == m.chartSim {
			m.chartSim = 0
			m.chart = nil
		}
		return m, fetchSims(m.http)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.confirming = 0
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		m.confirming = 0
		if m.cursor < len(m.sims)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Open):
		m.confirming = 0
		if m.cursor < len(m.sims) {
			return m, fetchChart(m.http, m.sims[m.cursor].ID)
		}

	case key.Matches(msg, m.keys.Delete):
		if m.cursor >= len(m.sims) {
			return m, nil
		}
		// First press arms, second press on the same simulation deletes.
		id := m.sims[m.cursor].ID
		if m.confirming == id {
			m.confirming = 0
			return m, doDelete(m.http, id)
		}
		m.confirming = id

	case key.Matches(msg, m.keys.Confirm):
		if m.confirming != 0 {
			id := m.confirming
			m.confirming = 0
			return m, doDelete(m.http, id)
		}

	case key.Matches(msg, m.keys.Refresh):
		m.confirming = 0
		m.loading = true
		return m, fetchSims(m.http)
	}
	return m, nil
}

// View renders the portfolio.
func (m Model) View() string {
	if m.loading {
		return theme.StyleDimmed.Render("  Loading simulations...")
	}

	var rows []string
	rows = append(rows, theme.StyleHeader.Render(" PORTFOLIO "), "")

	if len(m.sims) == 0 {
		rows = append(rows, theme.StyleDimmed.Render("  No simulations yet. Press s to create one."))
	}
	for i, s := range m.sims {
		rows = append(rows, m.renderSim(s, i == m.cursor))
	}

	if m.chartSim != 0 && len(m.chart) > 0 {
		rows = append(rows, "", m.renderChart())
	}

	rows = append(rows, "")
	if m.errMsg != "" {
		rows = append(rows, theme.StyleError.Render("  "+m.errMsg))
	}
	if m.confirming != 0 {
		rows = append(rows, theme.StyleError.Render(
			"  delete "+m.confirmingSymbol()+"? press y (or d again) to confirm, move to cancel"))
	}
	rows = append(rows, theme.StyleDimmed.Render("  enter: chart  d: delete  R: refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) confirmingSymbol() string {
	for _, s := range m.sims {
		if s.ID == m.confirming {
			return s.Symbol
		}
	}
	return "simulation"
}

func (m Model) renderSim(s client.Simulation, selected bool) string {
	pnl := s.FinalCash - s.StartCash
	pnlStr := lipgloss.NewStyle().Foreground(theme.PnLColor(pnl)).Render(
		fmt.Sprintf("%+.2f", pnl))

	line := fmt.Sprintf("%-8s %3dd  start $%.2f  final $%.2f  %s",
		s.Symbol, s.Days, s.StartCash, s.FinalCash, pnlStr)
	if selected {
		return theme.StyleSelected.Render("> " + line)
	}
	return "  " + line
}

// renderChart draws the simulation value series as a block-row chart.
func (m Model) renderChart() string {
	const chartHeight = 8
	width := m.width - 10
	if width < 20 {
		width = 20
	}
	points := downsample(m.chart, width)

	min, max := points[0].Value, points[0].Value
	for _, p := range points {
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}

	grid := make([][]rune, chartHeight)
	for r := range grid {
		grid[r] = make([]rune, len(points))
		for c := range grid[r] {
			grid[r][c] = ' '
		}
	}
	for c, p := range points {
		h := int((p.Value - min) / span * float64(chartHeight-1))
		for r := 0; r <= h; r++ {
			grid[chartHeight-1-r][c] = '█'
		}
	}

	up := len(points) > 1 && points[len(points)-1].Value >= points[0].Value
	color := theme.ColorProfit
	if !up {
		color = theme.ColorLoss
	}
	style := lipgloss.NewStyle().Foreground(color)

	var lines []string
	lines = append(lines, theme.StyleDimmed.Render(
		fmt.Sprintf("  high $%.2f", max)))
	for _, row := range grid {
		lines = append(lines, "  "+style.Render(string(row)))
	}
	lines = append(lines, theme.StyleDimmed.Render(
		fmt.Sprintf("  low  $%.2f", min)))
	return strings.Join(lines, "\n")
}

// downsample reduces the series to at most width points by bucketing.
func downsample(points []client.ChartPoint, width int) []client.ChartPoint {
	if len(points) <= width {
		return points
	}
	out := make([]client.ChartPoint, 0, width)
	for i := 0; i < width; i++ {
		out = append(out, points[i*len(points)/width])
	}
	return out
}

func fetchSims(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		sims, err := h.Simulations()
		return LoadedMsg{Sims: sims, Err: err}
	}
}

func fetchChart(h *client.HTTPClient, id int64) tea.Cmd {
	return func() tea.Msg {
		points, err := h.SimulationChart(id)
		return ChartLoadedMsg{SimID: id, Points: points, Err: err}
	}
}

func doDelete(h *client.HTTPClient, id int64) tea.Cmd {
	return func() tea.Msg {
		err := h.DeleteSimulation(id)
		return DeletedMsg{SimID: id, Err: err}
	}
}
