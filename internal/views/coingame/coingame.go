// Package coingame provides the play-money trading screen: wallet
// balance, open positions with spring-animated P/L bars, and an invest
// form.
package coingame

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

const (
	fps      = 30
	barWidth = 24
)

// WalletLoadedMsg is returned after fetching the wallet.
type WalletLoadedMsg struct {
	Wallet *client.Wallet
	Err    error
}

// PositionsLoadedMsg is returned after fetching open positions.
type PositionsLoadedMsg struct {
	Positions []client.Position
	Err       error
}

// TradeResultMsg is returned after an invest or close call.
type TradeResultMsg struct {
	Position *client.Position
	Closed   bool
	Err      error
}

// frameMsg drives the P/L bar animation.
type frameMsg time.Time

// KeyMap holds the coin-game key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Invest  key.Binding
	Close   key.Binding
	Focus   key.Binding
	Refresh key.Binding
}

// DefaultKeyMap returns the default coin-game key bindings.
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
		Invest: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "invest"),
		),
		Close: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close position"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "form/list"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
	}
}

// bar is the animated fill state for one position's P/L bar.
type bar struct {
	pos float64 // current fill, -1..1
	vel float64
}

// Model is the coin-game model.
type Model struct {
	http *client.HTTPClient
	keys KeyMap

	wallet    *client.Wallet
	positions []client.Position
	cursor    int

	symbolIn textinput.Model
	amountIn textinput.Model
	formRow  int // 0 symbol, 1 amount
	inForm   bool

	spring harmonica.Spring
	bars   map[int64]*bar

	animating bool
	errMsg    string
	width     int
	height    int
}

// New creates the coin-game model.
func New(http *client.HTTPClient) Model {
	symbolIn := textinput.New()
	symbolIn.Placeholder = "symbol"
	symbolIn.CharLimit = 12
	symbolIn.Focus()

	amountIn := textinput.New()
	amountIn.Placeholder = "amount"
	amountIn.CharLimit = 12

	return Model{
		http:     http,
		keys:     DefaultKeyMap(),
		symbolIn: symbolIn,
		amountIn: amountIn,
		inForm:   true,
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.7),
		bars:     make(map[int64]*bar),
	}
}

// Init fetches the wallet and positions.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchWallet(m.http), fetchPositions(m.http), textinput.Blink)
}

// SetSize updates the available rendering area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func animate() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages for the coin game.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case WalletLoadedMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.wallet = msg.Wallet
		return m, nil

	case PositionsLoadedMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.positions = msg.Positions
		if m.cursor >= len(m.positions) {
			m.cursor = 0
		}
		m.pruneBars()
		if !m.animating && len(m.positions) > 0 {
			m.animating = true
			return m, animate()
		}
		return m, nil

	case TradeResultMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		// Both trades move the wallet; refetch everything.
		return m, tea.Batch(fetchWallet(m.http), fetchPositions(m.http))

	case frameMsg:
		if m.stepBars() {
			return m, animate()
		}
		m.animating = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateForm(msg)
}

// stepBars advances every bar one spring frame toward its target fill.
// Returns false once all bars have settled.
func (m *Model) stepBars() bool {
	moving := false
	for _, p := range m.positions {
		b, ok := m.bars[p.ID]
		if !ok {
			b = &bar{}
			m.bars[p.ID] = b
		}
		target := pnlFraction(p)
		b.pos, b.vel = m.spring.Update(b.pos, b.vel, target)
		if diff := b.pos - target; diff > 0.001 || diff < -0.001 || b.vel > 0.001 || b.vel < -0.001 {
			moving = true
		}
	}
	return moving
}

func (m *Model) pruneBars() {
	open := make(map[int64]bool, len(m.positions))
	for _, p := range m.positions {
		open[p.ID] = true
	}
	for id := range m.bars {
		if !open[id] {
			delete(m.bars, id)
		}
	}
}

// pnlFraction maps a position's P/L to a -1..1 bar fill.
func pnlFraction(p client.Position) float64 {
	invested := p.Amount * p.EntryPrice
	if invested == 0 {
		return 0
	}
	f := p.PnL / invested
	if f > 1 {
		f = 1
	}
	if f < -1 {
		f = -1
	}
	return f
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Focus) {
		if m.inForm && m.formRow == 0 {
			m.formRow = 1
			m.symbolIn.Blur()
			m.amountIn.Focus()
			return m, textinput.Blink
		}
		m.inForm = !m.inForm
		m.formRow = 0
		if m.inForm {
			m.symbolIn.Focus()
			return m, textinput.Blink
		}
		m.symbolIn.Blur()
		m.amountIn.Blur()
		return m, nil
	}

	if m.inForm {
		if key.Matches(msg, m.keys.Invest) {
			return m.submitInvest()
		}
		return m.updateForm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.positions)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Close):
		if m.cursor < len(m.positions) {
			return m, doClose(m.http, m.positions[m.cursor].ID)
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(fetchWallet(m.http), fetchPositions(m.http))
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.formRow == 0 {
		m.symbolIn, cmd = m.symbolIn.Update(msg)
	} else {
		m.amountIn, cmd = m.amountIn.Update(msg)
	}
	return m, cmd
}

func (m Model) submitInvest() (Model, tea.Cmd) {
	symbol := strings.ToUpper(strings.TrimSpace(m.symbolIn.Value()))
	if symbol == "" {
		m.errMsg = "symbol is required"
		return m, nil
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(m.amountIn.Value()), 64)
	if err != nil || amount <= 0 {
		m.errMsg = "amount must be a positive number"
		return m, nil
	}
	if m.wallet != nil && amount > m.wallet.Balance {
		m.errMsg = "amount exceeds wallet balance"
		return m, nil
	}
	m.errMsg = ""
	m.amountIn.SetValue("")
	return m, doInvest(m.http, symbol, amount)
}

// View renders the coin game.
func (m Model) View() string {
	var rows []string
	balance := "..."
	if m.wallet != nil {
		balance = fmt.Sprintf("$%.2f", m.wallet.Balance)
	}
	rows = append(rows,
		theme.StyleHeader.Render(" COIN GAME ")+"  "+
			theme.StyleAccent.Render("wallet "+balance),
		"")

	rows = append(rows, "  "+m.symbolIn.View())
	rows = append(rows, "  "+m.amountIn.View())
	rows = append(rows, "")

	if len(m.positions) == 0 {
		rows = append(rows, theme.StyleDimmed.Render("  No open positions."))
	}
	for i, p := range m.positions {
		rows = append(rows, m.renderPosition(p, !m.inForm && i == m.cursor))
	}

	rows = append(rows, "")
	if m.errMsg != "" {
		rows = append(rows, theme.StyleError.Render("  "+m.errMsg))
	}
	rows = append(rows, theme.StyleDimmed.Render("  tab: form/list  enter: invest  x: close  R: refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderPosition(p client.Position, selected bool) string {
	pnlStr := lipgloss.NewStyle().Foreground(theme.PnLColor(p.PnL)).Render(
		fmt.Sprintf("%+.2f", p.PnL))

	line := fmt.Sprintf("%-8s %.4f @ $%.2f  now $%.2f  %s %s",
		p.Symbol, p.Amount, p.EntryPrice, p.CurrentPrice, pnlStr, m.renderBar(p))
	if selected {
		return theme.StyleSelected.Render("> " + line)
	}
	return "  " + line
}

// renderBar draws the animated fill: losses grow left from center, gains
// grow right.
func (m Model) renderBar(p client.Position) string {
	fill := 0.0
	if b, ok := m.bars[p.ID]; ok {
		fill = b.pos
	}
	half := barWidth / 2
	n := int(fill * float64(half))

	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	color := theme.ColorNeutral
	switch {
	case n > 0:
		right = strings.Repeat("█", n) + strings.Repeat(" ", half-n)
		color = theme.ColorProfit
	case n < 0:
		left = strings.Repeat(" ", half+n) + strings.Repeat("█", -n)
		color = theme.ColorLoss
	}
	return lipgloss.NewStyle().Foreground(color).Render("[" + left + "|" + right + "]")
}

func fetchWallet(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		w, err := h.Wallet()
		return WalletLoadedMsg{Wallet: w, Err: err}
	}
}

func fetchPositions(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		ps, err := h.Positions()
		return PositionsLoadedMsg{Positions: ps, Err: err}
	}
}

func doInvest(h *client.HTTPClient, symbol string, amount float64) tea.Cmd {
	return func() tea.Msg {
		pos, err := h.Invest(symbol, amount)
		return TradeResultMsg{Position: pos, Err: err}
	}
}

func doClose(h *client.HTTPClient, id int64) tea.Cmd {
	return func() tea.Msg {
		pos, err := h.ClosePosition(id)
		return TradeResultMsg{Position: pos, Closed: true, Err: err}
	}
}
