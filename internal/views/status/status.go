package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	State        client.ConnState
	Username     string
	OnlineCount  int
	UnreadTotal  int
	PendingCount int
	Balance      float64
	HasBalance   bool
	Width        int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch m.State {
	case client.StateConnected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	case client.StateConnecting:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("◌ Connecting...")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Offline")
	}

	parts := []string{connStr}
	if m.Username != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorBright).Render(m.Username))
	}
	parts = append(parts, fmt.Sprintf("%d online", m.OnlineCount))
	if m.UnreadTotal > 0 {
		parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBadge).Render(
			fmt.Sprintf("%d unread", m.UnreadTotal),
		))
	}
	if m.PendingCount > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(
			fmt.Sprintf("%d notif", m.PendingCount),
		))
	}
	if m.HasBalance {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorAccent).Render(
			fmt.Sprintf("$%.2f", m.Balance),
		))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := strings.Join(parts, sep)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
