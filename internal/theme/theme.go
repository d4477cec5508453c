// Package theme provides the Lip Gloss color palette and reusable styles
// for the Investerm TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Presence colors.
var (
	ColorOnline  = lipgloss.Color("#22c55e")
	ColorOffline = lipgloss.Color("#4b5563")
	ColorTyping  = lipgloss.Color("#06b6d4")
)

// Delivery tick colors.
var (
	ColorTickSent      = lipgloss.Color("#6b7280")
	ColorTickDelivered = lipgloss.Color("#9ca3af")
	ColorTickSeen      = lipgloss.Color("#3b82f6")
)

// Market colors.
var (
	ColorProfit  = lipgloss.Color("#16a34a")
	ColorLoss    = lipgloss.Color("#dc2626")
	ColorNeutral = lipgloss.Color("#9ca3af")
)

// Sentiment colors for news scoring.
var (
	ColorBullish = lipgloss.Color("#22c55e")
	ColorBearish = lipgloss.Color("#ef4444")
	ColorMixed   = lipgloss.Color("#d97706")
)

// UI chrome colors.
var (
	ColorBorder   = lipgloss.Color("#4b5563")
	ColorDimmed   = lipgloss.Color("#6b7280")
	ColorBright   = lipgloss.Color("#f9fafb")
	ColorAccent   = lipgloss.Color("#a855f7")
	ColorBadge    = lipgloss.Color("#dc2626")
	ColorWarning  = lipgloss.Color("#d97706")
	ColorDanger   = lipgloss.Color("#dc2626")
	ColorHealthy  = lipgloss.Color("#22c55e")
	ColorSelected = lipgloss.Color("#2563eb")
)

// PresenceDot returns the colored dot next to a friend's name.
func PresenceDot(online bool) string {
	if online {
		return lipgloss.NewStyle().Foreground(ColorOnline).Render("●")
	}
	return lipgloss.NewStyle().Foreground(ColorOffline).Render("○")
}

// UnreadBadge renders an unread-count badge, or empty for zero.
func UnreadBadge(n int) string {
	if n <= 0 {
		return ""
	}
	label := "●"
	if n < 100 {
		label = strconv.Itoa(n)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(ColorBadge).Render("(" + label + ")")
}

// PnLColor returns the color for a signed profit-and-loss value.
func PnLColor(v float64) lipgloss.Color {
	switch {
	case v > 0:
		return ColorProfit
	case v < 0:
		return ColorLoss
	default:
		return ColorNeutral
	}
}

// SentimentColor returns the color for a sentiment label.
func SentimentColor(label string) lipgloss.Color {
	switch label {
	case "positive", "bullish":
		return ColorBullish
	case "negative", "bearish":
		return ColorBearish
	case "mixed":
		return ColorMixed
	default:
		return ColorNeutral
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright).
			Background(ColorSelected)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StyleAccent = lipgloss.NewStyle().
			Foreground(ColorAccent)
)

// TickGlyph returns the delivery indicator glyph and its style color.
func TickGlyph(seen, recipientOnline bool) string {
	switch {
	case seen:
		return lipgloss.NewStyle().Foreground(ColorTickSeen).Render("✓✓")
	case recipientOnline:
		return lipgloss.NewStyle().Foreground(ColorTickDelivered).Render("✓✓")
	default:
		return lipgloss.NewStyle().Foreground(ColorTickSent).Render("✓")
	}
}
