// Package news shows sentiment-scored market headlines, rendered as
// markdown. The last fetch is cached on disk so the screen has content
// before the refresh lands.
package news

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/statefile"
	"github.com/investerm/investerm/internal/theme"
)

const cacheFileName = "news_cache.json"

// LoadedMsg is returned after fetching headlines.
type LoadedMsg struct {
	Items []client.NewsItem
	Err   error
}

// cacheRecord is the on-disk shape of the headline cache.
type cacheRecord struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Items     []client.NewsItem `json:"items"`
}

// KeyMap holds the news key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
}

// DefaultKeyMap returns the default news key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
	}
}

// Model is the news screen model.
type Model struct {
	http      *client.HTTPClient
	keys      KeyMap
	cachePath string

	items     []client.NewsItem
	fetchedAt time.Time
	rendered  []string // rendered lines, scrolled by offset
	offset    int

	loading bool
	errMsg  string
	width   int
	height  int
}

// New creates a news model, primed from the cache when one exists.
// An empty dir disables caching.
func New(http *client.HTTPClient, dir string) Model {
	m := Model{http: http, keys: DefaultKeyMap(), loading: true}
	if dir == "" {
		return m
	}
	m.cachePath = filepath.Join(dir, cacheFileName)

	var rec cacheRecord
	if err := statefile.Load(m.cachePath, &rec); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("news: discarding cache: %v", err)
		}
		return m
	}
	m.items = rec.Items
	m.fetchedAt = rec.FetchedAt
	return m
}

// Init fetches fresh headlines.
func (m Model) Init() tea.Cmd {
	return fetchNews(m.http)
}

// SetSize updates the rendering area and re-renders the markdown.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.rendered = nil
}

// Update handles messages for the news screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			// Keep showing cached headlines on a failed refresh.
			if len(m.items) == 0 {
				m.errMsg = msg.Err.Error()
			}
			return m, nil
		}
		m.errMsg = ""
		m.items = msg.Items
		m.fetchedAt = time.Now()
		m.rendered = nil
		m.offset = 0
		m.saveCache()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.offset > 0 {
				m.offset--
			}
		case key.Matches(msg, m.keys.Down):
			m.offset++
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, fetchNews(m.http)
		}
	}
	return m, nil
}

func (m *Model) saveCache() {
	if m.cachePath == "" {
		return
	}
	rec := cacheRecord{FetchedAt: m.fetchedAt, Items: m.items}
	if err := statefile.Save(m.cachePath, &rec); err != nil {
		log.Printf("news: saving cache: %v", err)
	}
}

// View renders the news screen.
func (m Model) View() string {
	header := theme.StyleHeader.Render(" MARKET NEWS ")
	if !m.fetchedAt.IsZero() {
		header += "  " + theme.StyleDimmed.Render("as of "+m.fetchedAt.Format("15:04"))
	}
	if m.loading {
		header += "  " + theme.StyleDimmed.Render("refreshing...")
	}

	if m.errMsg != "" && len(m.items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "",
			theme.StyleError.Render("  "+m.errMsg))
	}
	if len(m.items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "",
			theme.StyleDimmed.Render("  No headlines yet."))
	}

	lines := m.renderedLines()
	visible := m.height - 5
	if visible < 3 {
		visible = 3
	}
	maxOffset := len(lines) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	offset := m.offset
	if offset > maxOffset {
		offset = maxOffset
	}
	end := offset + visible
	if end > len(lines) {
		end = len(lines)
	}

	body := strings.Join(lines[offset:end], "\n")
	help := theme.StyleDimmed.Render("  j/k: scroll  R: refresh")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m Model) renderedLines() []string {
	if m.rendered != nil {
		return m.rendered
	}

	var md strings.Builder
	for _, item := range m.items {
		fmt.Fprintf(&md, "## %s\n\n", item.Title)
		if item.Summary != "" {
			fmt.Fprintf(&md, "%s\n\n", item.Summary)
		}
		fmt.Fprintf(&md, "*%s*\n\n", item.Source)
	}

	width := m.width - 4
	if width < 40 {
		width = 40
	}
	out := md.String()
	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	); err == nil {
		if styled, err := r.Render(md.String()); err == nil {
			out = styled
		}
	}

	// Interleave sentiment tags per headline above the rendered block.
	var tags []string
	for _, item := range m.items {
		tags = append(tags, "  "+sentimentTag(item.Sentiment))
	}
	lines := strings.Split(out, "\n")
	return append(tags[:0:0], append(tags, lines...)...)
}

// sentimentTag renders a colored score label for a headline.
func sentimentTag(score float64) string {
	label := "neutral"
	switch {
	case score >= 0.25:
		label = "bullish"
	case score <= -0.25:
		label = "bearish"
	case score != 0:
		label = "mixed"
	}
	return lipgloss.NewStyle().Foreground(theme.SentimentColor(label)).Render(
		fmt.Sprintf("%s %+.2f", label, score))
}

func fetchNews(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		items, err := h.NewsSentiment()
		return LoadedMsg{Items: items, Err: err}
	}
}
