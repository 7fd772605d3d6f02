// Package render turns the session's read-only query surface into text: a
// tab bar and an outline of a tab's pane tree.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/javanhut/raven-session/tab"
)

// DefaultMaxTitleWidth is the display width titles are truncated to.
const DefaultMaxTitleWidth = 24

const bellMarker = "*"

// TabBar renders the list of tabs on one line.
type TabBar struct {
	theme         Theme
	maxTitleWidth int
	active        lipgloss.Style
	inactive      lipgloss.Style
	bell          lipgloss.Style
	header        lipgloss.Style
}

// NewTabBar creates a tab bar using theme.
func NewTabBar(theme Theme) *TabBar {
	return &TabBar{
		theme:         theme,
		maxTitleWidth: DefaultMaxTitleWidth,
		active: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.TabBar).
			Background(theme.TabActive),
		inactive: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.TabBar),
		bell:   lipgloss.NewStyle().Foreground(theme.Bell).Bold(true),
		header: lipgloss.NewStyle().Foreground(theme.Muted),
	}
}

// SetMaxTitleWidth changes the title truncation width. Values below 1 are
// ignored.
func (b *TabBar) SetMaxTitleWidth(w int) {
	if w > 0 {
		b.maxTitleWidth = w
	}
}

// Render draws the bar. width limits the total display width when positive.
func (b *TabBar) Render(tabs []tab.TabInfo, active, width int) string {
	parts := []string{b.header.Render(Header(len(tabs), active))}
	for i, label := range Labels(tabs, active, b.maxTitleWidth) {
		style := b.inactive
		if i == active {
			style = b.active
		}
		rendered := style.Render(label)
		if tabs[i].HasUnseenBell {
			rendered += b.bell.Render(bellMarker)
		}
		parts = append(parts, rendered)
	}
	bar := strings.Join(parts, " ")
	if width > 0 && lipgloss.Width(bar) > width {
		bar = lipgloss.NewStyle().MaxWidth(width).Render(bar)
	}
	return bar
}

// Header returns the "RT active/total" counter shown before the tabs.
func Header(total, active int) string {
	if total == 0 {
		return "RT 0/0"
	}
	return fmt.Sprintf("RT %d/%d", active+1, total)
}

// Labels returns the unstyled label of every tab: position, title and the
// pane count when the tab is split.
func Labels(tabs []tab.TabInfo, active, maxTitleWidth int) []string {
	labels := make([]string, 0, len(tabs))
	for i, t := range tabs {
		prefix := " "
		if i == active {
			prefix = ">"
		}
		label := fmt.Sprintf("%s%d:%s", prefix, i+1, Truncate(t.Title, maxTitleWidth))
		if t.PaneCount > 1 {
			label += fmt.Sprintf(" [%d]", t.PaneCount)
		}
		labels = append(labels, label+" ")
	}
	return labels
}

// Truncate shortens s to at most width display cells, marking the cut with
// an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
