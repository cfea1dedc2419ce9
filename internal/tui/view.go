package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/morph/internal/core/history"
)

// ViewType represents which view is active.
type ViewType int

const (
	ViewRecent ViewType = iota
	ViewTopSites
)

func (v ViewType) String() string {
	switch v {
	case ViewRecent:
		return "Recent"
	case ViewTopSites:
		return "Top sites"
	default:
		return "unknown"
	}
}

// Lines taken by everything but the rows: banner (4), tab bar (1), search
// (2), status (1), help (1).
const chromeHeight = 9

// View renders the browser.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.modal.Visible() {
		return m.modal.Render(m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(bannerStyle.Render(banner))
	b.WriteString("\n")
	b.WriteString(m.tabBar())
	b.WriteString("\n\n")
	b.WriteString(" " + m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.rowsView())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) tabBar() string {
	tabs := make([]string, 0, 2)
	for _, v := range []ViewType{ViewRecent, ViewTopSites} {
		if v == m.activeView {
			tabs = append(tabs, tabActiveStyle.Render(v.String()))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(v.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// window returns the half-open range of rows that fit on screen around the
// cursor. Each row takes two lines.
func (m Model) window(n int) (int, int) {
	if m.height <= 0 {
		return 0, n
	}

	size := max((m.height-chromeHeight)/2, 1)
	if n <= size {
		return 0, n
	}

	start := m.cursor - size/2
	start = max(start, 0)
	start = min(start, n-size)
	return start, start + size
}

func (m Model) rowsView() string {
	rows := m.Rows()
	if len(rows) == 0 {
		if len(m.panes[m.activeView].search.Terms()) > 0 {
			return emptyStyle.Render("no matching pages")
		}
		return emptyStyle.Render("no history")
	}

	start, end := m.window(len(rows))
	lines := make([]string, 0, (end-start)*2)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(rows[i], i == m.cursor)...)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(e history.Entry, selected bool) []string {
	title := e.Title
	if title == "" {
		title = e.URL
	}

	gutter := "  "
	titleStyle := normalStyle
	if selected {
		gutter = selectedBorderStyle.Render(iconBar) + " "
		titleStyle = selectedStyle
	}

	head := gutter + titleStyle.Render(title)
	if e.Domain != "" {
		head += " " + domainStyle.Render(e.Domain)
	}
	if m.activeView == ViewTopSites {
		head += " " + visitsStyle.Render(fmt.Sprintf("%d visits", e.Visits))
	}

	sub := "  "
	if selected {
		sub = selectedBorderStyle.Render(iconBar) + " "
	}
	sub += urlStyle.Render(e.URL)

	return []string{head, sub}
}

func (m Model) statusLine() string {
	table := m.panes[m.activeView].rows()
	counts := fmt.Sprintf("%d of %d", table.Count(), table.UnlimitedCount())
	switch {
	case m.err != nil:
		return errorStyle.Render(counts + " " + iconDot + " " + m.status)
	case m.status != "":
		return statusStyle.Render(counts + " " + iconDot + " " + m.status)
	default:
		return statusStyle.Render(counts)
	}
}
