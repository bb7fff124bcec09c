package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logbook/internal/shell"
)

// renderContent renders the active screen with the filter panel beside it.
func (m Model) renderContent() string {
	var main string
	switch m.core.Screen() {
	case shell.ScreenHome:
		main = m.renderHome()
	case shell.ScreenDays:
		main = m.renderDays()
	case shell.ScreenLogs:
		main = m.renderLogs()
	case shell.ScreenManageRepositories:
		main = m.renderManageRepositories()
	case shell.ScreenManageFilters:
		main = m.renderManageFilters()
	}
	if !m.filterPanelShown() {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, main, m.renderFilterPanel())
}

// renderBox draws a rounded border with a title line.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	border := m.theme.Border
	if focused {
		border = m.theme.BorderFocus
	}
	styles := m.theme.Styles()
	heading := styles.AccentText.Bold(true).Render(truncate(title, max(width-4, 1)))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(max(width-2, 1)).
		Height(max(height-2, 1)).
		MaxHeight(height).
		Render(heading + "\n" + content)
}

// renderList renders names with the cursor row highlighted.
func (m Model) renderList(names []string, cursor int, focused bool, empty string) string {
	styles := m.theme.Styles()
	if len(names) == 0 {
		return styles.MutedText.Render(empty)
	}
	lines := make([]string, len(names))
	for i, name := range names {
		switch {
		case i == cursor && focused:
			lines[i] = styles.Selected.Render("▸ " + name)
		case i == cursor:
			lines[i] = styles.AccentText.Render("▸ " + name)
		default:
			lines[i] = styles.Text.Render("  " + name)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHome() string {
	menu := m.core.RepositoryMenu()
	names := make([]string, len(menu))
	for i, item := range menu {
		names[i] = item.Name
	}
	list := m.renderList(names, m.homeCursor, m.focus == paneMain, "No repositories available")
	return m.renderBox("Repositories", list, m.mainWidth(), m.contentHeight(), m.focus == paneMain)
}

func (m Model) renderDays() string {
	view := m.core.Days()
	names := make([]string, len(view.Days))
	for i, d := range view.Days {
		names[i] = d.Format("Mon 2006-01-02")
	}
	title := "Days"
	if view.Plugin != nil {
		title = view.Plugin.RepositoryName()
	}
	list := m.renderList(names, m.daysCursor, true, "No days with data")
	return m.renderBox(title, list, m.mainWidth(), m.contentHeight(), true)
}

func (m Model) renderFilterPanel() string {
	menu := m.core.FilterMenu()
	names := make([]string, len(menu))
	for i, item := range menu {
		names[i] = truncate(item.Name, FilterPanelWidth-6)
	}
	focused := m.focus == paneFilters
	list := m.renderList(names, m.filterCursor, focused, "No filters")
	return m.renderBox("Filters", list, FilterPanelWidth, m.contentHeight(), focused)
}

func (m Model) renderManageRepositories() string {
	entries := m.core.RepositoryEntries()
	width := m.mainWidth()
	lines := make([]string, len(entries))
	for i, e := range entries {
		state := "✓"
		if !e.Available {
			state = "✗"
		}
		r := e.Repository
		lines[i] = fmt.Sprintf("%s %-4d %-20s %-8s %s",
			state, r.ID, truncate(r.Name, 20), r.PluginID, truncateMiddle(r.Connection, max(width-44, 10)))
	}
	header := fmt.Sprintf("  %-4s %-20s %-8s %s", "ID", "Name", "Plugin", "Connection")
	return m.renderBox("Repositories", m.renderTable(header, lines), width, m.contentHeight(), true)
}

func (m Model) renderManageFilters() string {
	entries := m.core.FilterEntries()
	width := m.mainWidth()
	lines := make([]string, len(entries))
	for i, e := range entries {
		d := e.Definition
		name := d.Name
		if !d.HasName() {
			name = "-"
		}
		lines[i] = fmt.Sprintf("%-4d %-5d %-20s %s", d.ID, d.Order, truncate(name, 20), truncate(e.Description, max(width-38, 10)))
	}
	header := fmt.Sprintf("%-4s %-5s %-20s %s", "ID", "Order", "Name", "Description")
	return m.renderBox("Filters", m.renderTable(header, lines), width, m.contentHeight(), true)
}

func (m Model) renderTable(header string, lines []string) string {
	styles := m.theme.Styles()
	if len(lines) == 0 {
		return styles.MutedText.Render("Nothing configured")
	}
	var b strings.Builder
	b.WriteString(styles.FaintText.Render(header))
	for i, line := range lines {
		b.WriteString("\n")
		if i == m.manageCursor {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
	}
	return b.String()
}
