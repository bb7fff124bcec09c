package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logbook/internal/shell"
)

// renderHeader renders the top bar: logo, location and activity.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("logbook", styles.Logo)}

	switch m.core.Screen() {
	case shell.ScreenDays:
		if p := m.core.Days().Plugin; p != nil {
			parts = append(parts, bg.Render(p.RepositoryName(), styles.Text))
		}
	case shell.ScreenLogs:
		view := m.core.Logs()
		parts = append(parts,
			bg.Render(view.Repository, styles.Text),
			bg.Render(view.Day.Format("2006-01-02"), styles.MutedText))
		if view.HasFile && !compact {
			parts = append(parts, bg.Render(truncateMiddle(view.File, 50), styles.FaintText))
		}
		if view.Tailing {
			parts = append(parts, bg.Render("● LIVE", styles.SuccessText))
		}
	case shell.ScreenManageRepositories:
		parts = append(parts, bg.Render("Repositories", styles.Text))
	case shell.ScreenManageFilters:
		parts = append(parts, bg.Render("Filters", styles.Text))
	}

	if m.busy != nil && m.busy.Active() {
		parts = append(parts, bg.Render(m.spinner.View(), styles.WarningText)+bg.Space()+bg.Render("Loading", styles.WarningText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar lists the keys relevant to the active screen.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type command struct{ key, desc string }
	var commands []command

	switch m.core.Screen() {
	case shell.ScreenHome:
		commands = []command{{"enter", "Open"}, {"j/k", "Navigate"}, {"R", "Repositories"}, {"M", "Filters"}, {"r", "Reload"}}
	case shell.ScreenDays:
		commands = []command{{"enter", "Open day"}, {"j/k", "Navigate"}, {"esc", "Home"}}
	case shell.ScreenLogs:
		tail := "Live"
		if m.core.Logs().Tailing {
			tail = "Pause"
		}
		commands = []command{{"Space", tail}, {"/", "Search"}, {"n/N", "Next/Prev"}, {"x", "Clear filter"}, {"esc", "Days"}}
	default:
		commands = []command{{"j/k", "Navigate"}, {"esc", "Home"}}
	}
	if m.core.Screen() == shell.ScreenHome || m.core.Screen() == shell.ScreenLogs {
		commands = append(commands, command{"F", "Filters panel"}, command{"tab", "Focus"})
	}
	commands = append(commands, command{"?", "More"})

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		if m.width < LayoutCompactWidth {
			segments = append(segments, bg.Render(c.key, styles.AccentText))
			continue
		}
		segments = append(segments, bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	if m.core.Screen() == shell.ScreenLogs && m.search.query != "" {
		segments = append(segments, bg.Render("/"+truncate(m.search.query, 18), styles.AccentText))
	}
	segments = append(segments, bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderStatus renders the bottom line: the last error, or counters.
func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	if err := m.core.LastError(); err != nil {
		return styles.DangerText.Render(truncate("✗ "+err.Error(), m.width))
	}

	var text string
	switch m.core.Screen() {
	case shell.ScreenLogs:
		shown := len(m.core.Logs().Rows)
		total := len(m.core.CachedRows())
		text = fmt.Sprintf("%d of %d rows", shown, total)
		if m.search.re != nil {
			if n := len(m.search.matches); n > 0 {
				text += fmt.Sprintf(" · match %d/%d", m.search.idx+1, n)
			} else {
				text += " · pattern not found"
			}
		}
	case shell.ScreenDays:
		text = fmt.Sprintf("%d days", len(m.core.Days().Days))
	case shell.ScreenHome:
		text = fmt.Sprintf("%d repositories · %d filters", len(m.core.RepositoryMenu()), len(m.core.FilterMenu()))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Render(text)
}
