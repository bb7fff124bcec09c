package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/shell"
)

// mainWidth is the width left for the main content.
func (m Model) mainWidth() int {
	if m.filterPanelShown() {
		return max(m.width-FilterPanelWidth, 20)
	}
	return m.width
}

// contentHeight is the height of the boxed content area.
func (m Model) contentHeight() int {
	return max(m.height-chromeHeight, 5)
}

func (m *Model) resizeLogViewport() {
	// Box border (2) and title line (1).
	w := max(m.mainWidth()-2, 10)
	h := max(m.contentHeight()-3, 1)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(w, h)
		return
	}
	m.logViewport.Width = w
	m.logViewport.Height = h
}

// syncLogs re-renders the logs viewport from the orchestrator's rows.
func (m *Model) syncLogs() {
	if !m.ready || m.core.Screen() != shell.ScreenLogs {
		return
	}
	m.resizeLogViewport()
	view := m.core.Logs()
	plain, styled := m.renderRows(view)
	m.logLines = plain
	m.findMatches(plain)
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.decorate(plain, styled))
	if m.follow {
		m.logViewport.GotoBottom()
	}
}

// renderRows returns the plain and styled lines of the rows, one slice entry
// per screen line.
func (m Model) renderRows(view shell.LogsView) (plain, styled []string) {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	for _, row := range view.Rows {
		lines := formatRows([]model.LogRow{row}, view.ShowThreadID, view.ShowLogger)
		if len(lines) == 0 {
			continue
		}
		plain = append(plain, lines...)
		styled = append(styled, m.styleRow(row, view, styles, bg))
		for _, cont := range lines[1:] {
			styled = append(styled, bg.Render(cont, styles.MutedText))
		}
	}
	return plain, styled
}

func (m Model) styleRow(row model.LogRow, view shell.LogsView, styles Styles, bg BgStyle) string {
	c := columnsOf(row, view.ShowThreadID, view.ShowLogger)
	parts := []string{
		bg.Render(c.Time, styles.FaintText),
		bg.Render(c.Level, styles.LevelStyle(row.Level)),
	}
	if c.Thread != "" {
		parts = append(parts, bg.Render(c.Thread, styles.MutedText))
	}
	if c.Logger != "" {
		parts = append(parts, bg.Render(c.Logger, styles.AccentText))
	}
	line := strings.Join(parts, bg.Space())
	if msg, _, _ := strings.Cut(c.Message, "\n"); msg != "" {
		line += bg.Render(" - ", styles.FaintText) + bg.Render(msg, styles.Text)
	}
	return line
}

// decorate prefixes line numbers and highlights search matches.
func (m Model) decorate(plain, styled []string) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	if len(plain) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	matched := make(map[int]bool, len(m.search.matches))
	for _, i := range m.search.matches {
		matched[i] = true
	}
	active := m.activeMatch()

	var b strings.Builder
	for i := range plain {
		number := fmt.Sprintf("%5d │ ", i+1)
		var line string
		switch {
		case i == active:
			hl := lipgloss.NewStyle().
				Background(lipgloss.Color(m.theme.Warning)).
				Foreground(lipgloss.Color(m.theme.Background))
			line = hl.Render(number + plain[i])
		case matched[i]:
			line = bg.Render(number, styles.AccentText) + bg.Render(plain[i], styles.AccentText)
		default:
			line = bg.Render(number, styles.FaintText) + styled[i]
		}
		b.WriteString(bg.FillLine(line, width))
		if i < len(plain)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// handleLogsKey processes keyboard input on the logs screen.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleTail):
		cmd := m.core.ToggleTail()
		if m.core.Logs().Tailing {
			m.follow = true
			m.logViewport.GotoBottom()
		}
		return m, cmd

	case key.Matches(msg, m.keys.ClearFilter):
		m.core.ClearFilter()
		m.syncLogs()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.startSearch()
		return m, nil

	case key.Matches(msg, m.keys.NextMatch):
		m.nextMatch()
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.previousMatch()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.follow = false

	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.follow = true

	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.follow = m.logViewport.AtBottom()

	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
		m.follow = false

	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
		m.follow = m.logViewport.AtBottom()

	case key.Matches(msg, m.keys.HalfPageUp):
		m.logViewport.HalfPageUp()
		m.follow = false

	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
		m.follow = m.logViewport.AtBottom()

	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.PageUp()
		m.follow = false
	}
	return m, nil
}

// renderLogs renders the logs screen box.
func (m Model) renderLogs() string {
	view := m.core.Logs()
	title := fmt.Sprintf("%s · %s", view.Repository, view.Day.Format("Mon 2006-01-02"))
	if view.Filter != nil {
		title += fmt.Sprintf(" · filter %d", view.Filter.ID())
	}
	content := m.logViewport.View()
	if m.search.active {
		content = m.search.input.View() + "\n" + content
	}
	return m.renderBox(title, content, m.mainWidth(), m.contentHeight(), m.focus == paneMain)
}
