package ui

import (
	"regexp"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// searchState is the incremental search over the displayed rows.
type searchState struct {
	active  bool
	input   textinput.Model
	query   string
	re      *regexp.Regexp
	matches []int // line indices
	idx     int
}

func newSearchState() searchState {
	ti := textinput.New()
	ti.Placeholder = "Search rows..."
	ti.CharLimit = 100
	ti.Prompt = "/"
	return searchState{input: ti}
}

func (m *Model) startSearch() {
	m.search.active = true
	m.search.input.SetValue("")
	m.search.input.Focus()
}

// handleSearchInput handles keys while the search prompt is open.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		query := m.search.input.Value()
		m.search.active = false
		m.search.input.Blur()
		if query == "" {
			return m, nil
		}
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
		}
		m.search.re = re
		m.search.query = query
		m.search.idx = 0
		m.syncLogs()
		m.scrollToMatch()
		return m, nil

	case msg.Type == tea.KeyEsc:
		m.search.active = false
		m.search.input.Blur()
		m.search.input.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	return m, cmd
}

func (m *Model) clearSearch() {
	m.search.re = nil
	m.search.query = ""
	m.search.matches = nil
	m.search.idx = 0
}

// findMatches recomputes match positions over lines.
func (m *Model) findMatches(lines []string) {
	m.search.matches = nil
	if m.search.re == nil {
		return
	}
	for i, line := range lines {
		if m.search.re.MatchString(line) {
			m.search.matches = append(m.search.matches, i)
		}
	}
	if m.search.idx >= len(m.search.matches) {
		m.search.idx = 0
	}
}

func (m *Model) nextMatch() {
	if len(m.search.matches) == 0 {
		return
	}
	m.search.idx = (m.search.idx + 1) % len(m.search.matches)
	m.syncLogs()
	m.scrollToMatch()
}

func (m *Model) previousMatch() {
	if len(m.search.matches) == 0 {
		return
	}
	m.search.idx = (m.search.idx - 1 + len(m.search.matches)) % len(m.search.matches)
	m.syncLogs()
	m.scrollToMatch()
}

// scrollToMatch centres the current match and stops following.
func (m *Model) scrollToMatch() {
	if len(m.search.matches) == 0 || m.search.idx >= len(m.search.matches) {
		return
	}
	m.follow = false
	target := m.search.matches[m.search.idx]
	m.logViewport.SetYOffset(max(target-m.logViewport.Height/2, 0))
}

// activeMatch returns the line of the current match, -1 when none.
func (m Model) activeMatch() int {
	if len(m.search.matches) == 0 || m.search.idx >= len(m.search.matches) {
		return -1
	}
	return m.search.matches[m.search.idx]
}
