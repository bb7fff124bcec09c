package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/logbook/internal/events"
	"github.com/five82/logbook/internal/logging"
	"github.com/five82/logbook/internal/prefs"
	"github.com/five82/logbook/internal/shell"
)

// pane is the keyboard focus.
type pane int

const (
	paneMain pane = iota
	paneFilters
)

// Busy reports outstanding background work. Implemented by
// *notify.Indicator.
type Busy interface {
	Active() bool
}

// Publisher sends application events. Implemented by *events.Bus.
type Publisher interface {
	Publish(ev events.Event)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Shell     *shell.Orchestrator
	Busy      Busy
	Events    Publisher
	ThemeName string
	PrefsPath string
	Log       *logrus.Entry
}

// Model is the root Bubble Tea model. Screen state lives in the
// orchestrator; the model keeps cursors, scroll positions and search.
type Model struct {
	core      *shell.Orchestrator
	busy      Busy
	events    Publisher
	prefsPath string
	log       *logrus.Entry
	keys      keyMap

	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	focus    pane
	spinner  spinner.Model

	homeCursor   int
	daysCursor   int
	filterCursor int
	manageCursor int

	logViewport viewport.Model
	logLines    []string
	follow      bool
	search      searchState
}

// New creates the root model.
func New(opts Options) Model {
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	log := opts.Log
	if log == nil {
		log = logging.Component(nil, "ui")
	}

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{Frames: spinner.MiniDot.Frames, FPS: SpinnerInterval}

	return Model{
		core:      opts.Shell,
		busy:      opts.Busy,
		events:    opts.Events,
		prefsPath: prefsPath,
		log:       log,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(themeName),
		spinner:   sp,
		follow:    true,
		search:    newSearchState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.core.Init(), m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if handled, cmd := m.core.Update(msg); handled {
		m.clampCursors()
		m.syncLogs()
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogViewport()
		m.syncLogs()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.search.active {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs(m.core.FilterVisible())
		m.syncLogs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleFilter):
		visible := !m.core.FilterVisible()
		m.publish(events.Event{Kind: events.FilterVisibility, Payload: visible})
		if !visible {
			m.focus = paneMain
		}
		m.savePrefs(visible)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.publish(events.Event{Kind: events.RefreshMenus})
		return m, nil

	case key.Matches(msg, m.keys.ManageRepositories):
		m.core.ManageRepositories()
		m.focus = paneMain
		m.manageCursor = 0
		return m, nil

	case key.Matches(msg, m.keys.ManageFilters):
		m.core.ManageFilters()
		m.focus = paneMain
		m.manageCursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.core.Screen() == shell.ScreenLogs && m.search.re != nil {
			m.clearSearch()
			m.syncLogs()
			return m, nil
		}
		m.focus = paneMain
		cmd := m.core.Back()
		m.syncLogs()
		return m, cmd

	case key.Matches(msg, m.keys.Focus):
		if m.filterPanelShown() && m.focus == paneMain {
			m.focus = paneFilters
		} else {
			m.focus = paneMain
		}
		return m, nil
	}

	if m.focus == paneFilters && m.filterPanelShown() {
		return m.handleFilterKey(msg)
	}

	switch m.core.Screen() {
	case shell.ScreenHome:
		return m.handleHomeKey(msg)
	case shell.ScreenDays:
		return m.handleDaysKey(msg)
	case shell.ScreenLogs:
		return m.handleLogsKey(msg)
	case shell.ScreenManageRepositories, shell.ScreenManageFilters:
		return m.handleManageKey(msg)
	}
	return m, nil
}

func (m *Model) publish(ev events.Event) {
	if m.events == nil {
		return
	}
	m.events.Publish(ev)
}

func (m *Model) savePrefs(filterPanel bool) {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, FilterPanel: filterPanel}); err != nil {
		m.log.WithError(err).Warn("saving preferences failed")
	}
}

// filterPanelShown reports whether the filter panel is on screen.
func (m Model) filterPanelShown() bool {
	if !m.core.FilterVisible() {
		return false
	}
	s := m.core.Screen()
	return s == shell.ScreenHome || s == shell.ScreenLogs
}

// moveCursor applies a navigation key to cursor over n items.
func (m Model) moveCursor(msg tea.KeyMsg, cursor, n int) int {
	if n == 0 {
		return 0
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		cursor++
	case key.Matches(msg, m.keys.Up):
		cursor--
	case key.Matches(msg, m.keys.Top):
		cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		cursor = n - 1
	}
	return min(max(cursor, 0), n-1)
}

func (m *Model) clampCursors() {
	clamp := func(c, n int) int { return min(max(c, 0), max(n-1, 0)) }
	m.homeCursor = clamp(m.homeCursor, len(m.core.RepositoryMenu()))
	m.filterCursor = clamp(m.filterCursor, len(m.core.FilterMenu()))
	m.daysCursor = clamp(m.daysCursor, len(m.core.Days().Days))
	if !m.filterPanelShown() {
		m.focus = paneMain
	}
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	menu := m.core.RepositoryMenu()
	if key.Matches(msg, m.keys.Select) {
		if m.homeCursor >= len(menu) {
			return m, nil
		}
		m.daysCursor = 0
		return m, menu[m.homeCursor].Action()
	}
	m.homeCursor = m.moveCursor(msg, m.homeCursor, len(menu))
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	menu := m.core.FilterMenu()
	switch {
	case key.Matches(msg, m.keys.Select):
		if m.filterCursor >= len(menu) {
			return m, nil
		}
		cmd := menu[m.filterCursor].Action()
		m.syncLogs()
		return m, cmd
	case key.Matches(msg, m.keys.ClearFilter):
		m.core.ClearFilter()
		m.syncLogs()
		return m, nil
	}
	m.filterCursor = m.moveCursor(msg, m.filterCursor, len(menu))
	return m, nil
}

func (m Model) handleDaysKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.core.Days()
	if key.Matches(msg, m.keys.Select) {
		if m.daysCursor >= len(view.Days) {
			return m, nil
		}
		m.follow = true
		m.clearSearch()
		return m, m.core.LoadLogs(view.Plugin, view.Days[m.daysCursor])
	}
	m.daysCursor = m.moveCursor(msg, m.daysCursor, len(view.Days))
	return m, nil
}

func (m Model) handleManageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.core.FilterEntries())
	if m.core.Screen() == shell.ScreenManageRepositories {
		n = len(m.core.RepositoryEntries())
	}
	m.manageCursor = m.moveCursor(msg, m.manageCursor, n)
	return m, nil
}

// renderMain renders header, command bar, content and status line.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
