package shell

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/events"
	"github.com/five82/logbook/internal/filter"
	"github.com/five82/logbook/internal/logging"
	"github.com/five82/logbook/internal/metrics"
	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/notify"
	"github.com/five82/logbook/internal/plugin"
	"github.com/five82/logbook/internal/state"
)

// Screen is the view currently activated.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenDays
	ScreenLogs
	ScreenManageRepositories
	ScreenManageFilters
)

func (s Screen) String() string {
	switch s {
	case ScreenHome:
		return "home"
	case ScreenDays:
		return "days"
	case ScreenLogs:
		return "logs"
	case ScreenManageRepositories:
		return "manage_repositories"
	case ScreenManageFilters:
		return "manage_filters"
	default:
		return "unknown"
	}
}

// ConfigurationManager provides settings and the filter manager built from
// them. Implemented by *config.Manager.
type ConfigurationManager interface {
	Get() config.AppSettings
	BuildFilterManager() *filter.Manager
}

// PluginRegistry lists available plugins and builds instances. Implemented
// by *plugin.Registry.
type PluginRegistry interface {
	PluginsInfo() []plugin.Descriptor
	Build(repo config.Repository) (plugin.Plugin, error)
}

// Translator describes unnamed filters. Implemented by *filter.Translator.
type Translator interface {
	Translate(def filter.Definition) string
}

// Waiter hands out busy handles. Implemented by *notify.Indicator.
type Waiter interface {
	NotifyWait() *notify.Handle
}

// EventSource is the event channel. Implemented by *events.Bus.
type EventSource interface {
	Subscribe() <-chan events.Event
}

// Recorder receives operation outcomes. Implemented by *metrics.Recorder.
type Recorder interface {
	Observe(op, outcome string, elapsed time.Duration)
}

// Outcome labels passed to Recorder.
const (
	outcomeSuccess  = metrics.OutcomeSuccess
	outcomeFailure  = metrics.OutcomeFailure
	outcomePanic    = metrics.OutcomePanic
	outcomeCanceled = metrics.OutcomeCanceled
	outcomeStale    = metrics.OutcomeStale
)

type nopRecorder struct{}

func (nopRecorder) Observe(string, string, time.Duration) {}

// Deps are the collaborators of an Orchestrator. Config, Registry,
// Translator, Waiter and Events are required.
type Deps struct {
	Config     ConfigurationManager
	Registry   PluginRegistry
	Translator Translator
	Waiter     Waiter
	Events     EventSource
	Metrics    Recorder
	Log        *logrus.Entry
	// FilterVisible is the initial state of the filter panel.
	FilterVisible bool
}

// MenuItem is one entry of the repository or filter menu.
type MenuItem struct {
	Name   string
	Action func() tea.Cmd
}

// DaysView is the days screen: the days a repository has data for and the
// plugin that produced them.
type DaysView struct {
	Days   []time.Time
	Plugin plugin.Plugin
}

// LogsView is the logs screen.
type LogsView struct {
	Repository   string
	Day          time.Time
	File         string
	HasFile      bool
	ShowLogger   bool
	ShowThreadID bool
	Rows         []model.LogRow
	Filter       *filter.Composite
	Listener     plugin.Listener
	Plugin       plugin.Plugin
	Tailing      bool
	GoBack       func() tea.Cmd
}

type opState struct {
	gen    uint64
	cancel context.CancelFunc
}

type tailState struct {
	gen    uint64
	cancel context.CancelFunc
	active bool
	rows   <-chan []model.LogRow
}

// Orchestrator drives the Load/Cache/Activate pipeline. All methods except
// the returned commands must be called from the Update loop.
type Orchestrator struct {
	cfg        ConfigurationManager
	registry   PluginRegistry
	translator Translator
	waiter     Waiter
	metrics    Recorder
	log        *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	screen        Screen
	days          DaysView
	logs          LogsView
	cache         state.LogCache
	repoMenu      []MenuItem
	filterMenu    []MenuItem
	filterVisible bool
	lastErr       error

	ops    [opCount]opState
	tail   tailState
	events <-chan events.Event
}

// New builds an orchestrator and subscribes it to the event source. Close
// cancels everything it started.
func New(d Deps) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:           d.Config,
		registry:      d.Registry,
		translator:    d.Translator,
		waiter:        d.Waiter,
		metrics:       d.Metrics,
		log:           d.Log,
		ctx:           ctx,
		cancel:        cancel,
		filterVisible: d.FilterVisible,
	}
	if o.metrics == nil {
		o.metrics = nopRecorder{}
	}
	if o.log == nil {
		o.log = logging.Component(nil, "shell")
	}
	if d.Events != nil {
		o.events = d.Events.Subscribe()
	}
	return o
}

// Init starts listening for events and loads the menus.
func (o *Orchestrator) Init() tea.Cmd {
	return tea.Batch(o.waitForEvent(), o.LoadMenus())
}

// Close cancels in-flight operations and the live tail, and releases the
// current plugin.
func (o *Orchestrator) Close() {
	o.stopTail()
	o.cancel()
	closePlugin(o.days.Plugin, o.log)
}

// Update applies orchestrator messages. handled is false for messages that
// belong to someone else.
func (o *Orchestrator) Update(msg tea.Msg) (handled bool, cmd tea.Cmd) {
	switch msg := msg.(type) {
	case daysLoadedMsg:
		if o.accept(msg.opResult) {
			o.safeApply(msg.opResult, func() { o.applyDays(msg) })
		}
		return true, nil
	case logsLoadedMsg:
		if o.accept(msg.opResult) {
			o.safeApply(msg.opResult, func() { o.applyLogs(msg) })
		}
		return true, nil
	case menusLoadedMsg:
		if o.accept(msg.opResult) {
			o.safeApply(msg.opResult, func() { o.applyMenus(msg) })
		}
		return true, nil
	case opFailedMsg:
		o.handleFailure(msg)
		return true, nil
	case eventMsg:
		return true, tea.Batch(o.handleEvent(msg.event), o.waitForEvent())
	case eventsClosedMsg:
		o.events = nil
		return true, nil
	case tailStartedMsg:
		return true, o.handleTailStarted(msg)
	case tailRowsMsg:
		return true, o.handleTailRows(msg)
	case tailEndedMsg:
		o.handleTailEnded(msg)
		return true, nil
	}
	return false, nil
}

// accept reports whether a result belongs to the latest request of its kind
// and records its outcome.
func (o *Orchestrator) accept(r opResult) bool {
	op := &o.ops[r.kind]
	if r.gen != op.gen {
		o.log.WithFields(logrus.Fields{
			"op":         r.kind.String(),
			"op_id":      r.opID,
			"generation": r.gen,
			"current":    op.gen,
		}).Debug("dropping superseded result")
		o.metrics.Observe(r.kind.String(), outcomeStale, r.elapsed)
		o.discard(r)
		return false
	}
	if op.cancel != nil {
		op.cancel()
		op.cancel = nil
	}
	o.metrics.Observe(r.kind.String(), outcomeSuccess, r.elapsed)
	return true
}

// safeApply runs fn, recovering and logging a panic. Apply functions assign
// their views in a single statement, so a panic leaves either the previous
// screen or the new one, never a mix.
func (o *Orchestrator) safeApply(r opResult, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("apply %s: panic: %v", r.kind, rec)
			o.lastErr = err
			o.log.WithFields(logrus.Fields{
				"op":    r.kind.String(),
				"op_id": r.opID,
				"stack": string(debug.Stack()),
			}).WithError(err).Error("applying result failed")
		}
	}()
	fn()
	o.lastErr = nil
}

func (o *Orchestrator) handleFailure(msg opFailedMsg) {
	op := &o.ops[msg.kind]
	current := msg.gen == op.gen
	if current && op.cancel != nil {
		op.cancel()
		op.cancel = nil
	}

	outcome := outcomeFailure
	switch {
	case msg.panicked:
		outcome = outcomePanic
	case msg.canceled:
		outcome = outcomeCanceled
	}
	o.metrics.Observe(msg.kind.String(), outcome, msg.elapsed)
	o.discard(msg.opResult)

	if current && !msg.canceled {
		o.lastErr = msg.err
	}
}

// guard runs an interactive-context action, recovering a panic.
func (o *Orchestrator) guard(name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%s: panic: %v", name, rec)
			o.lastErr = err
			o.log.WithField("stack", string(debug.Stack())).WithError(err).Error("action failed")
		}
	}()
	fn()
}

// Screen returns the active screen.
func (o *Orchestrator) Screen() Screen { return o.screen }

// Days returns the days view.
func (o *Orchestrator) Days() DaysView {
	v := o.days
	v.Days = append([]time.Time(nil), o.days.Days...)
	return v
}

// Logs returns the logs view. Rows is a copy.
func (o *Orchestrator) Logs() LogsView {
	v := o.logs
	v.Rows = model.CloneRows(o.logs.Rows)
	return v
}

// CachedRows returns the unfiltered rows of the logs view.
func (o *Orchestrator) CachedRows() []model.LogRow { return o.cache.Rows() }

// CacheKey returns the key of the cached rows.
func (o *Orchestrator) CacheKey() (state.Key, bool) { return o.cache.Key() }

// RepositoryMenu returns the repository menu.
func (o *Orchestrator) RepositoryMenu() []MenuItem {
	return append([]MenuItem(nil), o.repoMenu...)
}

// FilterMenu returns the filter menu.
func (o *Orchestrator) FilterMenu() []MenuItem {
	return append([]MenuItem(nil), o.filterMenu...)
}

// FilterVisible reports whether the filter panel is shown.
func (o *Orchestrator) FilterVisible() bool { return o.filterVisible }

// LastError returns the most recent failure of a current request, cleared by
// the next successful apply.
func (o *Orchestrator) LastError() error { return o.lastErr }

// GoHome stops the tail and activates the home screen.
func (o *Orchestrator) GoHome() {
	o.stopTail()
	o.screen = ScreenHome
}

// Back navigates one level up: logs to days, everything else to home.
func (o *Orchestrator) Back() tea.Cmd {
	switch o.screen {
	case ScreenLogs:
		o.stopTail()
		if o.logs.GoBack != nil {
			return o.logs.GoBack()
		}
		o.screen = ScreenDays
	case ScreenHome:
	default:
		o.screen = ScreenHome
	}
	return nil
}

// discard closes the plugin an unapplied invocation owned, unless a screen
// still uses it.
func (o *Orchestrator) discard(r opResult) {
	if r.owned == nil || r.owned == o.days.Plugin || r.owned == o.logs.Plugin {
		return
	}
	closePlugin(r.owned, o.log)
}

func closePlugin(p plugin.Plugin, log *logrus.Entry) {
	c, ok := p.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.WithError(err).WithField("repository", p.RepositoryName()).Warn("closing plugin failed")
	}
}
