package shell

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/five82/logbook/internal/filter"
	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/plugin"
	"github.com/five82/logbook/internal/state"
)

// begin supersedes the in-flight request of kind and returns the new
// generation with its context.
func (o *Orchestrator) begin(kind opKind) (uint64, context.Context) {
	o.supersede(kind)
	op := &o.ops[kind]
	ctx, cancel := context.WithCancel(o.ctx)
	op.cancel = cancel
	return op.gen, ctx
}

// supersede cancels the in-flight request of kind and bumps its generation
// so its result is dropped on arrival.
func (o *Orchestrator) supersede(kind opKind) {
	op := &o.ops[kind]
	if op.cancel != nil {
		op.cancel()
		op.cancel = nil
	}
	op.gen++
}

// dispatch builds the background command for one invocation. work runs off
// the UI goroutine and must only stage values into the message it returns.
// owned, when non-nil, is closed if the result is dropped or fails.
func (o *Orchestrator) dispatch(kind opKind, owned plugin.Plugin, fields logrus.Fields, work func(ctx context.Context, r opResult) (tea.Msg, error)) tea.Cmd {
	gen, ctx := o.begin(kind)
	handle := o.waiter.NotifyWait()
	r := opResult{kind: kind, gen: gen, opID: uuid.NewString(), owned: owned}
	log := o.log.WithFields(fields).WithFields(logrus.Fields{
		"op":         kind.String(),
		"op_id":      r.opID,
		"generation": gen,
	})

	return func() (msg tea.Msg) {
		start := time.Now()
		res := r
		defer handle.Release()
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			res.elapsed = time.Since(start)
			err := fmt.Errorf("%s: panic: %v", kind, rec)
			log.WithField("stack", string(debug.Stack())).WithError(err).Error("operation panicked")
			msg = opFailedMsg{opResult: res, err: err, panicked: true}
		}()

		log.Debug("operation started")
		staged, err := work(ctx, res)
		res.elapsed = time.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				log.WithError(err).Debug("operation canceled")
				return opFailedMsg{opResult: res, err: err, canceled: true}
			}
			log.WithError(err).WithField("elapsed", res.elapsed).Error("operation failed")
			return opFailedMsg{opResult: res, err: err}
		}
		log.WithField("elapsed", res.elapsed).Debug("operation finished")
		return stamp(staged, res.elapsed)
	}
}

// stamp records the elapsed time on a staged result.
func stamp(msg tea.Msg, elapsed time.Duration) tea.Msg {
	switch m := msg.(type) {
	case daysLoadedMsg:
		m.elapsed = elapsed
		return m
	case logsLoadedMsg:
		m.elapsed = elapsed
		return m
	case menusLoadedMsg:
		m.elapsed = elapsed
		return m
	}
	return msg
}

// LoadDays fetches the days of p and, on success, activates the days screen
// with an empty log cache.
func (o *Orchestrator) LoadDays(p plugin.Plugin) tea.Cmd {
	if p == nil {
		return nil
	}
	return o.dispatch(opLoadDays, p, logrus.Fields{"repository": p.RepositoryName()}, func(ctx context.Context, r opResult) (tea.Msg, error) {
		days, err := p.GetDays(ctx)
		if err != nil {
			return nil, fmt.Errorf("get days: %w", err)
		}
		return daysLoadedMsg{opResult: r, days: days, plugin: p}, nil
	})
}

func (o *Orchestrator) applyDays(msg daysLoadedMsg) {
	view := DaysView{Days: append([]time.Time(nil), msg.days...), Plugin: msg.plugin}
	previous := o.days.Plugin

	o.stopTail()
	// Logs still loading belong to the screen being left.
	o.supersede(opLoadLogs)
	o.cache.Clear()
	o.days, o.logs, o.screen = view, LogsView{}, ScreenDays

	if previous != nil && previous != msg.plugin {
		closePlugin(previous, o.log)
	}
}

// LoadLogs fetches the rows of day from p and, on success, caches them and
// activates the logs screen.
func (o *Orchestrator) LoadLogs(p plugin.Plugin, day time.Time) tea.Cmd {
	if p == nil {
		return nil
	}
	fields := logrus.Fields{"repository": p.RepositoryName(), "day": day.Format(time.DateOnly)}
	return o.dispatch(opLoadLogs, nil, fields, func(ctx context.Context, r opResult) (tea.Msg, error) {
		settings := o.cfg.Get()
		rows, err := p.GetLogs(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("get logs: %w", err)
		}
		msg := logsLoadedMsg{
			opResult:     r,
			plugin:       p,
			day:          model.Day(day),
			repository:   p.RepositoryName(),
			rows:         rows,
			showLogger:   settings.UI.ShowLogger,
			showThreadID: settings.UI.ShowThreadID,
		}
		msg.file, msg.hasFile = p.TryGetFile()
		if p.CanListen() {
			if l, ok := p.(plugin.Listener); ok {
				msg.listener = l
			}
		}
		return msg, nil
	})
}

func (o *Orchestrator) applyLogs(msg logsLoadedMsg) {
	p := msg.plugin
	view := LogsView{
		Repository:   msg.repository,
		Day:          msg.day,
		File:         msg.file,
		HasFile:      msg.hasFile,
		ShowLogger:   msg.showLogger,
		ShowThreadID: msg.showThreadID,
		Listener:     msg.listener,
		Plugin:       p,
		GoBack:       func() tea.Cmd { return o.LoadDays(p) },
	}

	o.stopTail()
	o.cache.Store(state.Key{Repository: msg.repository, Day: msg.day}, msg.rows)
	view.Rows = o.cache.Rows()
	o.logs, o.screen = view, ScreenLogs
}

// LoadMenus rebuilds the repository and filter menus from the current
// settings. The screen does not change.
func (o *Orchestrator) LoadMenus() tea.Cmd {
	return o.dispatch(opLoadMenus, nil, nil, func(ctx context.Context, r opResult) (tea.Msg, error) {
		settings := o.cfg.Get()
		repos := o.buildRepositoryMenu(settings)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		filters := o.buildFilterMenu(filter.NewManager(settings.Filters))
		return menusLoadedMsg{opResult: r, repositories: repos, filters: filters}, nil
	})
}

func (o *Orchestrator) applyMenus(msg menusLoadedMsg) {
	o.repoMenu = msg.repositories
	o.filterMenu = msg.filters
}
