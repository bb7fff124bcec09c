package shell

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/state"
)

// StartTail subscribes to new rows of the logs view. It is a no-op unless
// the logs screen is active with a listening plugin.
func (o *Orchestrator) StartTail() tea.Cmd {
	if o.screen != ScreenLogs || o.logs.Listener == nil || o.tail.active {
		return nil
	}
	o.stopTail()
	o.tail.gen++
	ctx, cancel := context.WithCancel(o.ctx)
	o.tail.cancel = cancel
	o.tail.active = true
	o.logs.Tailing = true

	gen := o.tail.gen
	listener := o.logs.Listener
	return func() tea.Msg {
		ch, err := listener.Listen(ctx)
		if err != nil {
			return tailEndedMsg{gen: gen, err: err}
		}
		return tailStartedMsg{gen: gen, rows: ch}
	}
}

// StopTail ends the live tail, if any.
func (o *Orchestrator) StopTail() {
	o.stopTail()
}

// ToggleTail starts or stops the live tail.
func (o *Orchestrator) ToggleTail() tea.Cmd {
	if o.tail.active {
		o.stopTail()
		return nil
	}
	return o.StartTail()
}

func (o *Orchestrator) stopTail() {
	if o.tail.cancel != nil {
		o.tail.cancel()
		o.tail.cancel = nil
	}
	if o.tail.active {
		o.tail.gen++
	}
	o.tail.active = false
	o.tail.rows = nil
	o.logs.Tailing = false
}

func waitForTail(gen uint64, ch <-chan []model.LogRow) tea.Cmd {
	return func() tea.Msg {
		rows, ok := <-ch
		if !ok {
			return tailEndedMsg{gen: gen}
		}
		return tailRowsMsg{gen: gen, rows: rows}
	}
}

func (o *Orchestrator) handleTailStarted(msg tailStartedMsg) tea.Cmd {
	if msg.gen != o.tail.gen || !o.tail.active {
		return nil
	}
	o.tail.rows = msg.rows
	o.log.WithField("repository", o.logs.Repository).Info("live tail started")
	return waitForTail(msg.gen, msg.rows)
}

// handleTailRows appends rows of the viewed day to the cache and, through
// the active filter, to the displayed rows.
func (o *Orchestrator) handleTailRows(msg tailRowsMsg) tea.Cmd {
	if msg.gen != o.tail.gen || !o.tail.active || o.tail.rows == nil {
		return nil
	}
	o.guard("append tail rows", func() {
		kept := model.RowsOn(msg.rows, o.logs.Day)
		key := state.Key{Repository: o.logs.Repository, Day: o.logs.Day}
		if len(kept) > 0 && o.cache.Append(key, kept) {
			o.logs.Rows = append(o.logs.Rows, o.logs.Filter.Filter(kept)...)
		}
		o.log.WithFields(logrus.Fields{"received": len(msg.rows), "kept": len(kept)}).Debug("tail batch")
	})
	return waitForTail(msg.gen, o.tail.rows)
}

func (o *Orchestrator) handleTailEnded(msg tailEndedMsg) {
	if msg.gen != o.tail.gen {
		return
	}
	if msg.err != nil {
		o.lastErr = msg.err
		o.log.WithError(msg.err).WithField("repository", o.logs.Repository).Error("live tail failed")
	} else {
		o.log.WithField("repository", o.logs.Repository).Info("live tail ended")
	}
	o.stopTail()
}
