package shell

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logbook/internal/events"
)

func (o *Orchestrator) waitForEvent() tea.Cmd {
	ch := o.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// handleEvent reacts to one event on the interactive context.
func (o *Orchestrator) handleEvent(ev events.Event) tea.Cmd {
	log := o.log.WithField("event", ev.Kind.String())
	switch ev.Kind {
	case events.RefreshMenus:
		log.Debug("refreshing menus")
		return o.LoadMenus()
	case events.FilterVisibility:
		visible, ok := ev.Payload.(bool)
		if !ok {
			log.WithField("payload", ev.Payload).Debug("ignoring non-bool visibility payload")
			return nil
		}
		o.filterVisible = visible
		return nil
	default:
		log.Debug("ignoring unknown event")
		return nil
	}
}
