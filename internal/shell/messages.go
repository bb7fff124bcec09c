package shell

import (
	"time"

	"github.com/five82/logbook/internal/events"
	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/plugin"
)

type opKind int

const (
	opLoadDays opKind = iota
	opLoadLogs
	opLoadMenus
	opCount
)

func (k opKind) String() string {
	switch k {
	case opLoadDays:
		return "load_days"
	case opLoadLogs:
		return "load_logs"
	case opLoadMenus:
		return "load_menus"
	default:
		return "unknown"
	}
}

// opResult identifies the invocation a message belongs to. owned is a
// plugin the invocation must close if its result is never applied.
type opResult struct {
	kind    opKind
	gen     uint64
	opID    string
	elapsed time.Duration
	owned   plugin.Plugin
}

type daysLoadedMsg struct {
	opResult
	days   []time.Time
	plugin plugin.Plugin
}

type logsLoadedMsg struct {
	opResult
	plugin       plugin.Plugin
	day          time.Time
	repository   string
	rows         []model.LogRow
	file         string
	hasFile      bool
	showLogger   bool
	showThreadID bool
	listener     plugin.Listener
}

type menusLoadedMsg struct {
	opResult
	repositories []MenuItem
	filters      []MenuItem
}

type opFailedMsg struct {
	opResult
	err      error
	panicked bool
	canceled bool
}

type eventMsg struct {
	event events.Event
}

type eventsClosedMsg struct{}

type tailStartedMsg struct {
	gen  uint64
	rows <-chan []model.LogRow
}

type tailRowsMsg struct {
	gen  uint64
	rows []model.LogRow
}

type tailEndedMsg struct {
	gen uint64
	err error
}
