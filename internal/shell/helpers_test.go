package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/events"
	"github.com/five82/logbook/internal/filter"
	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/notify"
	"github.com/five82/logbook/internal/plugin"
)

type fakePlugin struct {
	name         string
	days         []time.Time
	rows         []model.LogRow
	err          error
	panicDays    bool
	panicLogs    bool
	file         string
	canListen    bool
	listen       chan []model.LogRow
	closeErr     error
	panicOnClose bool

	mu       sync.Mutex
	closed   int
	daysSeen []time.Time
}

func (f *fakePlugin) RepositoryName() string { return f.name }

func (f *fakePlugin) GetDays(ctx context.Context) ([]time.Time, error) {
	if f.panicDays {
		panic("days exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.days, nil
}

func (f *fakePlugin) GetLogs(ctx context.Context, day time.Time) ([]model.LogRow, error) {
	f.mu.Lock()
	f.daysSeen = append(f.daysSeen, day)
	f.mu.Unlock()
	if f.panicLogs {
		panic("logs exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return model.RowsOn(f.rows, day), nil
}

func (f *fakePlugin) TryGetFile() (string, bool) { return f.file, f.file != "" }

func (f *fakePlugin) CanListen() bool { return f.canListen }

func (f *fakePlugin) Listen(ctx context.Context) (<-chan []model.LogRow, error) {
	if f.listen == nil {
		return nil, errors.New("not listening")
	}
	return f.listen, nil
}

func (f *fakePlugin) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	if f.panicOnClose {
		panic("close exploded")
	}
	return f.closeErr
}

func (f *fakePlugin) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// ctxPlugin blocks in GetLogs until released or its context ends.
type ctxPlugin struct {
	fakePlugin
	release chan struct{}
}

func (c *ctxPlugin) GetLogs(ctx context.Context, day time.Time) ([]model.LogRow, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.release:
		return c.fakePlugin.GetLogs(ctx, day)
	}
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(def filter.Definition) string {
	return fmt.Sprintf("translated-%d", def.ID)
}

type observation struct {
	op      string
	outcome string
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (r *fakeRecorder) Observe(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{op, outcome})
}

func (r *fakeRecorder) outcomes() []observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]observation(nil), r.obs...)
}

type harness struct {
	o         *Orchestrator
	bus       *events.Bus
	indicator *notify.Indicator
	registry  *plugin.Registry
	recorder  *fakeRecorder
	logs      *logtest.Hook
	plugins   map[string]plugin.Plugin
}

func newHarness(t *testing.T, settings config.AppSettings, available ...string) *harness {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	h := &harness{
		bus:       events.NewBus(),
		indicator: &notify.Indicator{},
		registry:  plugin.NewRegistry(),
		recorder:  &fakeRecorder{},
		logs:      hook,
		plugins:   make(map[string]plugin.Plugin),
	}
	for _, id := range available {
		id := id
		h.registry.Register(plugin.Descriptor{ID: id, Name: id}, func(repo config.Repository) (plugin.Plugin, error) {
			if p, ok := h.plugins[repo.Name]; ok {
				return p, nil
			}
			return nil, fmt.Errorf("no fake plugin for %s", repo.Name)
		})
	}
	h.o = New(Deps{
		Config:     config.NewStaticManager(settings),
		Registry:   h.registry,
		Translator: fakeTranslator{},
		Waiter:     h.indicator,
		Events:     h.bus,
		Metrics:    h.recorder,
		Log:        logger.WithField("component", "shell"),
	})
	t.Cleanup(h.o.Close)
	return h
}

// run executes cmd synchronously and feeds its message back into Update.
func (h *harness) run(t *testing.T, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd, "expected a command")
	msg := cmd()
	handled, next := h.o.Update(msg)
	require.True(t, handled, "message %T not handled", msg)
	return next
}

func (h *harness) menuNames(items []MenuItem) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names
}

func (h *harness) errorEntries() []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range h.logs.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			out = append(out, e)
		}
	}
	return out
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.Local)
}

func at(d, hour int, level model.Level, msg string) model.LogRow {
	return model.LogRow{Time: day(d).Add(time.Duration(hour) * time.Hour), Level: level, Logger: "App", Message: msg}
}
