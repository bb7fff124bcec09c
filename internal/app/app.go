package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/events"
	"github.com/five82/logbook/internal/filter"
	"github.com/five82/logbook/internal/logging"
	"github.com/five82/logbook/internal/metrics"
	"github.com/five82/logbook/internal/notify"
	"github.com/five82/logbook/internal/plugin"
	"github.com/five82/logbook/internal/plugin/file"
	"github.com/five82/logbook/internal/plugin/remote"
	"github.com/five82/logbook/internal/plugin/sqldb"
	"github.com/five82/logbook/internal/prefs"
	"github.com/five82/logbook/internal/shell"
	"github.com/five82/logbook/internal/ui"
)

// DefaultLogFile is where the diagnostic log goes unless overridden.
const DefaultLogFile = "~/.local/state/logbook/logbook.log"

// Options configure the logbook application.
type Options struct {
	SettingsPath string // empty uses ~/.config/logbook/settings.toml
	PrefsPath    string // empty uses ~/.config/logbook/prefs.toml
	LogFile      string // empty discards diagnostics
	LogLevel     string
	LogFormat    string
	MetricsAddr  string // empty disables the metrics endpoint
}

// Run boots the logbook TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	logger, logCloser, err := logging.New(logging.Options{
		Level:  opts.LogLevel,
		Format: opts.LogFormat,
		File:   opts.LogFile,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logCloser.Close() }()
	log := logging.Component(logger, "app")

	cfg, err := config.NewManager(opts.SettingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	settings := cfg.Get()
	userPrefs := prefs.Load(opts.PrefsPath)

	bus := events.NewBus()
	defer bus.Close()
	indicator := &notify.Indicator{}
	recorder := metrics.New(bus.Dropped)

	core := shell.New(shell.Deps{
		Config:        cfg,
		Registry:      NewRegistry(logger),
		Translator:    filter.NewTranslator(settings.UI.Language),
		Waiter:        indicator,
		Events:        bus,
		Metrics:       recorder,
		Log:           logging.Component(logger, "shell"),
		FilterVisible: userPrefs.FilterPanel,
	})
	defer core.Close()

	log.WithFields(logrus.Fields{
		"settings":     cfg.Path(),
		"repositories": len(settings.Repositories),
		"filters":      len(settings.Filters),
	}).Info("logbook starting")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Path() != "" {
		watcher := NewSettingsWatcher(cfg, bus, logging.Component(logger, "settings"))
		g.Go(func() error { return watcher.Run(gctx) })
	}
	if opts.MetricsAddr != "" {
		g.Go(func() error {
			return recorder.Serve(gctx, opts.MetricsAddr, logging.Component(logger, "metrics"))
		})
	}
	g.Go(func() error {
		// Quitting the UI ends the watcher and metrics server too.
		defer cancel()
		return ui.Run(ui.Options{
			Context:   gctx,
			Shell:     core,
			Busy:      indicator,
			Events:    bus,
			ThemeName: userPrefs.Theme,
			PrefsPath: opts.PrefsPath,
			Log:       logging.Component(logger, "ui"),
		})
	})

	err = g.Wait()
	log.WithField("clean", err == nil).Info("logbook stopped")
	return err
}

// NewRegistry returns a registry holding the built-in plugins.
func NewRegistry(logger *logrus.Logger) *plugin.Registry {
	r := plugin.NewRegistry()
	r.Register(file.Descriptor(), file.Factory(logging.Component(logger, file.ID)))
	r.Register(sqldb.Descriptor(), sqldb.Factory(logging.Component(logger, sqldb.ID)))
	r.Register(remote.Descriptor(), remote.Factory(logging.Component(logger, remote.ID)))
	return r
}
