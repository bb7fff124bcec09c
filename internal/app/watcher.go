package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/events"
)

// SettingsReloader is the part of config.Manager the watcher needs.
type SettingsReloader interface {
	Path() string
	Reload() error
}

var _ SettingsReloader = (*config.Manager)(nil)

// Publisher receives the RefreshMenus event after a successful reload.
type Publisher interface {
	Publish(events.Event)
}

// SettingsWatcher reloads the settings file when it changes on disk.
type SettingsWatcher struct {
	settings SettingsReloader
	events   Publisher
	log      *logrus.Entry

	// ready is closed once the watch is registered; tests wait on it.
	ready chan struct{}
}

// NewSettingsWatcher returns a watcher for the file behind settings.
func NewSettingsWatcher(settings SettingsReloader, pub Publisher, log *logrus.Entry) *SettingsWatcher {
	return &SettingsWatcher{settings: settings, events: pub, log: log, ready: make(chan struct{})}
}

// Run watches until ctx is cancelled. The parent directory is watched so
// editors that replace the file by rename are still noticed. A failed reload
// keeps the previous settings; the next change tries again.
func (w *SettingsWatcher) Run(ctx context.Context) error {
	path := w.settings.Path()
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(path)); err != nil {
		// No settings directory yet; nothing to follow.
		w.log.WithError(err).WithField("path", path).Warn("settings directory not watched")
		close(w.ready)
		<-ctx.Done()
		return nil
	}
	close(w.ready)
	w.log.WithField("path", path).Debug("watching settings")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("settings watch error")
		}
	}
}

func (w *SettingsWatcher) reload() {
	if err := w.settings.Reload(); err != nil {
		w.log.WithError(err).Warn("settings reload failed; keeping previous settings")
		return
	}
	w.log.Info("settings reloaded")
	w.events.Publish(events.Event{Kind: events.RefreshMenus})
}
