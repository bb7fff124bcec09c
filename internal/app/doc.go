// Package app is the composition root for logbook.
//
// Run builds every long-lived dependency and hands them to the Bubble Tea UI:
//
//	logging.New ──────────> *logrus.Logger (file or discard)
//	config.NewManager ────> settings.toml, reloaded by SettingsWatcher
//	NewRegistry ──────────> file, sqldb and remote plugins
//	events.NewBus ────────> RefreshMenus / FilterVisibility
//	notify.Indicator ─────> busy spinner
//	metrics.New ──────────> optional /metrics endpoint
//	shell.New ────────────> Load/Cache/Activate orchestration
//	ui.Run ───────────────> blocks until the user quits
//
// The UI, the settings watcher and the metrics server run in one errgroup.
// Quitting the UI cancels the group; a failing watcher or server cancels the
// UI. Startup errors are returned before the terminal is taken over.
package app
