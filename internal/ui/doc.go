// Package ui is the Bubble Tea front end of logbook.
//
// # Architecture Overview
//
// Model is a thin view over a shell.Orchestrator. Messages produced by the
// orchestrator's background commands are handed back to it first; everything
// else (keys, window size, spinner ticks) is handled here. The model keeps
// only presentation state: cursors, the logs viewport, search and theme.
//
// # Package Structure
//
//   - model.go: Model, key dispatch and Run
//   - screens.go: home, days, manage screens and the filter panel
//   - logs.go: the logs viewport, row styling and scrolling
//   - search.go: "/" search with n/N navigation
//   - header.go: header, command bar and status line
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//   - keys.go, help.go: bindings and the help overlay
//
// # Events
//
// Toggling the filter panel ("F") and reloading menus ("r") publish events
// on the application bus instead of changing orchestrator state directly, so
// the same path serves other publishers such as the settings watcher.
//
// # Preferences
//
// The theme ("T") and filter panel visibility are saved to the preferences
// file whenever they change.
package ui
