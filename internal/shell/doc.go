// Package shell is the headless orchestration core behind the terminal UI.
//
// # Overview
//
// The Orchestrator owns every piece of visible state: the active screen, the
// days view, the logs view, the repository and filter menus, and the log
// cache. It is driven from the Bubble Tea Update loop, which is the only
// goroutine allowed to touch that state.
//
// # Load / Cache / Activate
//
// LoadDays, LoadLogs and LoadMenus each return a tea.Cmd. The command:
//
//  1. holds a busy handle acquired when the command was built,
//  2. calls the plugin (or settings) off the UI goroutine,
//  3. stages the results into a typed message.
//
// Bubble Tea runs the command on its own goroutine and feeds the message back
// into Update, where the orchestrator applies the staged values in one step
// and activates the target screen. A failed or panicking command produces a
// failure message instead: it is logged and counted, and the current screen
// stays as it was.
//
// # Superseded requests
//
// Every operation kind keeps a generation counter and a cancel function.
// Starting a new LoadLogs cancels the context of the previous LoadLogs and
// bumps the generation; a message carrying an older generation is dropped
// when it arrives. The last submitted request wins, regardless of completion
// order.
//
// # Events
//
// The orchestrator subscribes to the event bus at construction. Init arms a
// command that waits for the next event; Update handles it and re-arms.
//
//	RefreshMenus      -> LoadMenus
//	FilterVisibility  -> set the filter panel flag (bool payload only)
//
// # Filters
//
// Filters run synchronously on the UI goroutine against the cached baseline,
// so applying a second filter replaces the first rather than narrowing it.
package shell
