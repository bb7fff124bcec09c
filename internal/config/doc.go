// Package config loads and saves logbook's settings file.
//
// # Overview
//
// Settings live in a TOML file (default ~/.config/logbook/settings.toml) with
// three sections: UI flags, the configured log repositories, and the stored
// filter definitions.
//
//	[ui]
//	show_logger = true
//	show_thread_id = false
//	language = "en"
//
//	[[repositories]]
//	id = 1
//	name = "App"
//	plugin = "file"
//	connection = "~/logs"
//	pattern = "app-*.log"
//
//	[[filters]]
//	id = 7
//	name = "Errors only"
//	order = 1
//	[[filters.expressions]]
//	field = "level"
//	operator = "in"
//	value = "ERROR,FATAL"
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise use the default path
//  3. A missing file yields Defaults()
//  4. A file that fails to parse or validate is an error
//
// # Manager
//
// Manager is the single owner of the in-memory settings. Get returns a deep
// copy so callers can never mutate shared slices. Reload keeps the previous
// settings when the file is broken, which lets the settings watcher survive
// half-written edits.
package config
