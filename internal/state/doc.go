// Package state holds the log cache that sits between background loads and
// the UI.
//
// # Overview
//
// A successful Load Logs operation stores the rows it fetched under a key made
// of the repository name and the calendar day. Those rows are the baseline:
// filters are always applied to the baseline, never to the output of an
// earlier filter, and clearing the filter restores it.
//
// Live tail appends rows to the baseline through Append, which only accepts
// rows for the key currently stored. A tail batch that arrives after the user
// moved to another day or repository is discarded.
//
// # Concurrency Model
//
// LogCache is guarded by a sync.RWMutex and copies slices on the way in and on
// the way out:
//
//	Store(key, rows)   clone rows, replace baseline (write lock)
//	Append(key, rows)  clone rows, extend baseline if key matches (write lock)
//	Rows()             clone baseline (read lock)
//	Clear()            drop baseline and key (write lock)
//
// In practice every call comes from the Bubble Tea Update loop, but the lock
// keeps the cache safe to read from tests and render helpers.
//
// The zero value is an empty cache ready to use.
package state
