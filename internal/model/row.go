package model

import (
	"sort"
	"strings"
	"time"
)

// Level is a normalized log severity.
type Level string

const (
	LevelTrace Level = "TRACE"
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

// ParseLevel normalizes common level spellings. Unknown values map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE", "VERBOSE":
		return LevelTrace
	case "DEBUG", "DBG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR", "ERR":
		return LevelError
	case "FATAL", "CRITICAL", "CRIT", "PANIC":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// LogRow is one parsed log entry. Plugins produce rows and nothing mutates them
// afterwards.
type LogRow struct {
	Time    time.Time `json:"time"`
	Thread  string    `json:"thread,omitempty"`
	Logger  string    `json:"logger,omitempty"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Day truncates t to midnight of its calendar date in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DistinctDays returns the distinct dates found in rows, newest first.
func DistinctDays(rows []LogRow) []time.Time {
	seen := make(map[string]time.Time)
	for _, row := range rows {
		if row.Time.IsZero() {
			continue
		}
		day := Day(row.Time)
		seen[day.Format(time.DateOnly)] = day
	}
	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// RowsOn keeps rows whose timestamp falls on day.
func RowsOn(rows []LogRow, day time.Time) []LogRow {
	out := make([]LogRow, 0, len(rows))
	for _, row := range rows {
		if SameDay(row.Time, day) {
			out = append(out, row)
		}
	}
	return out
}

// CloneRows returns an independent copy of rows. A nil or empty input yields nil.
func CloneRows(rows []LogRow) []LogRow {
	if len(rows) == 0 {
		return nil
	}
	dup := make([]LogRow, len(rows))
	copy(dup, rows)
	return dup
}
