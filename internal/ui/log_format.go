package ui

import (
	"strings"

	"github.com/five82/logbook/internal/model"
)

const rowTimeLayout = "15:04:05.000"

// rowColumns are the display fields of one row. Thread and Logger are empty
// when hidden.
type rowColumns struct {
	Time    string
	Level   string
	Thread  string
	Logger  string
	Message string
}

func columnsOf(row model.LogRow, showThread, showLogger bool) rowColumns {
	level := row.Level
	if level == "" {
		level = model.LevelInfo
	}
	c := rowColumns{
		Level:   padRight(string(level), 5),
		Message: strings.TrimRight(row.Message, " \t"),
	}
	if row.Time.IsZero() {
		c.Time = padRight("--", len(rowTimeLayout))
	} else {
		c.Time = row.Time.Format(rowTimeLayout)
	}
	if showThread && row.Thread != "" {
		c.Thread = "[" + row.Thread + "]"
	}
	if showLogger && row.Logger != "" {
		c.Logger = row.Logger
	}
	return c
}

// formatRow renders a row as plain text. Search matches against this form.
func formatRow(row model.LogRow, showThread, showLogger bool) string {
	c := columnsOf(row, showThread, showLogger)
	parts := []string{c.Time, c.Level}
	if c.Thread != "" {
		parts = append(parts, c.Thread)
	}
	if c.Logger != "" {
		parts = append(parts, c.Logger)
	}
	header := strings.Join(parts, " ")
	if c.Message == "" {
		return header
	}
	return header + " - " + c.Message
}

// formatRows renders rows, splitting multi-line messages so that every
// continuation line is indented under its row.
func formatRows(rows []model.LogRow, showThread, showLogger bool) []string {
	if len(rows) == 0 {
		return nil
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		text := formatRow(row, showThread, showLogger)
		first, rest, found := strings.Cut(text, "\n")
		lines = append(lines, first)
		if !found {
			continue
		}
		for _, cont := range strings.Split(rest, "\n") {
			lines = append(lines, "    "+strings.TrimRight(cont, "\r"))
		}
	}
	return lines
}
