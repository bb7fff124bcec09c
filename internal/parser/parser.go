package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/five82/logbook/internal/model"
)

// Parser converts one raw line into a LogRow. ok is false when the line does
// not start a new entry (continuation lines, blank lines, garbage).
type Parser interface {
	Parse(line string) (row model.LogRow, ok bool)
}

// Format names accepted by New.
const (
	FormatPattern = "pattern"
	FormatJSON    = "json"
	regexPrefix   = "regex:"
)

// DefaultPattern matches lines such as
// "2024-03-01 10:15:00,123 [12] ERROR App.Db - connection lost".
const DefaultPattern = `^(?P<time>\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(?:[.,]\d{1,9})?(?:Z|[+-]\d{2}:?\d{2})?)\s+\[(?P<thread>[^\]]*)\]\s+(?P<level>[A-Za-z]+)\s+(?P<logger>\S+)\s+-\s?(?P<message>.*)$`

// New returns the parser for a repository format: "" or "pattern" for the
// default layout, "json", or "regex:<expression>" with named groups.
func New(format string) (Parser, error) {
	trimmed := strings.TrimSpace(format)
	switch {
	case trimmed == "", strings.EqualFold(trimmed, FormatPattern):
		return NewRegexParser(DefaultPattern)
	case strings.EqualFold(trimmed, FormatJSON):
		return NewJSONParser(), nil
	case strings.HasPrefix(trimmed, regexPrefix):
		return NewRegexParser(strings.TrimPrefix(trimmed, regexPrefix))
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ---------------------------------------------------------------------------
// JSON Parser
// ---------------------------------------------------------------------------

// JSONParser handles one JSON object per line.
type JSONParser struct{}

func NewJSONParser() *JSONParser { return &JSONParser{} }

func (p *JSONParser) Parse(line string) (model.LogRow, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] != '{' {
		return model.LogRow{}, false
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return model.LogRow{}, false
	}

	row := model.LogRow{Level: model.LevelInfo}
	if v, ok := strField(data, "time", "timestamp", "ts", "@timestamp"); ok {
		ts, ok := parseTime(v)
		if !ok {
			return model.LogRow{}, false
		}
		row.Time = ts
	}
	if v, ok := strField(data, "level", "severity", "lvl"); ok {
		row.Level = model.ParseLevel(v)
	}
	if v, ok := strField(data, "logger", "name", "component"); ok {
		row.Logger = v
	}
	if v, ok := strField(data, "thread", "thread_id", "tid"); ok {
		row.Thread = v
	}
	if v, ok := strField(data, "message", "msg"); ok {
		row.Message = v
	}
	return row, true
}

// ---------------------------------------------------------------------------
// Regex Parser
// ---------------------------------------------------------------------------

// RegexParser uses named capture groups: time, thread, level, logger, message.
type RegexParser struct {
	re *regexp.Regexp
}

func NewRegexParser(pattern string) (*RegexParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	return &RegexParser{re: re}, nil
}

func (p *RegexParser) Parse(line string) (model.LogRow, bool) {
	matches := p.re.FindStringSubmatch(line)
	if matches == nil {
		return model.LogRow{}, false
	}

	row := model.LogRow{Level: model.LevelInfo}
	for i, name := range p.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		val := matches[i]
		switch name {
		case "time":
			ts, ok := parseTime(val)
			if !ok {
				return model.LogRow{}, false
			}
			row.Time = ts
		case "thread":
			row.Thread = strings.TrimSpace(val)
		case "level":
			row.Level = model.ParseLevel(val)
		case "logger":
			row.Logger = strings.TrimSpace(val)
		case "message":
			row.Message = val
		}
	}
	return row, true
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
}

// parseTime accepts ISO-like timestamps with either ',' or '.' fractions.
// Values without a zone are read in the local zone.
func parseTime(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	v = strings.Replace(v, ",", ".", 1)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	v = strings.Replace(v, "T", " ", 1)
	if t, err := time.ParseInLocation(time.DateTime, v, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// strField returns the first non-empty string value among keys.
func strField(data map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			s := fmt.Sprintf("%v", v)
			if s != "" {
				return s, true
			}
		}
	}
	return "", false
}
