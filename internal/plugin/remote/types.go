package remote

import (
	"time"

	"github.com/five82/logbook/internal/model"
)

const serverTimestampLayout = "2006-01-02 15:04:05"

// DaysResponse mirrors /api/days.
type DaysResponse struct {
	Days []string `json:"days"`
}

// LogEvent is a single row from /api/logs.
type LogEvent struct {
	Sequence  uint64 `json:"seq"`
	Timestamp string `json:"ts"`
	Thread    string `json:"thread"`
	Logger    string `json:"logger"`
	Level     string `json:"level"`
	Message   string `json:"msg"`
}

// ParsedTime returns the timestamp as time.Time when possible.
func (e LogEvent) ParsedTime() time.Time {
	return parseTime(e.Timestamp)
}

// Row converts the event into a log row.
func (e LogEvent) Row() model.LogRow {
	return model.LogRow{
		Time:    e.ParsedTime(),
		Thread:  e.Thread,
		Logger:  e.Logger,
		Level:   model.ParseLevel(e.Level),
		Message: e.Message,
	}
}

// LogBatch aggregates a slice of log events with the next sequence cursor.
type LogBatch struct {
	Events []LogEvent `json:"rows"`
	Next   uint64     `json:"next"`
}

// Rows converts every event in the batch.
func (b LogBatch) Rows() []model.LogRow {
	if len(b.Events) == 0 {
		return nil
	}
	rows := make([]model.LogRow, len(b.Events))
	for i, e := range b.Events {
		rows[i] = e.Row()
	}
	return rows
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(serverTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

func parseDay(value string) (time.Time, bool) {
	t, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
