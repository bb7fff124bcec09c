package state

import (
	"sync"
	"time"

	"github.com/five82/logbook/internal/model"
)

// Key scopes cached rows to one repository and one calendar day.
type Key struct {
	Repository string
	Day        time.Time
}

// Equal reports whether k and other name the same repository and date.
func (k Key) Equal(other Key) bool {
	return k.Repository == other.Repository && model.SameDay(k.Day, other.Day)
}

// String renders the key for logs.
func (k Key) String() string {
	return k.Repository + "@" + k.Day.Format(time.DateOnly)
}

// LogCache keeps the unfiltered rows of the logs view.
type LogCache struct {
	mu     sync.RWMutex
	key    Key
	hasKey bool
	rows   []model.LogRow
}

// Store replaces the cached rows and key.
func (c *LogCache) Store(key Key, rows []model.LogRow) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.key = key
	c.hasKey = true
	c.rows = model.CloneRows(rows)
}

// Append adds rows to the baseline when key matches the stored key. It
// reports whether the rows were accepted.
func (c *LogCache) Append(key Key, rows []model.LogRow) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasKey || !c.key.Equal(key) {
		return false
	}
	if len(rows) == 0 {
		return true
	}
	merged := make([]model.LogRow, 0, len(c.rows)+len(rows))
	merged = append(merged, c.rows...)
	merged = append(merged, rows...)
	c.rows = merged
	return true
}

// Rows returns a copy of the cached rows.
func (c *LogCache) Rows() []model.LogRow {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return model.CloneRows(c.rows)
}

// Key returns the stored key and whether one is set.
func (c *LogCache) Key() (Key, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.key, c.hasKey
}

// Len returns the number of cached rows.
func (c *LogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.rows)
}

// Clear empties the cache.
func (c *LogCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.key = Key{}
	c.hasKey = false
	c.rows = nil
}
