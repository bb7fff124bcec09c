package state

import (
	"sync"
	"testing"
	"time"

	"github.com/five82/logbook/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.Local)
}

func TestLogCache_StoreAndRowsClone(t *testing.T) {
	var c LogCache

	rows := []model.LogRow{{Message: "a"}, {Message: "b"}}
	key := Key{Repository: "Alpha", Day: day(1)}
	c.Store(key, rows)

	// Caller mutations after Store must not leak into the cache.
	rows[0].Message = "mutated"

	got := c.Rows()
	if len(got) != 2 || got[0].Message != "a" {
		t.Fatalf("Rows() = %#v, want [a b]", got)
	}

	// Returned rows should be independent of the stored ones.
	got[1].Message = "999"
	if again := c.Rows(); again[1].Message != "b" {
		t.Fatalf("Rows should clone; got %q want b", again[1].Message)
	}

	gotKey, ok := c.Key()
	if !ok || !gotKey.Equal(key) {
		t.Fatalf("Key() = %v, %v; want %v, true", gotKey, ok, key)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestLogCache_AppendScopedToKey(t *testing.T) {
	var c LogCache

	if c.Append(Key{Repository: "Alpha", Day: day(1)}, []model.LogRow{{Message: "x"}}) {
		t.Fatal("Append on empty cache should be rejected")
	}

	c.Store(Key{Repository: "Alpha", Day: day(1)}, []model.LogRow{{Message: "a"}})

	tests := []struct {
		name string
		key  Key
		want bool
	}{
		{"other day", Key{Repository: "Alpha", Day: day(2)}, false},
		{"other repository", Key{Repository: "Beta", Day: day(1)}, false},
		{"same key, later time of day", Key{Repository: "Alpha", Day: day(1).Add(5 * time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Append(tt.key, []model.LogRow{{Message: tt.name}}); got != tt.want {
				t.Fatalf("Append = %v, want %v", got, tt.want)
			}
		})
	}

	rows := c.Rows()
	if len(rows) != 2 || rows[1].Message != "same key, later time of day" {
		t.Fatalf("Rows() = %#v", rows)
	}
}

func TestLogCache_Clear(t *testing.T) {
	var c LogCache
	c.Store(Key{Repository: "Alpha", Day: day(1)}, []model.LogRow{{Message: "a"}})
	c.Clear()

	if c.Len() != 0 || c.Rows() != nil {
		t.Fatalf("cache not empty after Clear: %#v", c.Rows())
	}
	if _, ok := c.Key(); ok {
		t.Fatal("Key() ok = true after Clear")
	}
}

func TestLogCache_ZeroValue(t *testing.T) {
	var c LogCache
	if c.Rows() != nil || c.Len() != 0 {
		t.Fatal("zero cache should be empty")
	}
}

func TestLogCache_ConcurrentAccess(t *testing.T) {
	var c LogCache
	key := Key{Repository: "Alpha", Day: day(1)}
	c.Store(key, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Append(key, []model.LogRow{{Message: "x"}})
		}()
		go func() {
			defer wg.Done()
			_ = c.Rows()
		}()
	}
	wg.Wait()

	if c.Len() != 20 {
		t.Fatalf("Len() = %d, want 20", c.Len())
	}
}

func TestKeyString(t *testing.T) {
	k := Key{Repository: "Alpha", Day: day(9)}
	if got := k.String(); got != "Alpha@2024-03-09" {
		t.Fatalf("String() = %q", got)
	}
}
