// Package notify tracks outstanding background work so the UI can show a busy
// indicator while any operation is in flight.
package notify

import (
	"sync"
	"sync/atomic"
)

// Indicator counts outstanding busy handles. The zero value is ready to use.
type Indicator struct {
	active   atomic.Int64
	acquired atomic.Int64
	released atomic.Int64
}

// NotifyWait marks the start of background work. The returned handle must be
// released when the work ends.
func (i *Indicator) NotifyWait() *Handle {
	i.active.Add(1)
	i.acquired.Add(1)
	return &Handle{owner: i}
}

// Active reports whether any handle is still outstanding.
func (i *Indicator) Active() bool {
	return i.active.Load() > 0
}

// Outstanding returns the number of unreleased handles.
func (i *Indicator) Outstanding() int64 {
	return i.active.Load()
}

// Stats returns the lifetime acquire and release counts.
func (i *Indicator) Stats() (acquired, released int64) {
	return i.acquired.Load(), i.released.Load()
}

// Handle is a single busy token.
type Handle struct {
	owner *Indicator
	once  sync.Once
}

// Release ends the busy period for this handle. Only the first call has an
// effect.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.owner.active.Add(-1)
		h.owner.released.Add(1)
	})
}
