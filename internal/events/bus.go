package events

import (
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 64

// Kind identifies an application event.
type Kind int

const (
	// RefreshMenus asks the shell to rebuild the repository and filter menus.
	RefreshMenus Kind = iota + 1
	// FilterVisibility carries a bool payload: whether the filter panel is shown.
	FilterVisibility
)

func (k Kind) String() string {
	switch k {
	case RefreshMenus:
		return "refresh_menus"
	case FilterVisibility:
		return "filter_visibility"
	default:
		return "unknown"
	}
}

// Event is one message on the bus.
type Event struct {
	Kind    Kind
	Payload any
}

// Bus fans events out to every subscriber over buffered channels.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	closed      bool
	dropped     atomic.Int64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel receiving every event published after the call.
// The channel is closed by Close.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish delivers ev to all subscribers without blocking. A subscriber whose
// buffer is full misses the event.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of deliveries lost to full subscriber buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes all subscriber channels. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
