package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MJE43/nearkarts-go/internal/store"
)

// DefaultBuffer is the per subscriber queue length.
const DefaultBuffer = 256

// Hub fans committed contract events out to live subscribers. A subscriber
// whose queue is full misses the event; it can catch up from the stored log.
// lastDrop holds the unix nanoseconds of the most recent drop.
type Hub struct {
	mu       sync.RWMutex
	subs     map[uint64]chan store.Event
	nextID   uint64
	buffer   int
	dropped  atomic.Uint64
	lastDrop atomic.Int64
	closed   bool
}

// NewHub creates a hub with the given per subscriber buffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[uint64]chan store.Event), buffer: buffer}
}

// Subscribe registers a subscriber. The returned cancel func removes it and
// closes the channel.
func (h *Hub) Subscribe() (<-chan store.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan store.Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev store.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
			h.lastDrop.Store(time.Now().UnixNano())
		}
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// LastDrop returns when a delivery was last skipped, or the zero time.
func (h *Hub) LastDrop() time.Time {
	n := h.lastDrop.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
