// Package realtime provides a lightweight in-process publish/subscribe hub
// used to fan out newly ingested news items to multiple listeners (e.g.
// WebSocket sessions on the firehose endpoint).
//
// Delivery is best effort: each listener receives events on its own buffered
// channel, and a listener whose buffer is full misses the event. A slow
// consumer never backpressures ingestion. There is no persistence or replay;
// the stream is ephemeral.
package realtime

import (
	"sync"

	"github.com/vestnik/vestnik/pkg/storage"
)

// ItemEvent is a single ingested news item delivered over the hub. It mirrors
// the stored item fields so listeners never need database access to render it.
type ItemEvent struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
	Summary   string `json:"summary,omitempty"`
	AddedAt   string `json:"added_at,omitempty"`
}

// Event is the hub envelope. Additional event kinds can be introduced later
// without changing channel element types; for now only Type == "item" is
// produced.
type Event struct {
	Type string    `json:"type"`
	Item ItemEvent `json:"item"`
}

// FromItem converts a stored item into its event form.
func FromItem(item storage.Item) ItemEvent {
	return ItemEvent{
		ID:        item.ID,
		Source:    item.Source,
		Title:     item.Title,
		Link:      item.Link,
		Published: item.Published,
		Summary:   item.Summary,
		AddedAt:   item.AddedAt,
	}
}

// WrapItem produces an Event for a given ItemEvent.
func WrapItem(ie ItemEvent) Event {
	return Event{Type: "item", Item: ie}
}

// Hub is an in-memory fan-out dispatcher. It is concurrency-safe.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 32 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a new listener and returns its id and receive channel.
// Callers must later Unregister(id) to release resources.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener with the given id and closes its channel.
// It is safe to call multiple times; unknown ids are ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers an event to all registered listeners, skipping any
// listener whose buffer is full.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- event:
		default:
			// Drop for slow listener.
		}
	}
}

// Size returns the current number of active listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
