// Package realtime fans dataset lifecycle events out to live sessions.
//
// Delivery is best effort: a listener whose buffer is full misses the
// event. A session that misses a dataset event resynchronizes on the next
// one, since each event carries the full dataset reference.
package realtime

import (
	"sync"
	"time"

	"github.com/rubiojr/leaderboard/pkg/model"
)

const (
	EventDataset = "dataset"
	EventError   = "error"
)

// Event announces a dataset replacement or a failed refresh.
type Event struct {
	Type    string    `json:"type"`
	Seq     uint64    `json:"seq"`
	At      time.Time `json:"at"`
	Entries int       `json:"entries,omitempty"`
	Error   string    `json:"error,omitempty"`

	// Dataset is only set on EventDataset and never leaves the process.
	Dataset *model.Dataset `json:"-"`
}

// Hub is an in-memory fan-out dispatcher. It is safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	seq       uint64
	bufSize   int
	last      *Event
}

// NewHub returns a hub with the given per-listener buffer. If bufSize <= 0
// a default of 8 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 8
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener. The most recent dataset event, if any, is
// queued on the new channel. Callers must Unregister the id.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	if h.last != nil {
		ch <- *h.last
	}
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// PublishDataset announces ds to every listener.
func (h *Hub) PublishDataset(ds *model.Dataset) {
	h.publish(Event{Type: EventDataset, Dataset: ds, Entries: ds.Len()})
}

// PublishError announces a failed refresh.
func (h *Hub) PublishError(err error) {
	if err == nil {
		return
	}
	h.publish(Event{Type: EventError, Error: err.Error()})
}

func (h *Hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	ev.Seq = h.seq
	ev.At = time.Now().UTC()
	if ev.Type == EventDataset {
		h.last = &ev
	}
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			// Drop for slow listener.
		}
	}
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
