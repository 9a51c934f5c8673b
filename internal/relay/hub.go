package relay

import (
	"log/slog"
	"sync"

	"linkq/internal/logging"
)

const (
	subscriberBuffer = 16
	replayDepth      = 32
)

// Hub is an in-process broadcast channel for delivery events.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	recent []Event
	logger *slog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		subs:   make(map[int]chan Event),
		logger: logger.With(logging.String(logging.FieldComponent, "relay")),
	}
}

// Subscribe registers a listener and returns its channel plus a cancel
// function. The channel is buffered; events that would overflow it are
// dropped for that subscriber only.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Publish broadcasts an event to every subscriber and records it in the
// replay ring. Never blocks.
func (h *Hub) Publish(event Event) {
	if !event.Kind.Valid() {
		h.logger.Warn("dropping event with unknown kind", logging.String(logging.FieldEventType, string(event.Kind)))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = append(h.recent, event)
	if len(h.recent) > replayDepth {
		h.recent = h.recent[len(h.recent)-replayDepth:]
	}

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.logger.Debug("subscriber buffer full, dropping event",
				logging.Int("subscriber", id),
				logging.String(logging.FieldEventType, string(event.Kind)))
		}
	}
}

// Recent returns up to limit most recent events, newest last. A non-positive
// limit returns the whole ring.
func (h *Hub) Recent(limit int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	events := h.recent
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
