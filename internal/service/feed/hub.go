package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/item-service/backend/internal/model/item"
)

// ErrHubClosed is returned by Subscribe once the hub has shut down.
var ErrHubClosed = errors.New("feed hub closed")

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 16

// EventType names a change to the item collection.
type EventType string

const (
	EventItemCreated EventType = "item.created"
	EventItemDeleted EventType = "item.deleted"
)

// Event describes a single change pushed to feed subscribers.
type Event struct {
	Type      EventType `json:"type"`
	Item      item.Item `json:"item"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(eventType EventType, it item.Item) Event {
	return Event{
		Type:      eventType,
		Item:      it,
		Timestamp: time.Now().UTC(),
	}
}

// Hub fans item events out to subscribers. Publishing never blocks: a
// subscriber whose queue is full misses the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan Event
	buffer int
	closed bool
	log    *zap.Logger
}

// NewHub creates a hub whose subscribers each queue up to buffer events.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]chan Event),
		buffer: buffer,
		log:    logger,
	}
}

// Subscribe registers a new subscriber. The returned cancel func removes the
// subscription and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe() (string, <-chan Event, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", nil, nil, ErrHubClosed
	}

	id := uuid.NewString()
	ch := make(chan Event, h.buffer)
	h.subs[id] = ch
	h.log.Debug("subscriber added", zap.String("subscriber", id), zap.Int("subscribers", len(h.subs)))

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
			h.log.Debug("subscriber removed", zap.String("subscriber", id))
		}
	}
	return id, ch, cancel, nil
}

// Publish delivers the event to every subscriber with room in its queue.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.log.Warn("dropping event for slow subscriber",
				zap.String("subscriber", id),
				zap.String("type", string(event.Type)),
				zap.Uint64("item_id", event.Item.ID),
			)
		}
	}
}

// Subscribers reports the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Run blocks until ctx is done and then closes the hub.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.Close()
	return nil
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	h.log.Info("feed hub closed")
}
