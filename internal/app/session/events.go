package session

import (
	"sync"
	"time"

	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/metrics"
)

// EventType names what changed.
type EventType string

const (
	EventSessionStarted EventType = "SESSION_STARTED"
	EventSessionEnded   EventType = "SESSION_ENDED"
	EventProfile        EventType = "PROFILE"
	EventMessages       EventType = "MESSAGES"
	EventUnread         EventType = "UNREAD"
	EventNotification   EventType = "NOTIFICATION"
	EventSurvey         EventType = "SURVEY"
)

// subscriberBuffer is the per-subscriber queue length.
const subscriberBuffer = 64

// Event is one state change pushed to subscribers.
type Event struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// UnreadPayload carries the unread count of the current user.
type UnreadPayload struct {
	Count int `json:"count"`
}

// SurveyPayload tells whether the survey overlay must be shown.
type SurveyPayload struct {
	MustShow bool `json:"mustShow"`
}

// Hub fans events out to subscribers. Publishing never blocks: a subscriber
// whose queue is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64

	dropped *logx.Throttle
}

// NewHub returns a Hub with no subscribers.
func NewHub() *Hub {
	return &Hub{
		subs:    make(map[uint64]chan Event),
		dropped: logx.NewThrottle(10 * time.Second),
	}
}

// Subscribe returns a channel of future events and a function that closes it.
// The cancel function is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch
	metrics.EventSubscribers.Set(float64(len(h.subs)))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			delete(h.subs, id)
			close(ch)
			metrics.EventSubscribers.Set(float64(len(h.subs)))
		})
	}
}

// Publish stamps e and delivers it to every subscriber that has room.
func (h *Hub) Publish(e Event) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.dropped.Warn("Subscriber queue full, dropping event",
				"subscriber", id,
				"event_type", string(e.Type),
			)
		}
	}
}

func (h *Hub) subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}
