package app

import (
	"encoding/json"
	"sync"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/ports"
)

// Subscriber is one live client connection. Send must be safe to call from
// the broadcasting goroutine; implementations wrap their own write locking.
type Subscriber interface {
	Send(data []byte) error
	Close() error
}

// Hub holds the live subscriber connections, keyed by session id, and fans
// events out to them. Subscribers only ever receive events for the session
// they registered under.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string][]Subscriber
	logger      logging.Logger
	metrics     *Metrics
}

// NewHub creates an empty hub.
func NewHub(logger logging.Logger, metrics *Metrics) *Hub {
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &Hub{
		subscribers: make(map[string][]Subscriber),
		logger:      logging.OrNop(logger),
		metrics:     metrics,
	}
}

// Register adds a subscriber for a session.
func (h *Hub) Register(sessionID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribers[sessionID] = append(h.subscribers[sessionID], sub)
	h.metrics.ActiveConnections.Inc()
	h.logger.Info("Subscriber registered for session %s (total: %d)", sessionID, len(h.subscribers[sessionID]))
}

// Unregister removes a subscriber. Safe to call repeatedly or for a
// subscriber that was never registered.
func (h *Hub) Unregister(sessionID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sessionID, sub)
}

func (h *Hub) removeLocked(sessionID string, sub Subscriber) {
	subs := h.subscribers[sessionID]
	for i, existing := range subs {
		if existing == sub {
			h.subscribers[sessionID] = append(subs[:i], subs[i+1:]...)
			h.metrics.ActiveConnections.Dec()
			if len(h.subscribers[sessionID]) == 0 {
				delete(h.subscribers, sessionID)
			}
			return
		}
	}
}

// Broadcast serializes the event once and delivers it to every subscriber of
// the event's session, best-effort. Failed subscribers are collected during
// the pass and pruned only after the full pass completes; the subscriber set
// is never mutated mid-iteration.
func (h *Hub) Broadcast(event ports.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal %s event for session %s: %v", event.Type, event.SessionID, err)
		return
	}

	h.mu.RLock()
	subs := make([]Subscriber, len(h.subscribers[event.SessionID]))
	copy(subs, h.subscribers[event.SessionID])
	h.mu.RUnlock()

	var dead []Subscriber
	for _, sub := range subs {
		if err := sub.Send(data); err != nil {
			dead = append(dead, sub)
			continue
		}
		h.metrics.EventsSent.Inc()
	}

	if len(dead) == 0 {
		return
	}

	h.mu.Lock()
	for _, sub := range dead {
		h.removeLocked(event.SessionID, sub)
		h.metrics.EventsDropped.Inc()
		_ = sub.Close()
	}
	h.mu.Unlock()
	h.logger.Warn("Pruned %d dead subscriber(s) from session %s", len(dead), event.SessionID)
}

// ClientCount returns the number of subscribers registered for a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionID])
}
