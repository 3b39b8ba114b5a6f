package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/ports"
)

// memSubscriber records every payload it receives.
type memSubscriber struct {
	mu       sync.Mutex
	payloads [][]byte
	sendErr  error
	closed   bool
}

func (s *memSubscriber) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.payloads = append(s.payloads, buf)
	return nil
}

func (s *memSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memSubscriber) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.payloads))
	copy(out, s.payloads)
	return out
}

func TestHubBroadcastPerSession(t *testing.T) {
	hub := NewHub(logging.Nop(), NewNopMetrics())

	subA1 := &memSubscriber{}
	subA2 := &memSubscriber{}
	subB := &memSubscriber{}
	hub.Register("session-a", subA1)
	hub.Register("session-a", subA2)
	hub.Register("session-b", subB)

	hub.Broadcast(ports.NewEvent(ports.EventAgentActive, "session-a", map[string]any{
		"current_agent": "Trader",
	}))

	// Both session-a subscribers got the identical payload; session-b got
	// nothing.
	a1 := subA1.received()
	a2 := subA2.received()
	require.Len(t, a1, 1)
	require.Len(t, a2, 1)
	assert.Equal(t, a1[0], a2[0])
	assert.Empty(t, subB.received())

	var msg map[string]any
	require.NoError(t, json.Unmarshal(a1[0], &msg))
	assert.Equal(t, ports.EventAgentActive, msg["type"])
	assert.Equal(t, "session-a", msg["session_id"])
	assert.Equal(t, "Trader", msg["current_agent"])
}

func TestHubPrunesDeadSubscribers(t *testing.T) {
	hub := NewHub(logging.Nop(), NewNopMetrics())

	healthy := &memSubscriber{}
	dead := &memSubscriber{sendErr: errors.New("connection reset")}
	hub.Register("s", healthy)
	hub.Register("s", dead)
	require.Equal(t, 2, hub.ClientCount("s"))

	hub.Broadcast(ports.NewEvent(ports.EventProgressUpdate, "s", nil))

	// The dead subscriber is removed and closed; the healthy one still
	// received the event and stays registered.
	assert.Equal(t, 1, hub.ClientCount("s"))
	assert.True(t, dead.closed)
	assert.Len(t, healthy.received(), 1)

	hub.Broadcast(ports.NewEvent(ports.EventProgressUpdate, "s", nil))
	assert.Len(t, healthy.received(), 2)
}

func TestHubUnregisterIdempotent(t *testing.T) {
	hub := NewHub(logging.Nop(), NewNopMetrics())

	sub := &memSubscriber{}
	hub.Register("s", sub)
	hub.Unregister("s", sub)
	hub.Unregister("s", sub)
	hub.Unregister("other", sub)

	assert.Equal(t, 0, hub.ClientCount("s"))

	// Broadcasting to an empty session is a no-op.
	hub.Broadcast(ports.NewEvent(ports.EventProgressUpdate, "s", nil))
	assert.Empty(t, sub.received())
}
