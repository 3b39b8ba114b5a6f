package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingagents/internal/server/ports"
)

func newTestSession(id string) *ports.Session {
	now := time.Now()
	return &ports.Session{
		SessionID:     id,
		Ticker:        "NVDA",
		AnalysisDate:  "2025-06-02",
		CreatedAt:     now,
		UpdatedAt:     now,
		AgentStatuses: make(map[string]*ports.AgentStatus),
		Reports:       make(map[string]string),
	}
}

func TestSessionStorePutGet(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	session := newTestSession("session-1")
	session.AgentStatuses["Market Analyst"] = &ports.AgentStatus{
		AgentName: "Market Analyst",
		Team:      ports.TeamAnalyst,
		Status:    ports.AgentInProgress,
	}
	require.NoError(t, store.Put(ctx, session))

	got, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "NVDA", got.Ticker)
	assert.Equal(t, ports.AgentInProgress, got.AgentStatuses["Market Analyst"].Status)

	// Get hands out a deep copy; mutating it must not leak back.
	got.AgentStatuses["Market Analyst"].Status = ports.AgentCompleted
	got.Reports["Market Analysis"] = "tampered"

	again, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, ports.AgentInProgress, again.AgentStatuses["Market Analyst"].Status)
	assert.Empty(t, again.Reports)
}

func TestSessionStoreGetUnknown(t *testing.T) {
	store := NewInMemorySessionStore()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStoreMutateStampsUpdatedAt(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	session := newTestSession("session-1")
	session.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Put(ctx, session))

	before := time.Now()
	err := store.Mutate(ctx, "session-1", func(s *ports.Session) {
		s.CurrentAgent = "Trader"
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Trader", got.CurrentAgent)
	assert.False(t, got.UpdatedAt.Before(before))

	err = store.Mutate(ctx, "missing", func(s *ports.Session) {})
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession("session-1")))
	require.NoError(t, store.Delete(ctx, "session-1"))

	_, err := store.Get(ctx, "session-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "session-1"), ports.ErrSessionNotFound)
}

func TestSessionStoreSweep(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	stale := newTestSession("stale")
	stale.IsComplete = true
	require.NoError(t, store.Put(ctx, stale))
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)

	fresh := newTestSession("fresh")
	fresh.IsComplete = true
	require.NoError(t, store.Put(ctx, fresh))

	running := newTestSession("running")
	require.NoError(t, store.Put(ctx, running))
	running.UpdatedAt = time.Now().Add(-2 * time.Hour)

	removed := store.Sweep(ctx, time.Hour)
	assert.Equal(t, []string{"stale"}, removed)

	// Incomplete sessions survive regardless of age.
	_, err := store.Get(ctx, "running")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestSessionStoreList(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession("a")))
	require.NoError(t, store.Put(ctx, newTestSession("b")))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
