package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	assert.True(t, strings.HasPrefix(id, "session-"))
	assert.Greater(t, len(id), len("session-"))

	assert.NotEqual(t, id, NewSessionID())
}

func TestStrategies(t *testing.T) {
	t.Cleanup(func() { SetStrategy(StrategyKSUID) })

	SetStrategy(StrategyUUIDv7)
	id := NewSessionID()
	assert.True(t, strings.HasPrefix(id, "session-"))
	// UUIDv7 bodies carry dashes; KSUIDs never do.
	assert.Contains(t, strings.TrimPrefix(id, "session-"), "-")

	SetStrategy(StrategyKSUID)
	id = NewSessionID()
	assert.NotContains(t, strings.TrimPrefix(id, "session-"), "-")
}
