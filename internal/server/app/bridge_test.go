package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/ports"
)

// sliceStream replays a fixed chunk slice, then returns finalErr (io.EOF for
// normal exhaustion).
type sliceStream struct {
	chunks   []ports.Chunk
	pos      int
	finalErr error
}

func (s *sliceStream) Next() (ports.Chunk, error) {
	if s.pos >= len(s.chunks) {
		return nil, s.finalErr
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

// blockingStream blocks in Next until its context is cancelled.
type blockingStream struct {
	ctx context.Context
}

func (s *blockingStream) Next() (ports.Chunk, error) {
	<-s.ctx.Done()
	return nil, s.ctx.Err()
}

func drain(t *testing.T, bridge *StreamBridge) ([]ports.Chunk, StreamItem) {
	t.Helper()

	var chunks []ports.Chunk
	for {
		select {
		case item, ok := <-bridge.Items():
			require.True(t, ok, "channel closed before terminal item")
			if item.Terminal {
				return chunks, item
			}
			chunks = append(chunks, item.Chunk)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out draining bridge")
		}
	}
}

func TestBridgeDeliversChunksInOrder(t *testing.T) {
	stream := &sliceStream{
		chunks: []ports.Chunk{
			{"market_report": "a"},
			{"news_report": "b"},
		},
		finalErr: io.EOF,
	}

	bridge := NewStreamBridge(logging.Nop())
	bridge.Start(context.Background(), stream)

	chunks, terminal := drain(t, bridge)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].String("market_report"))
	assert.Equal(t, "b", chunks[1].String("news_report"))
	assert.NoError(t, terminal.Err)

	// Channel closes after the terminal item.
	_, ok := <-bridge.Items()
	assert.False(t, ok)
}

func TestBridgeExecutorErrorIsTerminal(t *testing.T) {
	failure := errors.New("model backend unavailable")
	stream := &sliceStream{
		chunks:   []ports.Chunk{{"market_report": "a"}},
		finalErr: failure,
	}

	bridge := NewStreamBridge(logging.Nop())
	bridge.Start(context.Background(), stream)

	chunks, terminal := drain(t, bridge)
	assert.Len(t, chunks, 1)
	assert.ErrorIs(t, terminal.Err, failure)
}

func TestBridgeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bridge := NewStreamBridge(logging.Nop())
	bridge.Start(ctx, &blockingStream{ctx: ctx})

	cancel()

	// The producer must exit and close the channel even though the terminal
	// handoff is abandoned on a cancelled context.
	select {
	case _, ok := <-bridge.Items():
		if ok {
			// Terminal item may still arrive when the send wins the race.
			_, ok = <-bridge.Items()
			assert.False(t, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not exit after cancellation")
	}
}
