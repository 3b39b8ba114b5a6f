package app

import (
	"context"
	"errors"
	"io"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/ports"
)

// defaultBridgeBuffer bounds the handoff queue. The producer's rate is
// bounded by model-invocation latency, which is far slower than consumption,
// so backpressure is not enforced; revisit if that assumption changes.
const defaultBridgeBuffer = 1024

// StreamItem is one element of the bridge handoff queue. Terminal items are
// the tagged end-of-stream marker: Err is nil on normal exhaustion and
// carries the executor failure otherwise.
type StreamItem struct {
	Chunk    ports.Chunk
	Terminal bool
	Err      error
}

// StreamBridge moves chunks from the executor's blocking, pull-based sequence
// onto a channel a single consumer goroutine can drain. Exactly one producer
// and one consumer exist per run; the producer always pushes exactly one
// terminal item before exiting, so the consumer always terminates.
type StreamBridge struct {
	items  chan StreamItem
	logger logging.Logger
}

// NewStreamBridge creates a bridge with the default buffer size.
func NewStreamBridge(logger logging.Logger) *StreamBridge {
	return &StreamBridge{
		items:  make(chan StreamItem, defaultBridgeBuffer),
		logger: logging.OrNop(logger),
	}
}

// Items is the consumer side of the handoff queue, strictly FIFO. The channel
// is closed after the terminal item.
func (b *StreamBridge) Items() <-chan StreamItem {
	return b.items
}

// Start launches the dedicated producer goroutine for one run. The producer
// pulls from stream until io.EOF, an executor error, or ctx cancellation,
// pushes the single terminal item and closes the queue.
func (b *StreamBridge) Start(ctx context.Context, stream ports.ChunkStream) {
	go b.produce(ctx, stream)
}

func (b *StreamBridge) produce(ctx context.Context, stream ports.ChunkStream) {
	var terminal StreamItem
	terminal.Terminal = true

	defer func() {
		// Terminal delivery gives up on cancellation: the consumer selects
		// on the same context and will not read further.
		select {
		case b.items <- terminal:
		case <-ctx.Done():
		}
		close(b.items)
	}()

	for {
		if err := ctx.Err(); err != nil {
			terminal.Err = err
			return
		}

		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			b.logger.Error("Workflow stream failed: %v", err)
			terminal.Err = err
			return
		}

		select {
		case b.items <- StreamItem{Chunk: chunk}:
		case <-ctx.Done():
			terminal.Err = ctx.Err()
			return
		}
	}
}
