package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/ports"
	id "tradingagents/internal/utils/id"
)

// defaultSweepAge matches the original one-hour retention for completed runs.
const defaultSweepAge = time.Hour

// Coordinator drives the lifecycle of analysis sessions: fast creation,
// background initialization, the chunk consumer loop, and expiry sweeps.
type Coordinator struct {
	store   ports.SessionStore
	factory ports.ExecutorFactory
	hub     *Hub
	reducer *ProgressReducer
	metrics *Metrics
	logger  logging.Logger

	sweepAge time.Duration

	// runs maps a session id to the cancel func of its in-flight run, so
	// deleting a session actually stops its producer and consumer.
	runMu sync.Mutex
	runs  map[string]context.CancelFunc
}

// NewCoordinator wires the session lifecycle manager.
func NewCoordinator(store ports.SessionStore, factory ports.ExecutorFactory, hub *Hub, metrics *Metrics, logger logging.Logger) *Coordinator {
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &Coordinator{
		store:    store,
		factory:  factory,
		hub:      hub,
		reducer:  NewProgressReducer(logger),
		metrics:  metrics,
		logger:   logging.OrNop(logger),
		sweepAge: defaultSweepAge,
		runs:     make(map[string]context.CancelFunc),
	}
}

// SetSweepAge overrides the retention window for completed sessions.
func (c *Coordinator) SetSweepAge(age time.Duration) {
	if age > 0 {
		c.sweepAge = age
	}
}

// StartAnalysis creates a placeholder session, kicks off initialization in
// the background and returns the new session id immediately.
func (c *Coordinator) StartAnalysis(ctx context.Context, req ports.AnalysisRequest) (string, error) {
	req.ApplyDefaults()

	sessionID := id.NewSessionID()
	now := time.Now()
	session := &ports.Session{
		SessionID:     sessionID,
		Ticker:        req.Ticker,
		AnalysisDate:  req.AnalysisDate,
		CreatedAt:     now,
		UpdatedAt:     now,
		AgentStatuses: make(map[string]*ports.AgentStatus),
		Reports:       make(map[string]string),
	}
	if err := c.store.Put(ctx, session); err != nil {
		return "", err
	}
	c.metrics.ActiveSessions.Inc()
	c.logger.Info("Created session %s for %s", sessionID, req.Ticker)

	// The run outlives the HTTP request; it gets its own cancellable
	// context, released on completion or session deletion.
	runCtx, cancel := context.WithCancel(context.Background())
	c.runMu.Lock()
	c.runs[sessionID] = cancel
	c.runMu.Unlock()

	go c.initialize(runCtx, sessionID, req)

	return sessionID, nil
}

// initialize performs the heavy setup off the request path: best-effort
// sweep, executor construction, agent seeding and the initial broadcast.
// A construction failure is logged and leaves the session stalled in
// whatever state it reached; GET still serves that snapshot.
func (c *Coordinator) initialize(ctx context.Context, sessionID string, req ports.AnalysisRequest) {
	if removed := c.Sweep(ctx); removed > 0 {
		c.logger.Info("Swept %d expired session(s)", removed)
	}

	executor, err := c.factory.Build(ctx, req)
	if err != nil {
		c.logger.Error("Initialization failed for session %s: %v", sessionID, err)
		c.finishRun(sessionID)
		return
	}

	now := time.Now()
	err = c.store.Mutate(ctx, sessionID, func(session *ports.Session) {
		for i, team := range ports.Teams {
			status := ports.AgentPending
			if i == 0 {
				status = ports.AgentInProgress
			}
			for _, agent := range team.Agents {
				session.AgentStatuses[agent] = &ports.AgentStatus{
					AgentName: agent,
					Team:      team.Name,
					Status:    status,
					Timestamp: now,
				}
			}
		}
	})
	if err != nil {
		c.logger.Error("Seeding failed for session %s: %v", sessionID, err)
		c.finishRun(sessionID)
		return
	}

	c.broadcastProgress(ctx, sessionID)
	c.run(ctx, sessionID, executor)
}

// run obtains the executor's chunk sequence, bridges it onto this goroutine
// and drains it until the terminal marker.
func (c *Coordinator) run(ctx context.Context, sessionID string, executor ports.WorkflowExecutor) {
	defer c.finishRun(sessionID)

	session, err := c.store.Get(ctx, sessionID)
	if err != nil {
		c.logger.Error("Session %s vanished before run start: %v", sessionID, err)
		return
	}

	initial := executor.CreateInitialState(session.Ticker, session.AnalysisDate)

	c.hub.Broadcast(ports.NewEvent(ports.EventAnalysisStarted, sessionID, map[string]any{
		"message": "Analysis started - initializing agents...",
	}))

	stream, err := executor.Stream(ctx, initial)
	if err != nil {
		c.logger.Error("Failed to start workflow stream for session %s: %v", sessionID, err)
		c.metrics.StreamFailures.Inc()
		return
	}

	bridge := NewStreamBridge(c.logger)
	bridge.Start(ctx, stream)

	var terminal StreamItem
	for item := range bridge.Items() {
		if item.Terminal {
			terminal = item
			break
		}
		if err := c.processChunk(ctx, sessionID, item.Chunk); err != nil {
			c.metrics.ChunkErrors.Inc()
			c.logger.Error("Error processing chunk in session %s: %v", sessionID, err)
			c.hub.Broadcast(ports.NewEvent(ports.EventProgressUpdateError, sessionID, map[string]any{
				"error": err.Error(),
			}))
			continue
		}
		c.metrics.ChunksProcessed.Inc()
	}

	if terminal.Err != nil {
		// Executor failures terminate the run without a subscriber-visible
		// error event; clients simply never receive analysis_complete.
		c.logger.Error("Workflow run for session %s terminated: %v", sessionID, terminal.Err)
		c.metrics.StreamFailures.Inc()
		return
	}

	var finalDecision string
	now := time.Now()
	err = c.store.Mutate(ctx, sessionID, func(session *ports.Session) {
		session.IsComplete = true
		session.CompletedAt = &now
		finalDecision = session.FinalDecision
	})
	if err != nil {
		c.logger.Error("Failed to mark session %s complete: %v", sessionID, err)
		return
	}

	// An absent final decision is legitimate: no terminal judge decision
	// ever arrived. The completion event still fires exactly once.
	var decision any
	if finalDecision != "" {
		decision = finalDecision
	}
	c.hub.Broadcast(ports.NewEvent(ports.EventAnalysisComplete, sessionID, map[string]any{
		"final_decision": decision,
	}))
	c.logger.Info("Session %s complete", sessionID)
}

// processChunk folds one chunk into the session and broadcasts the resulting
// events plus a full progress snapshot. Failures are isolated per chunk.
func (c *Coordinator) processChunk(ctx context.Context, sessionID string, chunk ports.Chunk) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chunk processing panic: %v", r)
		}
	}()

	var events []ports.Event
	err = c.store.Mutate(ctx, sessionID, func(session *ports.Session) {
		events = c.reducer.Apply(session, chunk, time.Now())
	})
	if err != nil {
		return fmt.Errorf("chunk processing error: %w", err)
	}

	for _, event := range events {
		c.hub.Broadcast(event)
	}
	c.broadcastProgress(ctx, sessionID)
	return nil
}

func (c *Coordinator) broadcastProgress(ctx context.Context, sessionID string) {
	snapshot, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return
	}
	c.hub.Broadcast(ports.NewEvent(ports.EventProgressUpdate, sessionID, map[string]any{
		"progress": snapshot,
	}))
}

// GetSession returns a snapshot of one session.
func (c *Coordinator) GetSession(ctx context.Context, sessionID string) (*ports.Session, error) {
	return c.store.Get(ctx, sessionID)
}

// ListSessions returns snapshots of all sessions.
func (c *Coordinator) ListSessions(ctx context.Context) ([]*ports.Session, error) {
	return c.store.List(ctx)
}

// DeleteSession removes the stored session and cancels its in-flight run, if
// any, so the producer worker and consumer exit.
func (c *Coordinator) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	c.metrics.ActiveSessions.Dec()

	c.runMu.Lock()
	cancel, ok := c.runs[sessionID]
	if ok {
		delete(c.runs, sessionID)
	}
	c.runMu.Unlock()
	if ok {
		cancel()
	}

	c.logger.Info("Deleted session %s", sessionID)
	return nil
}

// Sweep removes completed sessions idle for longer than the configured age.
// Best-effort; also invoked before each new run.
func (c *Coordinator) Sweep(ctx context.Context) int {
	removed := c.store.Sweep(ctx, c.sweepAge)
	for _, sessionID := range removed {
		c.metrics.ActiveSessions.Dec()
		c.logger.Info("Cleaned up old session: %s", sessionID)
	}
	return len(removed)
}

// StartSweeper runs periodic sweeps until ctx is cancelled.
func (c *Coordinator) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// finishRun releases the cancel handle for a completed or aborted run.
func (c *Coordinator) finishRun(sessionID string) {
	c.runMu.Lock()
	cancel, ok := c.runs[sessionID]
	if ok {
		delete(c.runs, sessionID)
	}
	c.runMu.Unlock()
	if ok {
		cancel()
	}
}
