package app

import (
	"fmt"
	"time"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/ports"
)

// reportMapping binds a chunk key to the report it carries and the agent it
// completes. Order matters: current_agent is the last agent changed in
// table-then-debate evaluation order.
type reportMapping struct {
	key   string
	title string
	agent string
}

var reportTable = []reportMapping{
	{"market_report", "Market Analysis", "Market Analyst"},
	{"sentiment_report", "Social Sentiment", "Social Analyst"},
	{"news_report", "News Analysis", "News Analyst"},
	{"fundamentals_report", "Fundamentals Analysis", "Fundamentals Analyst"},
	{"investment_plan", "Research Team Decision", "Research Manager"},
	{"trader_investment_plan", "Trading Plan", "Trader"},
	{"final_trade_decision", "Final Decision", "Portfolio Manager"},
}

type debateMapping struct {
	key   string
	agent string
}

var investmentDebateFields = []debateMapping{
	{"bull_history", "Bull Researcher"},
	{"bear_history", "Bear Researcher"},
	{"judge_decision", "Research Manager"},
}

var riskDebateFields = []debateMapping{
	{"current_risky_response", "Risky Analyst"},
	{"current_safe_response", "Safe Analyst"},
	{"current_neutral_response", "Neutral Analyst"},
	{"judge_decision", "Portfolio Manager"},
}

var knownChunkKeys = buildKnownChunkKeys()

func buildKnownChunkKeys() map[string]struct{} {
	known := map[string]struct{}{
		"investment_debate_state": {},
		"risk_debate_state":       {},
	}
	for _, m := range reportTable {
		known[m.key] = struct{}{}
	}
	return known
}

// ProgressReducer folds workflow chunks into a session snapshot. Apply has no
// side effects beyond the caller-owned session and the returned events; all
// persistence and broadcasting belongs to the caller.
type ProgressReducer struct {
	logger logging.Logger
}

// NewProgressReducer creates a reducer.
func NewProgressReducer(logger logging.Logger) *ProgressReducer {
	return &ProgressReducer{logger: logging.OrNop(logger)}
}

// Apply folds one chunk into the session and returns the domain events it
// produced. The session must be exclusively owned by the caller for the
// duration of the call. now is injected so replaying a chunk is deterministic.
func (r *ProgressReducer) Apply(sess *ports.Session, chunk ports.Chunk, now time.Time) []ports.Event {
	events := make([]ports.Event, 0, 4)
	current := ""

	for _, m := range reportTable {
		text := chunk.String(m.key)
		if text == "" {
			continue
		}
		sess.Reports[m.title] = text
		if r.completeAgent(sess, m.agent, text, now) {
			current = m.agent
			events = append(events, ports.NewEvent(ports.EventAgentCompleted, sess.SessionID, map[string]any{
				"message": fmt.Sprintf("%s completed: %s", m.agent, m.title),
				"agent":   m.agent,
				"output":  text,
			}))
		}
	}

	if debate := chunk.Nested("investment_debate_state"); debate != nil {
		for _, m := range investmentDebateFields {
			text := debate.String(m.key)
			if text == "" {
				continue
			}
			if r.completeAgent(sess, m.agent, text, now) {
				current = m.agent
			}
		}
	}

	if risk := chunk.Nested("risk_debate_state"); risk != nil {
		for _, m := range riskDebateFields {
			text := risk.String(m.key)
			if text == "" {
				continue
			}
			if r.completeAgent(sess, m.agent, text, now) {
				current = m.agent
			}
			// The risk judge's decision is the session's final decision.
			// Once set to a non-empty value it is only ever strengthened,
			// never cleared by a later chunk missing the field.
			if m.key == "judge_decision" {
				sess.FinalDecision = text
			}
		}
	}

	for key := range chunk {
		if _, ok := knownChunkKeys[key]; !ok {
			r.logger.Debug("Ignoring unknown chunk key %q for session %s", key, sess.SessionID)
		}
	}

	// current_agent reflects the most recent application, even when the
	// chunk changed nothing. The ordering is deterministic, not meaningful.
	sess.CurrentAgent = current

	if current != "" {
		events = append(events, ports.NewEvent(ports.EventAgentActive, sess.SessionID, map[string]any{
			"current_agent": current,
			"message":       fmt.Sprintf("%s is working...", current),
		}))
	}

	return events
}

// completeAgent marks an agent completed with its output. Raw chunks carry no
// ordering guarantee, so the transition is enforced monotonic here: an agent
// already completed never moves back to pending or in_progress.
func (r *ProgressReducer) completeAgent(sess *ports.Session, agent, output string, now time.Time) bool {
	status, ok := sess.AgentStatuses[agent]
	if !ok {
		r.logger.Warn("Chunk references unseeded agent %q for session %s", agent, sess.SessionID)
		return false
	}

	status.Status = ports.AgentCompleted
	status.Output = output
	status.Timestamp = now
	return true
}
