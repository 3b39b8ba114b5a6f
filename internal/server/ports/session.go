package ports

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by the session store for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// AgentState represents the lifecycle state of a single agent within a session.
type AgentState string

const (
	AgentPending    AgentState = "pending"
	AgentInProgress AgentState = "in_progress"
	AgentCompleted  AgentState = "completed"
	AgentError      AgentState = "error"
)

// AgentStatus tracks one agent's progress within an analysis session.
type AgentStatus struct {
	AgentName string     `json:"agent_name"`
	Team      string     `json:"team"`
	Status    AgentState `json:"status"`
	Output    string     `json:"output,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Session is the materialized progress snapshot of one analysis run.
//
// A session is owned by its consumer goroutine for the duration of the run;
// readers always work on clones handed out by the store.
type Session struct {
	SessionID     string                  `json:"session_id"`
	Ticker        string                  `json:"ticker"`
	AnalysisDate  string                  `json:"analysis_date"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
	CurrentAgent  string                  `json:"current_agent,omitempty"`
	AgentStatuses map[string]*AgentStatus `json:"agent_statuses"`
	Reports       map[string]string       `json:"reports"`
	FinalDecision string                  `json:"final_decision,omitempty"`
	IsComplete    bool                    `json:"is_complete"`
}

// Clone returns a deep copy safe for concurrent readers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.AgentStatuses = make(map[string]*AgentStatus, len(s.AgentStatuses))
	for name, status := range s.AgentStatuses {
		copied := *status
		out.AgentStatuses[name] = &copied
	}
	out.Reports = make(map[string]string, len(s.Reports))
	for title, text := range s.Reports {
		out.Reports[title] = text
	}
	if s.CompletedAt != nil {
		completed := *s.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}

// Team groups the agents seeded for every session, in pipeline order.
type Team struct {
	Name   string
	Agents []string
}

const (
	TeamAnalyst   = "Analyst Team"
	TeamResearch  = "Research Team"
	TeamTrading   = "Trading Team"
	TeamRisk      = "Risk Management"
	TeamPortfolio = "Portfolio Management"
)

// Teams is the fixed agent roster. The first team starts in_progress when a
// session is seeded; all later teams start pending.
var Teams = []Team{
	{Name: TeamAnalyst, Agents: []string{"Market Analyst", "Social Analyst", "News Analyst", "Fundamentals Analyst"}},
	{Name: TeamResearch, Agents: []string{"Bull Researcher", "Bear Researcher", "Research Manager"}},
	{Name: TeamTrading, Agents: []string{"Trader"}},
	{Name: TeamRisk, Agents: []string{"Risky Analyst", "Neutral Analyst", "Safe Analyst"}},
	{Name: TeamPortfolio, Agents: []string{"Portfolio Manager"}},
}

// SessionStore is the concurrent-safe mapping of session id to snapshot.
type SessionStore interface {
	// Put stores or replaces a session snapshot.
	Put(ctx context.Context, session *Session) error

	// Get returns a deep copy of the session, or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Mutate applies fn to the live session under the store lock and stamps
	// UpdatedAt. fn must not retain the session past its return.
	Mutate(ctx context.Context, id string, fn func(*Session)) error

	// Delete removes a session, or returns ErrSessionNotFound.
	Delete(ctx context.Context, id string) error

	// List returns deep copies of all sessions.
	List(ctx context.Context) ([]*Session, error)

	// Sweep removes completed sessions idle for longer than maxAge and
	// returns the removed session IDs.
	Sweep(ctx context.Context, maxAge time.Duration) []string
}
