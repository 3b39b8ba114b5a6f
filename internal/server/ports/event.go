package ports

import "encoding/json"

// Event type names sent to websocket subscribers.
const (
	EventProgressUpdate      = "progress_update"
	EventAnalysisStarted     = "analysis_started"
	EventAgentCompleted      = "agent_completed"
	EventAgentActive         = "agent_active"
	EventAnalysisComplete    = "analysis_complete"
	EventProgressUpdateError = "progress_update_error"
)

// Event is one outbound message, delivered identically to every subscriber
// of its session at broadcast time. Fields are flattened next to type and
// session_id on the wire.
type Event struct {
	Type      string
	SessionID string
	Fields    map[string]any
}

// MarshalJSON flattens the event into a single JSON object:
// {"type": ..., "session_id": ..., <fields...>}.
func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["type"] = e.Type
	out["session_id"] = e.SessionID
	return json.Marshal(out)
}

// NewEvent builds an event with the given flattened payload fields.
func NewEvent(eventType, sessionID string, fields map[string]any) Event {
	if fields == nil {
		fields = map[string]any{}
	}
	return Event{Type: eventType, SessionID: sessionID, Fields: fields}
}
