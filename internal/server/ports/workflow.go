package ports

import "context"

// Chunk is one unit of partial output from the workflow executor. Values for
// well-known keys are report strings; debate keys carry nested maps.
type Chunk map[string]any

// String returns the non-empty string value for key, or "".
func (c Chunk) String(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Nested returns the nested map for key, or nil.
func (c Chunk) Nested(key string) Chunk {
	switch v := c[key].(type) {
	case Chunk:
		return v
	case map[string]any:
		return Chunk(v)
	default:
		return nil
	}
}

// State is the executor's opaque initial graph state.
type State map[string]any

// ChunkStream is a blocking, finite, non-restartable sequence of chunks.
// Next returns io.EOF after the final chunk; any other error is terminal.
type ChunkStream interface {
	Next() (Chunk, error)
}

// WorkflowExecutor is the external analysis workflow. The core owns none of
// its internals; a mid-sequence failure is terminal for that run.
type WorkflowExecutor interface {
	CreateInitialState(ticker, analysisDate string) State
	Stream(ctx context.Context, initial State) (ChunkStream, error)
}

// AnalysisRequest is the request body that starts an analysis session.
type AnalysisRequest struct {
	Ticker         string   `json:"ticker" binding:"required"`
	AnalysisDate   string   `json:"analysis_date" binding:"required"`
	Analysts       []string `json:"analysts"`
	ResearchDepth  int      `json:"research_depth"`
	LLMProvider    string   `json:"llm_provider"`
	BackendURL     string   `json:"backend_url"`
	ShallowThinker string   `json:"shallow_thinker"`
	DeepThinker    string   `json:"deep_thinker"`
}

// ApplyDefaults fills the zero-valued request fields with the stock defaults.
func (r *AnalysisRequest) ApplyDefaults() {
	if len(r.Analysts) == 0 {
		r.Analysts = []string{"market", "social", "news", "fundamentals"}
	}
	if r.ResearchDepth <= 0 {
		r.ResearchDepth = 1
	}
	if r.LLMProvider == "" {
		r.LLMProvider = "google"
	}
	if r.BackendURL == "" {
		r.BackendURL = "https://generativelanguage.googleapis.com/v1"
	}
	if r.ShallowThinker == "" {
		r.ShallowThinker = "gemini-2.0-flash"
	}
	if r.DeepThinker == "" {
		r.DeepThinker = "gemini-2.0-flash"
	}
}

// ExecutorFactory builds a workflow executor for one analysis request.
// Construction can be slow (model clients, data feeds) and runs off the
// request path.
type ExecutorFactory interface {
	Build(ctx context.Context, req AnalysisRequest) (WorkflowExecutor, error)
}
