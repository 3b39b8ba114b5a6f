package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/ports"
)

// analystReportKeys maps the selectable analyst names to the chunk key each
// one reports under.
var analystReportKeys = map[string]string{
	"market":       "market_report",
	"social":       "sentiment_report",
	"news":         "news_report",
	"fundamentals": "fundamentals_report",
}

// Config carries the per-run tunables derived from the analysis request.
type Config struct {
	Provider             string
	BackendURL           string
	ShallowThinker       string
	DeepThinker          string
	MaxDebateRounds      int
	MaxRiskDiscussRounds int
	OnlineTools          bool

	// StepDelay spaces out emitted chunks to mimic model-invocation
	// latency. Zero means emit as fast as the consumer pulls.
	StepDelay time.Duration
}

// Factory builds a workflow executor per analysis request. The executor's
// reasoning is outside this module's scope; the scripted executor below
// produces the same chunk sequence shape the real graph streams.
type Factory struct {
	stepDelay time.Duration
	logger    logging.Logger
}

// NewFactory creates an executor factory.
func NewFactory(stepDelay time.Duration, logger logging.Logger) *Factory {
	return &Factory{stepDelay: stepDelay, logger: logging.OrNop(logger)}
}

// Build validates the request and constructs an executor for it.
func (f *Factory) Build(ctx context.Context, req ports.AnalysisRequest) (ports.WorkflowExecutor, error) {
	analysts := make([]string, 0, len(req.Analysts))
	for _, analyst := range req.Analysts {
		name := strings.ToLower(strings.TrimSpace(analyst))
		if _, ok := analystReportKeys[name]; !ok {
			return nil, fmt.Errorf("unknown analyst: %s", analyst)
		}
		analysts = append(analysts, name)
	}
	if len(analysts) == 0 {
		return nil, fmt.Errorf("no analysts selected")
	}

	cfg := Config{
		Provider:             strings.ToLower(req.LLMProvider),
		BackendURL:           req.BackendURL,
		ShallowThinker:       req.ShallowThinker,
		DeepThinker:          req.DeepThinker,
		MaxDebateRounds:      req.ResearchDepth,
		MaxRiskDiscussRounds: req.ResearchDepth,
		OnlineTools:          true,
		StepDelay:            f.stepDelay,
	}

	f.logger.Info("Built %s executor (analysts: %s, depth: %d)", cfg.Provider, strings.Join(analysts, ","), cfg.MaxDebateRounds)
	return NewScriptedExecutor(analysts, cfg), nil
}
