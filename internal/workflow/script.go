package workflow

import (
	"context"
	"fmt"
	"io"
	"time"

	"tradingagents/internal/server/ports"
)

// ScriptedExecutor emits the canonical chunk sequence of a full analysis run:
// one report per selected analyst, the research debate, the trading plan, the
// risk debate and the final decision. It stands in for the external graph
// process so the orchestration layer runs end to end.
type ScriptedExecutor struct {
	analysts []string
	cfg      Config
}

// NewScriptedExecutor creates a scripted executor for the given analysts.
func NewScriptedExecutor(analysts []string, cfg Config) *ScriptedExecutor {
	return &ScriptedExecutor{analysts: analysts, cfg: cfg}
}

// CreateInitialState mirrors the graph's initial state shape.
func (e *ScriptedExecutor) CreateInitialState(ticker, analysisDate string) ports.State {
	return ports.State{
		"company_of_interest": ticker,
		"trade_date":          analysisDate,
	}
}

// Stream returns the finite, non-restartable chunk sequence for one run.
func (e *ScriptedExecutor) Stream(ctx context.Context, initial ports.State) (ports.ChunkStream, error) {
	ticker, _ := initial["company_of_interest"].(string)
	date, _ := initial["trade_date"].(string)

	return &scriptStream{
		ctx:    ctx,
		delay:  e.cfg.StepDelay,
		chunks: e.script(ticker, date),
	}, nil
}

// script builds the full chunk sequence up front; Next pages through it.
func (e *ScriptedExecutor) script(ticker, date string) []ports.Chunk {
	chunks := make([]ports.Chunk, 0, 16)

	for _, analyst := range e.analysts {
		key := analystReportKeys[analyst]
		chunks = append(chunks, ports.Chunk{
			key: fmt.Sprintf("%s assessment for %s as of %s, produced with %s.", analyst, ticker, date, e.cfg.ShallowThinker),
		})
	}

	bullHistory := ""
	bearHistory := ""
	for round := 1; round <= e.cfg.MaxDebateRounds; round++ {
		bullHistory += fmt.Sprintf("Bull round %d: upside case for %s. ", round, ticker)
		chunks = append(chunks, ports.Chunk{
			"investment_debate_state": map[string]any{"bull_history": bullHistory},
		})
		bearHistory += fmt.Sprintf("Bear round %d: downside case for %s. ", round, ticker)
		chunks = append(chunks, ports.Chunk{
			"investment_debate_state": map[string]any{"bear_history": bearHistory},
		})
	}
	researchCall := fmt.Sprintf("Research verdict on %s: weighing both sides, proceed with a measured position.", ticker)
	chunks = append(chunks, ports.Chunk{
		"investment_debate_state": map[string]any{"judge_decision": researchCall},
		"investment_plan":         researchCall,
	})

	chunks = append(chunks, ports.Chunk{
		"trader_investment_plan": fmt.Sprintf("Trading plan for %s on %s: staged entry, stop below recent support.", ticker, date),
	})

	for round := 1; round <= e.cfg.MaxRiskDiscussRounds; round++ {
		chunks = append(chunks,
			ports.Chunk{"risk_debate_state": map[string]any{
				"current_risky_response": fmt.Sprintf("Risky view round %d: size up %s aggressively.", round, ticker),
			}},
			ports.Chunk{"risk_debate_state": map[string]any{
				"current_safe_response": fmt.Sprintf("Safe view round %d: cap %s exposure.", round, ticker),
			}},
			ports.Chunk{"risk_debate_state": map[string]any{
				"current_neutral_response": fmt.Sprintf("Neutral view round %d: balanced sizing for %s.", round, ticker),
			}},
		)
	}

	finalCall := fmt.Sprintf("Final decision for %s (%s): BUY with reduced size, reviewed by %s.", ticker, date, e.cfg.DeepThinker)
	chunks = append(chunks, ports.Chunk{
		"risk_debate_state":    map[string]any{"judge_decision": finalCall},
		"final_trade_decision": finalCall,
	})

	return chunks
}

// scriptStream pages through a prebuilt chunk slice, one chunk per Next call,
// pacing by the configured delay.
type scriptStream struct {
	ctx    context.Context
	delay  time.Duration
	chunks []ports.Chunk
	pos    int
}

func (s *scriptStream) Next() (ports.Chunk, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		case <-timer.C:
		}
	}

	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}
