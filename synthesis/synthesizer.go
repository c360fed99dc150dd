package synthesis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ragline/config"
	"ragline/llm"
	"ragline/node"
)

// Config controls one synthesizer instance. PromptBudget and the provider's
// size estimates share the same unit.
type Config struct {
	Strategy        Strategy
	PromptBudget    int
	MaxAnswerTokens int

	// Separator joins per-batch outputs under the accumulate strategy.
	Separator string

	// Concurrency bounds accumulate's parallel model calls.
	Concurrency int
}

// Result is the synthesizer's output. SourceChunks lists exactly the chunks
// that contributed to Text (or would have, under the no_text strategy).
type Result struct {
	Text         string
	SourceChunks []node.Chunk
	Metadata     map[string]any
}

// Synthesizer orchestrates model calls over packed chunk batches.
type Synthesizer struct {
	llm    llm.Client
	packer *Packer
	cfg    Config
	logger *log.Logger
}

func New(client llm.Client, cfg Config, logger *log.Logger) (*Synthesizer, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is not configured")
	}
	if cfg.PromptBudget <= 0 {
		return nil, &config.Error{Field: "prompt_budget", Reason: "must be positive"}
	}
	if cfg.Separator == "" {
		cfg.Separator = "\n\n---\n\n"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Synthesizer{
		llm:    client,
		packer: NewPacker(client),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Synthesize produces a response for the query from the given chunks using
// the configured strategy. An empty chunk sequence yields an empty result
// without any model call, regardless of strategy.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []node.Chunk) (Result, error) {
	if len(chunks) == 0 {
		return Result{
			SourceChunks: []node.Chunk{},
			Metadata:     map[string]any{"strategy": s.cfg.Strategy.String(), "calls": 0},
		}, nil
	}

	scaffold := scaffoldCost(s.llm, query)

	switch s.cfg.Strategy {
	case StrategyRefine:
		return s.refineResult(ctx, query, chunks, singles(chunks))
	case StrategyCompact:
		return s.refineResult(ctx, query, chunks, s.packer.Pack(chunks, s.cfg.PromptBudget, scaffold))
	case StrategyTree:
		return s.treeResult(ctx, query, chunks, scaffold)
	case StrategyNoText:
		return Result{
			SourceChunks: chunks,
			Metadata:     map[string]any{"strategy": s.cfg.Strategy.String(), "calls": 0},
		}, nil
	case StrategyAccumulate:
		return s.accumulateResult(ctx, query, chunks, s.packer.Pack(chunks, s.cfg.PromptBudget, scaffold))
	default:
		return Result{}, fmt.Errorf("unhandled strategy %d", int(s.cfg.Strategy))
	}
}

func (s *Synthesizer) refineResult(ctx context.Context, query string, chunks []node.Chunk, batches []Batch) (Result, error) {
	answer, calls, err := s.refine(ctx, query, batches)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:         answer,
		SourceChunks: chunks,
		Metadata: map[string]any{
			"strategy": s.cfg.Strategy.String(),
			"calls":    calls,
			"batches":  len(batches),
		},
	}, nil
}

// refine runs the create-and-refine loop: the first batch fills the create
// template, every later batch asks the model to revise the running answer.
// Each call depends on the previous call's output, so the loop is strictly
// sequential. Cancellation is observed between calls and surfaces the
// answer-so-far.
func (s *Synthesizer) refine(ctx context.Context, query string, batches []Batch) (string, int, error) {
	answer := ""
	calls := 0

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return "", calls, &Error{Strategy: s.cfg.Strategy, Partial: answer, Calls: calls, Err: err}
		}
		if batch.Oversized {
			s.logger.Printf("batch %d exceeds prompt budget, attempting anyway", i)
		}

		var prompt string
		if i == 0 {
			prompt = createPrompt(query, batch.Text())
		} else {
			prompt = refinePrompt(query, batch.Text(), answer)
		}

		out, err := s.llm.Complete(ctx, prompt, s.cfg.MaxAnswerTokens)
		if err != nil {
			return "", calls, &Error{Strategy: s.cfg.Strategy, Partial: answer, Calls: calls, Err: err}
		}
		answer = strings.TrimSpace(out)
		calls++
	}

	return answer, calls, nil
}
