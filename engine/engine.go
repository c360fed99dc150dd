// Package engine wires retrieval, postprocessing and synthesis into a
// single query facade.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ragline/node"
	"ragline/postprocess"
	"ragline/retriever"
	"ragline/synthesis"
)

// Response is the final query output. SourceChunks lists exactly the chunks
// that contributed to Text, in the order they were synthesized.
type Response struct {
	Text         string
	SourceChunks []node.Chunk
	Metadata     map[string]any
}

// Stage names used in QueryError.
const (
	StageQuery       = "query"
	StageRetrieve    = "retrieve"
	StagePostprocess = "postprocess"
	StageSynthesize  = "synthesize"
)

// QueryError wraps a failure from any pipeline stage with the stage name.
type QueryError struct {
	Stage string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed at %s stage: %v", e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Engine sequences retriever, postprocessor chain and synthesizer. It holds
// no mutable state, so one engine may serve concurrent queries.
type Engine struct {
	retriever retriever.Retriever
	chain     postprocess.Chain
	synth     *synthesis.Synthesizer
	logger    *log.Logger
}

func New(r retriever.Retriever, chain postprocess.Chain, synth *synthesis.Synthesizer, logger *log.Logger) (*Engine, error) {
	if r == nil {
		return nil, fmt.Errorf("retriever is not configured")
	}
	if synth == nil {
		return nil, fmt.Errorf("synthesizer is not configured")
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		retriever: r,
		chain:     chain,
		synth:     synth,
		logger:    logger,
	}, nil
}

// Query runs the full pipeline for one question.
func (e *Engine) Query(ctx context.Context, text string) (Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Response{}, &QueryError{Stage: StageQuery, Err: fmt.Errorf("query cannot be empty")}
	}

	scored, err := e.retriever.Retrieve(ctx, text)
	if err != nil {
		return Response{}, &QueryError{Stage: StageRetrieve, Err: err}
	}
	e.logger.Printf("retrieved %d chunks", len(scored))

	q := postprocess.Query{Text: text, Scored: e.retriever.ScoresMeaningful()}
	processed, err := e.chain.Process(ctx, q, scored)
	if err != nil {
		return Response{}, &QueryError{Stage: StagePostprocess, Err: err}
	}

	result, err := e.synth.Synthesize(ctx, text, node.Chunks(processed))
	if err != nil {
		return Response{}, &QueryError{Stage: StageSynthesize, Err: err}
	}

	return Response{
		Text:         result.Text,
		SourceChunks: result.SourceChunks,
		Metadata:     result.Metadata,
	}, nil
}
