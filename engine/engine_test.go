package engine

import (
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragline/llm"
	"ragline/node"
	"ragline/postprocess"
	"ragline/synthesis"
)

type stubRetriever struct {
	chunks []node.ScoredChunk
	err    error
	scored bool
}

func (s *stubRetriever) Retrieve(context.Context, string) ([]node.ScoredChunk, error) {
	return s.chunks, s.err
}

func (s *stubRetriever) ScoresMeaningful() bool {
	return s.scored
}

type countingLLM struct {
	calls int
	err   error
}

func (c *countingLLM) EstimateSize(text string) int {
	return llm.EstimateTokens(text)
}

func (c *countingLLM) Complete(context.Context, string, int) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "synthesized answer", nil
}

func quietLogger() *log.Logger {
	return log.New(&strings.Builder{}, "", 0)
}

func newEngine(t *testing.T, r *stubRetriever, chain postprocess.Chain, client *countingLLM, strategy synthesis.Strategy) *Engine {
	t.Helper()
	synth, err := synthesis.New(client, synthesis.Config{Strategy: strategy, PromptBudget: 2000}, quietLogger())
	require.NoError(t, err)
	eng, err := New(r, chain, synth, quietLogger())
	require.NoError(t, err)
	return eng
}

func scoredChunks(ids ...string) []node.ScoredChunk {
	out := make([]node.ScoredChunk, len(ids))
	for i, id := range ids {
		out[i] = node.ScoredChunk{Chunk: node.Chunk{ID: id, Text: "about " + id}, Score: 0.9}
	}
	return out
}

func TestQueryFullPipeline(t *testing.T) {
	client := &countingLLM{}
	r := &stubRetriever{chunks: scoredChunks("a", "b"), scored: true}
	eng := newEngine(t, r, nil, client, synthesis.StrategyCompact)

	resp, err := eng.Query(context.Background(), "what about a and b")
	require.NoError(t, err)
	assert.Equal(t, "synthesized answer", resp.Text)
	require.Len(t, resp.SourceChunks, 2)
	assert.Equal(t, "a", resp.SourceChunks[0].ID)
	assert.Equal(t, "b", resp.SourceChunks[1].ID)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "compact", resp.Metadata["strategy"])
}

func TestQueryRejectsEmptyText(t *testing.T) {
	eng := newEngine(t, &stubRetriever{}, nil, &countingLLM{}, synthesis.StrategyCompact)

	_, err := eng.Query(context.Background(), "   ")
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, StageQuery, qErr.Stage)
}

func TestQueryEmptyRetrievalMakesNoCalls(t *testing.T) {
	client := &countingLLM{}
	eng := newEngine(t, &stubRetriever{}, nil, client, synthesis.StrategyRefine)

	resp, err := eng.Query(context.Background(), "question with no matches")
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.NotNil(t, resp.SourceChunks)
	assert.Empty(t, resp.SourceChunks)
	assert.Equal(t, 0, client.calls)
	assert.Equal(t, 0, resp.Metadata["calls"])
}

func TestQueryWrapsRetrieveFailure(t *testing.T) {
	cause := errors.New("vector index down")
	eng := newEngine(t, &stubRetriever{err: cause}, nil, &countingLLM{}, synthesis.StrategyCompact)

	_, err := eng.Query(context.Background(), "question")
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, StageRetrieve, qErr.Stage)
	assert.ErrorIs(t, err, cause)
}

func TestQueryWrapsPostprocessFailure(t *testing.T) {
	// A similarity cutoff over an unscored retriever is a configuration
	// mismatch surfaced at the postprocess stage.
	r := &stubRetriever{chunks: scoredChunks("a"), scored: false}
	chain := postprocess.Chain{&postprocess.SimilarityCutoff{Cutoff: 0.5}}
	eng := newEngine(t, r, chain, &countingLLM{}, synthesis.StrategyCompact)

	_, err := eng.Query(context.Background(), "question")
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, StagePostprocess, qErr.Stage)

	var unsupported *postprocess.UnsupportedError
	assert.ErrorAs(t, err, &unsupported)
}

func TestQueryWrapsSynthesizeFailure(t *testing.T) {
	cause := errors.New("provider exploded")
	client := &countingLLM{err: cause}
	eng := newEngine(t, &stubRetriever{chunks: scoredChunks("a")}, nil, client, synthesis.StrategyCompact)

	_, err := eng.Query(context.Background(), "question")
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, StageSynthesize, qErr.Stage)

	var synthErr *synthesis.Error
	assert.ErrorAs(t, err, &synthErr)
	assert.ErrorIs(t, err, cause)
}

func TestNoTextSourcesMatchDefaultSources(t *testing.T) {
	r := &stubRetriever{chunks: scoredChunks("a", "b", "c"), scored: true}
	chain := postprocess.Chain{&postprocess.SimilarityCutoff{Cutoff: 0.5}}

	defaultClient := &countingLLM{}
	defaultEng := newEngine(t, r, chain, defaultClient, synthesis.StrategyRefine)
	defaultResp, err := defaultEng.Query(context.Background(), "question")
	require.NoError(t, err)

	noTextClient := &countingLLM{}
	noTextEng := newEngine(t, r, chain, noTextClient, synthesis.StrategyNoText)
	noTextResp, err := noTextEng.Query(context.Background(), "question")
	require.NoError(t, err)

	// no_text reports exactly the chunks any other strategy would have
	// synthesized from, without spending a single model call.
	assert.Equal(t, defaultResp.SourceChunks, noTextResp.SourceChunks)
	assert.Empty(t, noTextResp.Text)
	assert.Equal(t, 0, noTextClient.calls)
	assert.Greater(t, defaultClient.calls, 0)
}
