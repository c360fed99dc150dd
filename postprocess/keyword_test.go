package postprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragline/node"
)

func scoredChunk(id, text string, score float64) node.ScoredChunk {
	return node.ScoredChunk{Chunk: node.Chunk{ID: id, Text: text}, Score: score}
}

func TestKeywordFilterRequired(t *testing.T) {
	f := &KeywordFilter{Required: []string{"Alpha", "beta"}}

	out, err := f.Process(context.Background(), Query{}, []node.ScoredChunk{
		scoredChunk("1", "alpha and beta together", 0.9),
		scoredChunk("2", "only alpha here", 0.8),
		scoredChunk("3", "BETA and ALPHA shouting", 0.7),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].Chunk.ID)
	assert.Equal(t, "3", out[1].Chunk.ID)
}

func TestKeywordFilterExcluded(t *testing.T) {
	f := &KeywordFilter{Excluded: []string{"draft"}}

	out, err := f.Process(context.Background(), Query{}, []node.ScoredChunk{
		scoredChunk("1", "final version", 0.9),
		scoredChunk("2", "DRAFT do not cite", 0.8),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].Chunk.ID)
}

func TestKeywordFilterNoKeywordsPassesThrough(t *testing.T) {
	f := &KeywordFilter{Required: []string{"  "}}
	in := []node.ScoredChunk{scoredChunk("1", "anything", 0.5)}

	out, err := f.Process(context.Background(), Query{}, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
