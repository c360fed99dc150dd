package postprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragline/node"
)

func TestSimilarityCutoffFilters(t *testing.T) {
	f := &SimilarityCutoff{Cutoff: 0.5}

	out, err := f.Process(context.Background(), Query{Scored: true}, []node.ScoredChunk{
		scoredChunk("1", "high", 0.9),
		scoredChunk("2", "low", 0.2),
		scoredChunk("3", "boundary", 0.5),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].Chunk.ID)
	assert.Equal(t, "3", out[1].Chunk.ID)
}

func TestSimilarityCutoffRequiresScores(t *testing.T) {
	f := &SimilarityCutoff{Cutoff: 0.5}

	_, err := f.Process(context.Background(), Query{Scored: false}, []node.ScoredChunk{
		scoredChunk("1", "anything", 0),
	})
	var unsupported *UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "similarity", unsupported.Processor)
}
