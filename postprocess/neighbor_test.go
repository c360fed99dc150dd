package postprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragline/node"
)

func linkedStore(t *testing.T) *node.MemoryStore {
	t.Helper()
	s := node.NewMemoryStore()
	s.Add(
		node.Chunk{ID: "a", Text: "first", Relationships: map[node.RelKind]node.Ref{node.RelNext: {ID: "b"}}},
		node.Chunk{ID: "b", Text: "second", Relationships: map[node.RelKind]node.Ref{
			node.RelPrevious: {ID: "a"},
			node.RelNext:     {ID: "c"},
		}},
		node.Chunk{ID: "c", Text: "third", Relationships: map[node.RelKind]node.Ref{node.RelPrevious: {ID: "b"}}},
	)
	return s
}

func TestNeighborExpanderAddsNeighbors(t *testing.T) {
	e := NewNeighborExpander(linkedStore(t))

	out, err := e.Process(context.Background(), Query{}, []node.ScoredChunk{
		scoredChunk("b", "second", 0.8),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Chunk.ID)
	assert.Equal(t, "b", out[1].Chunk.ID)
	assert.Equal(t, "c", out[2].Chunk.ID)

	// Added neighbors inherit the source score.
	assert.Equal(t, 0.8, out[0].Score)
	assert.Equal(t, 0.8, out[2].Score)
}

func TestNeighborExpanderNeverDuplicates(t *testing.T) {
	e := NewNeighborExpander(linkedStore(t), node.RelNext)

	// a's NEXT is b, which is already present: output set size unchanged.
	out, err := e.Process(context.Background(), Query{}, []node.ScoredChunk{
		scoredChunk("a", "first", 0.9),
		scoredChunk("b", "second", 0.4),
	})
	require.NoError(t, err)
	require.Len(t, out, 3) // a, b, and b's next (c)
	assert.Equal(t, "a", out[0].Chunk.ID)
	assert.Equal(t, "b", out[1].Chunk.ID)
	assert.Equal(t, "c", out[2].Chunk.ID)

	// First occurrence of b keeps its own score.
	assert.Equal(t, 0.4, out[1].Score)
}

func TestNeighborExpanderSkipsMissingTargets(t *testing.T) {
	s := node.NewMemoryStore()
	s.Add(node.Chunk{ID: "x", Text: "lonely", Relationships: map[node.RelKind]node.Ref{
		node.RelNext: {ID: "not-in-store"},
	}})
	e := NewNeighborExpander(s)

	out, err := e.Process(context.Background(), Query{}, []node.ScoredChunk{
		scoredChunk("x", "lonely", 0.5),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "x", out[0].Chunk.ID)
}

func TestChainAppliesInOrder(t *testing.T) {
	chain := Chain{
		&KeywordFilter{Required: []string{"keep"}},
		&SimilarityCutoff{Cutoff: 0.5},
	}

	out, err := chain.Process(context.Background(), Query{Scored: true}, []node.ScoredChunk{
		scoredChunk("1", "keep me", 0.9),
		scoredChunk("2", "keep but low", 0.1),
		scoredChunk("3", "drop regardless", 0.9),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].Chunk.ID)
}
