package retriever

import (
	"context"

	"ragline/node"
)

// ChunkLister is the slice of the store the list retriever needs: every
// chunk in index order.
type ChunkLister interface {
	All(ctx context.Context) []node.Chunk
}

// ListRetriever returns the whole corpus in index order regardless of the
// query. Useful for small or exhaustive corpora; its scores are constant and
// carry no similarity semantics.
type ListRetriever struct {
	store ChunkLister
}

func NewListRetriever(store ChunkLister) *ListRetriever {
	return &ListRetriever{store: store}
}

func (r *ListRetriever) Retrieve(ctx context.Context, _ string) ([]node.ScoredChunk, error) {
	chunks := r.store.All(ctx)
	scored := make([]node.ScoredChunk, len(chunks))
	for i, c := range chunks {
		scored[i] = node.ScoredChunk{Chunk: c, Score: 0}
	}
	return scored, nil
}

func (r *ListRetriever) ScoresMeaningful() bool {
	return false
}

var _ Retriever = (*ListRetriever)(nil)
