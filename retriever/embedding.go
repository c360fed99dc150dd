package retriever

import (
	"context"
	"fmt"

	"ragline/config"
	"ragline/embeddings"
	"ragline/node"
)

// VectorIndex is the similarity-search slice of the chunk store.
type VectorIndex interface {
	SimilarChunks(ctx context.Context, embedding []float32, limit int) ([]node.ScoredChunk, error)
}

// EmbeddingRetriever embeds the query and returns the top-k most similar
// chunks from the vector index.
type EmbeddingRetriever struct {
	embedder embeddings.Embedder
	index    VectorIndex
	topK     int
}

func NewEmbeddingRetriever(embedder embeddings.Embedder, index VectorIndex, topK int) (*EmbeddingRetriever, error) {
	if topK <= 0 {
		return nil, &config.Error{Field: "similarity_top_k", Reason: "must be positive"}
	}
	return &EmbeddingRetriever{embedder: embedder, index: index, topK: topK}, nil
}

func (r *EmbeddingRetriever) Retrieve(ctx context.Context, query string) ([]node.ScoredChunk, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	results, err := r.index.SimilarChunks(ctx, vectors[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

func (r *EmbeddingRetriever) ScoresMeaningful() bool {
	return true
}

var _ Retriever = (*EmbeddingRetriever)(nil)
