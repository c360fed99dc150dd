// Package retriever maps a query to an ordered sequence of scored chunks.
package retriever

import (
	"context"

	"ragline/node"
)

// Retriever produces candidate chunks for a query, ordered by descending
// relevance with stable ties. Implementations must not mutate the underlying
// index.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]node.ScoredChunk, error)

	// ScoresMeaningful reports whether the scores carry similarity
	// semantics. Score-threshold postprocessors refuse to run when this is
	// false.
	ScoresMeaningful() bool
}
