package postprocess

import (
	"context"

	"ragline/node"
)

// SimilarityCutoff drops chunks scored below the cutoff. It requires a
// retriever whose scores carry similarity semantics.
type SimilarityCutoff struct {
	Cutoff float64
}

func (f *SimilarityCutoff) Process(_ context.Context, q Query, chunks []node.ScoredChunk) ([]node.ScoredChunk, error) {
	if !q.Scored {
		return nil, &UnsupportedError{
			Processor: "similarity",
			Reason:    "upstream retriever does not produce similarity scores",
		}
	}

	filtered := make([]node.ScoredChunk, 0, len(chunks))
	for _, sc := range chunks {
		if sc.Score >= f.Cutoff {
			filtered = append(filtered, sc)
		}
	}
	return filtered, nil
}

var _ Processor = (*SimilarityCutoff)(nil)
