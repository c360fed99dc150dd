package postprocess

import (
	"context"
	"errors"
	"fmt"

	"ragline/node"
)

// NeighborExpander augments the sequence with chunks reachable through the
// configured relationship kinds, resolved against the document store.
// Previous-neighbors are placed before their source chunk, all others after,
// so document locality survives into synthesis. Added chunks inherit the
// source chunk's score. A chunk id never appears twice; the first occurrence
// keeps its score.
type NeighborExpander struct {
	store node.Store
	kinds []node.RelKind
}

func NewNeighborExpander(store node.Store, kinds ...node.RelKind) *NeighborExpander {
	if len(kinds) == 0 {
		kinds = []node.RelKind{node.RelPrevious, node.RelNext}
	}
	return &NeighborExpander{store: store, kinds: kinds}
}

func (e *NeighborExpander) Process(ctx context.Context, _ Query, chunks []node.ScoredChunk) ([]node.ScoredChunk, error) {
	seen := make(map[string]struct{}, len(chunks))
	for _, sc := range chunks {
		seen[sc.Chunk.ID] = struct{}{}
	}

	out := make([]node.ScoredChunk, 0, len(chunks))
	for _, sc := range chunks {
		before, after, err := e.neighbors(ctx, sc, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, before...)
		out = append(out, sc)
		out = append(out, after...)
	}
	return out, nil
}

func (e *NeighborExpander) neighbors(ctx context.Context, sc node.ScoredChunk, seen map[string]struct{}) (before, after []node.ScoredChunk, err error) {
	for _, kind := range e.kinds {
		neighbor, resolveErr := e.store.Resolve(ctx, sc.Chunk, kind)
		if resolveErr != nil {
			if errors.Is(resolveErr, node.ErrNotFound) {
				continue
			}
			return nil, nil, fmt.Errorf("resolve %s neighbor of %s: %w", kind, sc.Chunk.ID, resolveErr)
		}
		if _, dup := seen[neighbor.ID]; dup {
			continue
		}
		seen[neighbor.ID] = struct{}{}

		scored := node.ScoredChunk{Chunk: neighbor, Score: sc.Score}
		if kind == node.RelPrevious {
			before = append(before, scored)
		} else {
			after = append(after, scored)
		}
	}
	return before, after, nil
}

var _ Processor = (*NeighborExpander)(nil)
