// Package postprocess filters and augments retrieved chunks before
// synthesis. Processors run strictly in configured order; each sees the
// previous processor's output.
package postprocess

import (
	"context"
	"fmt"

	"ragline/config"
	"ragline/node"
)

// Query carries the query text plus what is known about the upstream
// retriever's scores.
type Query struct {
	Text   string
	Scored bool
}

// Processor transforms a scored chunk sequence. Implementations must be pure
// with respect to the store: no index mutation, ever.
type Processor interface {
	Process(ctx context.Context, q Query, chunks []node.ScoredChunk) ([]node.ScoredChunk, error)
}

// Chain applies processors in order.
type Chain []Processor

func (c Chain) Process(ctx context.Context, q Query, chunks []node.ScoredChunk) ([]node.ScoredChunk, error) {
	var err error
	for _, p := range c {
		chunks, err = p.Process(ctx, q, chunks)
		if err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

// FromConfigs builds a chain from pipeline configuration, preserving order.
func FromConfigs(cfgs []config.PostprocessorConfig, store node.Store) (Chain, error) {
	chain := make(Chain, 0, len(cfgs))
	for i, cfg := range cfgs {
		switch cfg.Type {
		case "keyword":
			chain = append(chain, &KeywordFilter{Required: cfg.RequiredKeywords, Excluded: cfg.ExcludeKeywords})
		case "similarity":
			chain = append(chain, &SimilarityCutoff{Cutoff: cfg.SimilarityCutoff})
		case "neighbors":
			kinds, err := parseRelKinds(cfg.Relationships)
			if err != nil {
				return nil, &config.Error{Field: fmt.Sprintf("postprocessors[%d].relationships", i), Reason: err.Error()}
			}
			chain = append(chain, NewNeighborExpander(store, kinds...))
		default:
			return nil, &config.Error{Field: fmt.Sprintf("postprocessors[%d].type", i), Reason: fmt.Sprintf("unknown postprocessor %q", cfg.Type)}
		}
	}
	return chain, nil
}

func parseRelKinds(names []string) ([]node.RelKind, error) {
	if len(names) == 0 {
		return []node.RelKind{node.RelPrevious, node.RelNext}, nil
	}
	kinds := make([]node.RelKind, 0, len(names))
	for _, name := range names {
		switch kind := node.RelKind(name); kind {
		case node.RelPrevious, node.RelNext, node.RelParent, node.RelChild:
			kinds = append(kinds, kind)
		default:
			return nil, fmt.Errorf("unknown relationship %q", name)
		}
	}
	return kinds, nil
}
