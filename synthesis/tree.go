package synthesis

import (
	"context"
	"strings"

	"ragline/node"
)

// treeResult summarizes batches level by level until a single summary
// remains. Each level packs the previous level's summaries again, so the
// level count is logarithmic in the chunk count for any batch capacity
// above one.
func (s *Synthesizer) treeResult(ctx context.Context, query string, chunks []node.Chunk, scaffold int) (Result, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	calls := 0
	levels := 0

	for {
		batches := s.packer.Pack(asChunks(texts), s.cfg.PromptBudget, scaffold)

		// A level that cannot shrink the set (batch capacity forced to 1)
		// would loop forever; concatenate and summarize once instead.
		if len(batches) >= len(texts) && len(texts) > 1 {
			s.logger.Printf("tree level cannot reduce %d summaries, collapsing to a single oversized call", len(texts))
			out, err := s.llm.Complete(ctx, summarizePrompt(query, strings.Join(texts, "\n\n")), s.cfg.MaxAnswerTokens)
			if err != nil {
				return Result{}, &Error{Strategy: s.cfg.Strategy, Partial: strings.Join(texts, s.cfg.Separator), Calls: calls, Err: err}
			}
			calls++
			levels++
			return s.treeDone(out, chunks, calls, levels)
		}

		summaries := make([]string, 0, len(batches))
		for _, batch := range batches {
			if err := ctx.Err(); err != nil {
				return Result{}, &Error{Strategy: s.cfg.Strategy, Partial: strings.Join(summaries, s.cfg.Separator), Calls: calls, Err: err}
			}
			out, err := s.llm.Complete(ctx, summarizePrompt(query, batch.Text()), s.cfg.MaxAnswerTokens)
			if err != nil {
				return Result{}, &Error{Strategy: s.cfg.Strategy, Partial: strings.Join(summaries, s.cfg.Separator), Calls: calls, Err: err}
			}
			summaries = append(summaries, strings.TrimSpace(out))
			calls++
		}
		levels++

		if len(summaries) == 1 {
			return s.treeDone(summaries[0], chunks, calls, levels)
		}
		texts = summaries
	}
}

func (s *Synthesizer) treeDone(answer string, chunks []node.Chunk, calls, levels int) (Result, error) {
	return Result{
		Text:         strings.TrimSpace(answer),
		SourceChunks: chunks,
		Metadata: map[string]any{
			"strategy": s.cfg.Strategy.String(),
			"calls":    calls,
			"levels":   levels,
		},
	}, nil
}

// asChunks wraps intermediate summaries so they can be packed like chunks.
// Summary pseudo-chunks never leave the tree loop and carry no id.
func asChunks(texts []string) []node.Chunk {
	chunks := make([]node.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = node.Chunk{Index: i, Text: t}
	}
	return chunks
}
