package synthesis

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"ragline/node"
)

// accumulateResult answers every batch independently with the same query and
// joins the outputs by batch index. The calls share no state, so they run
// concurrently up to the configured limit; completion order never affects
// the joined text.
func (s *Synthesizer) accumulateResult(ctx context.Context, query string, chunks []node.Chunk, batches []Batch) (Result, error) {
	outputs := make([]string, len(batches))
	done := make([]bool, len(batches))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			out, err := s.llm.Complete(gctx, createPrompt(query, batch.Text()), s.cfg.MaxAnswerTokens)
			if err != nil {
				return err
			}
			mu.Lock()
			outputs[i] = strings.TrimSpace(out)
			done[i] = true
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Completed batches are not discarded; the caller can retry just
		// the failed call.
		completed := make([]string, 0, len(batches))
		for i := range outputs {
			if done[i] {
				completed = append(completed, outputs[i])
			}
		}
		return Result{}, &Error{
			Strategy:       s.cfg.Strategy,
			PartialOutputs: completed,
			Calls:          len(completed),
			Err:            err,
		}
	}

	return Result{
		Text:         strings.Join(outputs, s.cfg.Separator),
		SourceChunks: chunks,
		Metadata: map[string]any{
			"strategy": s.cfg.Strategy.String(),
			"calls":    len(batches),
			"batches":  len(batches),
		},
	}, nil
}
