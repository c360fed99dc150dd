package synthesis

import (
	"fmt"

	"ragline/config"
)

// Strategy selects one of the five response-combination algorithms. The set
// is closed; Synthesize dispatches over it exhaustively.
type Strategy int

const (
	// StrategyRefine runs one create/refine call per chunk.
	StrategyRefine Strategy = iota

	// StrategyCompact packs chunks into budget-sized batches first, then
	// runs the same create/refine loop over batches.
	StrategyCompact

	// StrategyTree summarizes batches recursively until one summary
	// remains.
	StrategyTree

	// StrategyNoText performs no model calls and only reports the chunks
	// that would have been used.
	StrategyNoText

	// StrategyAccumulate answers each batch independently and joins the
	// outputs in batch order.
	StrategyAccumulate
)

func (s Strategy) String() string {
	switch s {
	case StrategyRefine:
		return config.StrategyDefault
	case StrategyCompact:
		return config.StrategyCompact
	case StrategyTree:
		return config.StrategyTreeSummarize
	case StrategyNoText:
		return config.StrategyNoText
	case StrategyAccumulate:
		return config.StrategyAccumulate
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy maps a configured strategy name to its Strategy value.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case config.StrategyDefault:
		return StrategyRefine, nil
	case config.StrategyCompact:
		return StrategyCompact, nil
	case config.StrategyTreeSummarize:
		return StrategyTree, nil
	case config.StrategyNoText:
		return StrategyNoText, nil
	case config.StrategyAccumulate:
		return StrategyAccumulate, nil
	default:
		return 0, &config.Error{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", name)}
	}
}
