package synthesis

import "fmt"

// Error wraps a failed model invocation together with the partial synthesis
// state accumulated before the failure. The caller decides whether to retry
// the failed call or abort; the synthesizer itself never retries.
type Error struct {
	Strategy Strategy

	// Partial holds the answer-so-far for the sequential strategies
	// (refine, compact, tree_summarize).
	Partial string

	// PartialOutputs holds the completed per-batch outputs for accumulate,
	// ordered by batch index.
	PartialOutputs []string

	// Calls is the number of model invocations that succeeded.
	Calls int

	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("synthesis failed (%s strategy, %d calls completed): %v", e.Strategy, e.Calls, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
