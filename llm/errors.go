package llm

import "fmt"

// ProviderError wraps a failed model invocation. Transient errors (rate
// limits, upstream 5xx, network timeouts) may be retried by the caller;
// fatal errors abort the query immediately. The synthesizer never retries on
// its own.
type ProviderError struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s provider error (%s): %v", e.Provider, kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
