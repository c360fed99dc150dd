package postprocess

import "fmt"

// UnsupportedError reports that a processor needs a capability the upstream
// stage did not provide. It is raised eagerly and never retried.
type UnsupportedError struct {
	Processor string
	Reason    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s postprocessor unsupported: %s", e.Processor, e.Reason)
}
